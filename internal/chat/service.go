package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/forecast"
	"github.com/fintrack/assistant-service/internal/models"
)

// AccountData is the read/write account-data contract the chat service needs.
// It is implemented by the Postgres repository.
type AccountData interface {
	ListCategories(userID int64) ([]models.Category, error)
	SpendSummary(userID int64) ([]models.SummaryRow, error)
	MonthlyTotals(userID int64, now time.Time) (map[string]float64, error)
	MonthlyTotalByType(userID int64, txType string, now time.Time) (float64, error)
	MonthlySeries(userID int64, txType, category string, months int) ([]float64, error)
	ListBudgetLines(userID int64, now time.Time) ([]models.BudgetLine, error)
	ListSavingsGoals(userID int64) ([]models.SavingsGoal, error)
	CategorySpendForMonth(userID int64, now time.Time) (map[string]float64, error)
	CategoryMonthlyAverages(userID int64) (map[string]float64, error)
	FindCategory(userID int64, name, txType string) (*models.Category, error)
	AddTransaction(tx *models.Transaction) error
	UpdateRecentTransaction(userID, categoryID int64, oldAmount, newAmount float64, since time.Time) (*models.Transaction, string, error)
	DeleteRecentTransaction(userID, categoryID int64, amount float64, since time.Time) (*models.Transaction, string, error)
}

// QueryRunner executes natural-language database queries
type QueryRunner interface {
	Run(ctx context.Context, query string, userID int64) string
}

// Reply is the outcome of handling one chat message
type Reply struct {
	Text    string                `json:"reply"`
	Intent  models.ResolvedIntent `json:"intent"`
	Context Summary               `json:"context"`
}

// Service handles chat messages end to end: intent resolution, dispatch and
// reply rendering.
type Service struct {
	data     AccountData
	sessions SessionStore
	resolver *Resolver
	queries  QueryRunner
	log      *logrus.Logger
	now      func() time.Time
}

// NewService initializes the chat service
func NewService(data AccountData, sessions SessionStore, resolver *Resolver, queries QueryRunner, log *logrus.Logger) *Service {
	return &Service{
		data:     data,
		sessions: sessions,
		resolver: resolver,
		queries:  queries,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleMessage processes one user message: resolves the intent, dispatches
// it, and records both turns in the conversation context.
func (s *Service) HandleMessage(ctx context.Context, userID int64, text string) (*Reply, error) {
	conv, err := s.sessions.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	snap, err := s.snapshot(userID)
	if err != nil {
		return nil, err
	}

	resolved := s.resolver.Resolve(ctx, text, snap, conv)
	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"intent":  resolved.Intent,
		"source":  resolved.Source,
	}).Info("Resolved chat intent")

	reply := s.dispatch(ctx, userID, text, resolved, snap)

	conv.AppendTurn("assistant", reply, "", nil)
	if err := s.sessions.Put(conv); err != nil {
		return nil, fmt.Errorf("saving conversation: %w", err)
	}

	return &Reply{Text: reply, Intent: resolved, Context: conv.Summarize()}, nil
}

// Context returns the conversation state for a user
func (s *Service) Context(userID int64) (*Context, error) {
	return s.sessions.Get(userID)
}

// ClearContext removes the user's conversation state
func (s *Service) ClearContext(userID int64) error {
	return s.sessions.Clear(userID)
}

func (s *Service) snapshot(userID int64) (Snapshot, error) {
	categories, err := s.data.ListCategories(userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading categories: %w", err)
	}
	summary, err := s.data.SpendSummary(userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading summary: %w", err)
	}
	monthly, err := s.data.MonthlyTotals(userID, s.now())
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading monthly totals: %w", err)
	}
	return Snapshot{Categories: categories, Summary: summary, Monthly: monthly}, nil
}

func (s *Service) dispatch(ctx context.Context, userID int64, text string, resolved models.ResolvedIntent, snap Snapshot) string {
	switch resolved.Intent {
	case models.IntentAddTransaction:
		return s.addTransaction(userID, text, resolved.Entities, snap.Categories)
	case models.IntentUpdateTransaction:
		return s.updateTransaction(userID, resolved.Entities)
	case models.IntentDeleteTransaction:
		return s.deleteTransaction(userID, resolved.Entities)
	case models.IntentMonthlyIncome:
		return s.monthlyTotal(userID, models.TypeIncome)
	case models.IntentMonthlyExpense:
		return s.monthlyTotal(userID, models.TypeExpense)
	case models.IntentPredictExpense:
		return s.predictExpense(userID)
	case models.IntentForecastExpense:
		return s.renderForecast(userID, models.TypeExpense)
	case models.IntentForecastIncome:
		return s.renderForecast(userID, models.TypeIncome)
	case models.IntentBudgetRisk:
		return s.renderRisk(userID)
	case models.IntentSpendingInsights:
		return s.renderInsights(userID)
	case models.IntentCheckBudget, models.IntentBudgetStatus:
		return s.renderBudgetSummary(userID)
	case models.IntentPredictBudget:
		return s.renderBudgetPrediction(userID)
	case models.IntentSavingsGoals:
		return s.renderGoals(userID)
	case models.IntentNLPQuery:
		if s.queries == nil {
			return "Natural language queries are not available right now."
		}
		return s.queries.Run(ctx, text, userID)
	case models.IntentInvalidCategory:
		if resolved.Message != "" {
			return resolved.Message
		}
		return fmt.Sprintf("I couldn't match your input to any known category. Please use one of these: %s", categoryNames(snap.Categories))
	case models.IntentGetSummary:
		if resolved.Message != "" {
			return resolved.Message
		}
		return s.renderSummary(snap.Summary)
	case models.IntentAdvice, models.IntentChat:
		if resolved.Message != "" {
			return resolved.Message
		}
		return "I'm here to help! Ask me about spending, budgets, forecasts, or use natural language to query your data."
	default:
		if resolved.Message != "" {
			return resolved.Message
		}
		return "I'm here to help! Ask me about spending, budgets, forecasts, or use natural language to query your data."
	}
}

func (s *Service) addTransaction(userID int64, text string, entities map[string]interface{}, categories []models.Category) string {
	amount := entityAmount(entities, "amount")
	name, _ := entities["category"].(string)
	txType, _ := entities["type"].(string)
	description, _ := entities["description"].(string)
	if description == "" {
		description = text
	}

	category, err := s.data.FindCategory(userID, name, txType)
	if err != nil {
		s.log.Errorf("Failed to look up category: %v", err)
		return "Something went wrong recording the transaction. Please try again."
	}
	if category == nil {
		return fmt.Sprintf("Category '%s' of type '%s' not found. Transaction not recorded.", name, txType)
	}

	tx := &models.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		Date:        s.now(),
	}
	if err := s.data.AddTransaction(tx); err != nil {
		s.log.Errorf("Failed to add transaction: %v", err)
		return "Something went wrong recording the transaction. Please try again."
	}

	return fmt.Sprintf("Recorded %.2f as %s for '%s' under '%s'.", amount, txType, description, category.Name)
}

func (s *Service) updateTransaction(userID int64, entities map[string]interface{}) string {
	oldAmount := entityAmount(entities, "old_amount")
	newAmount := entityAmount(entities, "new_amount")
	categoryName, _ := entities["category"].(string)

	categoryID := s.lookupCategoryID(userID, categoryName)

	tx, catName, err := s.data.UpdateRecentTransaction(userID, categoryID, oldAmount, newAmount, s.now().AddDate(0, 0, -30))
	if err != nil {
		s.log.Errorf("Failed to update transaction: %v", err)
		return "Something went wrong updating the transaction. Please try again."
	}
	if tx == nil {
		return notFoundReply(categoryName)
	}
	return fmt.Sprintf("Updated transaction in '%s' from %.2f to %.2f", catName, oldAmount, newAmount)
}

func (s *Service) deleteTransaction(userID int64, entities map[string]interface{}) string {
	amount := entityAmount(entities, "amount")
	categoryName, _ := entities["category"].(string)

	categoryID := s.lookupCategoryID(userID, categoryName)

	tx, catName, err := s.data.DeleteRecentTransaction(userID, categoryID, amount, s.now().AddDate(0, 0, -30))
	if err != nil {
		s.log.Errorf("Failed to delete transaction: %v", err)
		return "Something went wrong deleting the transaction. Please try again."
	}
	if tx == nil {
		return notFoundReply(categoryName)
	}
	return fmt.Sprintf("Deleted transaction: %.2f for '%s' from '%s'", tx.Amount, tx.Description, catName)
}

// lookupCategoryID matches an optional category name against either type;
// 0 means "any category".
func (s *Service) lookupCategoryID(userID int64, name string) int64 {
	if name == "" {
		return 0
	}
	for _, txType := range []string{models.TypeExpense, models.TypeIncome} {
		if cat, err := s.data.FindCategory(userID, name, txType); err == nil && cat != nil {
			return cat.ID
		}
	}
	return 0
}

func notFoundReply(categoryName string) string {
	what := "transactions"
	if categoryName != "" {
		what = categoryName
	}
	return fmt.Sprintf("Could not find a recent transaction matching your criteria.\n\nTry: 'Show my recent %s' first.", what)
}

func (s *Service) monthlyTotal(userID int64, txType string) string {
	total, err := s.data.MonthlyTotalByType(userID, txType, s.now())
	if err != nil {
		s.log.Errorf("Failed to fetch monthly total: %v", err)
		return "Something went wrong fetching your totals. Please try again."
	}
	if txType == models.TypeIncome {
		return fmt.Sprintf("Your total income this month is %.2f.", total)
	}
	return fmt.Sprintf("Your total expenditure this month is %.2f.", total)
}

func (s *Service) predictExpense(userID int64) string {
	series, err := s.data.MonthlySeries(userID, models.TypeExpense, "", 6)
	if err != nil {
		s.log.Errorf("Failed to fetch expense series: %v", err)
		return "Something went wrong computing the prediction. Please try again."
	}
	if len(series) == 0 {
		return "I don't have enough expense history to make a prediction yet."
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return fmt.Sprintf("Based on recent trends, your expected monthly spending is around %.2f.", sum/float64(len(series)))
}

func (s *Service) renderForecast(userID int64, txType string) string {
	series, err := s.data.MonthlySeries(userID, txType, "", 12)
	if err != nil {
		s.log.Errorf("Failed to fetch %s series: %v", txType, err)
		return "Something went wrong generating the forecast. Please try again."
	}

	result := forecast.Forecast(series, "auto")
	if result.Method == models.MethodNoData {
		return fmt.Sprintf("No historical %s data available yet. Add some transactions first.", txType)
	}

	label := "Expense"
	if txType == models.TypeIncome {
		label = "Income"
	}
	return fmt.Sprintf("**%s Forecast (Next Month):**\n\nPredicted: %.2f\nConfidence: %s",
		label, result.Value, strings.ToUpper(result.Confidence))
}

func (s *Service) renderRisk(userID int64) string {
	lines, err := s.data.ListBudgetLines(userID, s.now())
	if err != nil {
		s.log.Errorf("Failed to fetch budgets: %v", err)
		return "Something went wrong analyzing budget risk. Please try again."
	}
	if len(lines) == 0 {
		return "You don't have any budgets set up yet. Create budgets to track your spending!"
	}

	now := s.now()
	report := forecast.ScoreBudgets(lines, now.Day(), daysInMonth(now))

	var b strings.Builder
	fmt.Fprintf(&b, "**Budget Risk Analysis:**\n\nOverall Risk Score: %.1f/100 (%s)\n\n",
		report.RiskScore, strings.ToUpper(report.RiskLevel))
	if len(report.HighRisk) > 0 {
		b.WriteString("**High Risk Categories:**\n")
		for _, p := range report.HighRisk {
			fmt.Fprintf(&b, "• %s: %.2f → %.2f / %.2f\n", p.Category, p.SpentToDate, p.ProjectedTotal, p.Budget)
		}
	} else {
		b.WriteString("All budgets are on track!")
	}
	return b.String()
}

func (s *Service) renderInsights(userID int64) string {
	now := s.now()
	current, err := s.data.CategorySpendForMonth(userID, now)
	if err != nil {
		s.log.Errorf("Failed to fetch current spend: %v", err)
		return "Something went wrong computing insights. Please try again."
	}
	averages, err := s.data.CategoryMonthlyAverages(userID)
	if err != nil {
		s.log.Errorf("Failed to fetch historical averages: %v", err)
		return "Something went wrong computing insights. Please try again."
	}

	insights := forecast.DetectInsights(current, averages)
	if len(insights) == 0 {
		return "No significant spending changes detected this month."
	}

	var b strings.Builder
	b.WriteString("**Spending Insights:**\n\n")
	for _, in := range insights {
		fmt.Fprintf(&b, "**%s**: %.2f (avg: %.2f, %+.1f%%)\n", in.Category, in.Current, in.Average, in.ChangePct)
	}
	return b.String()
}

func (s *Service) renderBudgetSummary(userID int64) string {
	lines, err := s.data.ListBudgetLines(userID, s.now())
	if err != nil {
		s.log.Errorf("Failed to fetch budgets: %v", err)
		return "Something went wrong fetching your budgets. Please try again."
	}
	if len(lines) == 0 {
		return "You don't have any budgets set up yet. Create budgets to track your spending!"
	}

	statuses := make([]models.BudgetStatus, 0, len(lines))
	var exceeded []models.BudgetStatus
	for _, line := range lines {
		status := models.BudgetStatus{
			Category: line.Category,
			Spent:    line.SpentToDate,
			Budget:   line.Amount,
			Exceeded: line.SpentToDate > line.Amount,
		}
		if line.Amount > 0 {
			status.Percentage = line.SpentToDate / line.Amount * 100
		}
		if status.Exceeded {
			status.OverAmount = line.SpentToDate - line.Amount
			exceeded = append(exceeded, status)
		}
		statuses = append(statuses, status)
	}

	var b strings.Builder
	if len(exceeded) > 0 {
		b.WriteString("**Budget Alerts:**\n\n")
		for _, st := range exceeded {
			fmt.Fprintf(&b, "%s: Spent %.2f / Budget %.2f (Over by %.2f, %.1f%%)\n",
				st.Category, st.Spent, st.Budget, st.OverAmount, st.Percentage)
		}
		b.WriteString("\n")
	}
	b.WriteString("**All Budgets:**\n\n")
	for _, st := range statuses {
		state := "On track"
		if st.Exceeded {
			state = "Exceeded"
		}
		fmt.Fprintf(&b, "%s: %.2f / %.2f (%.1f%%) - %s\n", st.Category, st.Spent, st.Budget, st.Percentage, state)
	}
	return b.String()
}

func (s *Service) renderBudgetPrediction(userID int64) string {
	lines, err := s.data.ListBudgetLines(userID, s.now())
	if err != nil {
		s.log.Errorf("Failed to fetch budgets: %v", err)
		return "Something went wrong predicting your budgets. Please try again."
	}
	if len(lines) == 0 {
		return "You don't have any budgets set up yet. Create budgets to track your spending!"
	}

	now := s.now()
	days := daysInMonth(now)
	report := forecast.ScoreBudgets(lines, now.Day(), days)

	var b strings.Builder
	fmt.Fprintf(&b, "**Budget Prediction** (Day %d/%d, %d days left):\n\n", now.Day(), days, report.DaysRemaining)

	var willExceed []models.BudgetProjection
	for _, p := range report.Projections {
		if p.WillExceed {
			willExceed = append(willExceed, p)
		}
	}
	if len(willExceed) > 0 {
		b.WriteString("**Warning - Likely to Exceed:**\n\n")
		for _, p := range willExceed {
			fmt.Fprintf(&b, "%s: Spent %.2f → Predicted %.2f / Budget %.2f\n   (Will exceed by %.2f if current rate continues)\n",
				p.Category, p.SpentToDate, p.ProjectedTotal, p.Budget, p.OverAmount)
		}
		b.WriteString("\n")
	}

	b.WriteString("**All Predictions:**\n\n")
	for _, p := range report.Projections {
		state := "On track"
		if p.WillExceed {
			state = "Will exceed"
		}
		fmt.Fprintf(&b, "%s: %.2f → %.2f / %.2f (%s)\n   Daily avg: %.2f\n",
			p.Category, p.SpentToDate, p.ProjectedTotal, p.Budget, state, p.DailyAverage)
	}
	return b.String()
}

func (s *Service) renderGoals(userID int64) string {
	goals, err := s.data.ListSavingsGoals(userID)
	if err != nil {
		s.log.Errorf("Failed to fetch savings goals: %v", err)
		return "Something went wrong fetching your goals. Please try again."
	}
	if len(goals) == 0 {
		return "You don't have any savings goals set up yet. Create goals to track your savings progress!"
	}

	var b strings.Builder
	b.WriteString("**Savings Goals Status:**\n\n")
	for _, goal := range goals {
		var pct float64
		if goal.TargetAmount > 0 {
			pct = goal.CurrentAmount / goal.TargetAmount * 100
		}
		remaining := goal.TargetAmount - goal.CurrentAmount

		dateInfo := ""
		if goal.TargetDate != nil {
			daysLeft := int(time.Until(*goal.TargetDate).Hours() / 24)
			if daysLeft > 0 {
				dailyNeeded := remaining / float64(daysLeft)
				dateInfo = fmt.Sprintf(" | %d days left | Need %.2f/day", daysLeft, dailyNeeded)
			} else {
				dateInfo = " | Overdue"
			}
		}

		var state string
		switch {
		case pct >= 100:
			state = "Completed!"
		case pct >= 75:
			state = "Almost there!"
		case pct >= 50:
			state = "Halfway there"
		case pct >= 25:
			state = "Making progress"
		default:
			state = "Just started"
		}

		fmt.Fprintf(&b, "**%s**: %.2f / %.2f (%.1f%%)\n   %s | Remaining: %.2f%s\n\n",
			goal.Name, goal.CurrentAmount, goal.TargetAmount, pct, state, remaining, dateInfo)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) renderSummary(summary []models.SummaryRow) string {
	if len(summary) == 0 {
		return "No transactions recorded yet. Add your first transaction to get started!"
	}
	var b strings.Builder
	b.WriteString("**Spending Summary:**\n\n")
	for _, row := range summary {
		fmt.Fprintf(&b, "%s - %s: %.2f\n", row.Type, row.Category, row.Total)
	}
	return b.String()
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
