package models

// Closed intent vocabulary shared by the remote classifier and the fallback matcher
const (
	IntentAddTransaction    = "add_transaction"
	IntentUpdateTransaction = "update_transaction"
	IntentDeleteTransaction = "delete_transaction"
	IntentGetSummary        = "get_summary"
	IntentMonthlyIncome     = "get_monthly_total_income"
	IntentMonthlyExpense    = "get_monthly_total_expense"
	IntentForecastExpense   = "forecast_expense"
	IntentForecastIncome    = "forecast_income"
	IntentPredictExpense    = "predict_expense"
	IntentCheckBudget       = "check_budget"
	IntentBudgetStatus      = "budget_status"
	IntentPredictBudget     = "predict_budget"
	IntentBudgetRisk        = "budget_risk"
	IntentSavingsGoals      = "savings_goals"
	IntentSpendingInsights  = "spending_insights"
	IntentNLPQuery          = "nlp_query"
	IntentAdvice            = "advice"
	IntentChat              = "chat"
	IntentInvalidCategory   = "invalid_category"
)

// Sources a resolved intent can come from
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
	SourceNone     = "none"
)

// ResolvedIntent is the normalized outcome of intent resolution for one message
type ResolvedIntent struct {
	Intent   string                 `json:"intent"`
	Entities map[string]interface{} `json:"entities,omitempty"`
	Source   string                 `json:"source"`
	Message  string                 `json:"message,omitempty"`
}
