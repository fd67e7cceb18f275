package models

// BudgetLine represents one budget with its current-month spend-to-date
type BudgetLine struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	CategoryID  int64   `json:"category_id"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Period      string  `json:"period"` // "weekly" or "monthly"
	SpentToDate float64 `json:"spent_to_date"`
}

// BudgetStatus represents current utilization of a single budget line
type BudgetStatus struct {
	Category   string  `json:"category"`
	Spent      float64 `json:"spent"`
	Budget     float64 `json:"budget"`
	Percentage float64 `json:"percentage"`
	Exceeded   bool    `json:"exceeded"`
	OverAmount float64 `json:"over_amount"`
}

// BudgetProjection represents a month-end projection for a single budget line
type BudgetProjection struct {
	Category       string  `json:"category"`
	SpentToDate    float64 `json:"spent_to_date"`
	Budget         float64 `json:"budget"`
	DailyAverage   float64 `json:"daily_avg"`
	ProjectedTotal float64 `json:"projected_total"`
	RiskScore      int     `json:"risk_score"`
	WillExceed     bool    `json:"will_exceed"`
	OverAmount     float64 `json:"over_amount"`
}

// Risk levels derived from the overall risk score
const (
	RiskNone     = "none"
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// RiskReport represents the budget risk analysis for all of a user's budgets
type RiskReport struct {
	RiskScore     float64            `json:"risk_score"`
	RiskLevel     string             `json:"risk_level"`
	Projections   []BudgetProjection `json:"projections"`
	HighRisk      []BudgetProjection `json:"high_risk_categories"`
	TotalBudgets  int                `json:"total_budgets"`
	DaysRemaining int                `json:"days_remaining"`
}
