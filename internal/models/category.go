package models

// Transaction type values used across categories and transactions
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Category represents a user-defined income or expense category
type Category struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Type   string `json:"type"` // "income" or "expense"
}
