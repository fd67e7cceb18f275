package models

import "time"

// Transaction represents a financial transaction
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	CategoryID  int64     `json:"category_id"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SummaryRow is one line of the all-history spend summary grouped by type and category
type SummaryRow struct {
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}
