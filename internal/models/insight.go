package models

// Insight trend tags
const (
	TrendUp   = "up"
	TrendDown = "down"
)

// Insight represents a significant deviation of current-month category spend
// from its historical monthly average
type Insight struct {
	Category  string  `json:"category"`
	Current   float64 `json:"current"`
	Average   float64 `json:"average"`
	ChangePct float64 `json:"change_pct"`
	Trend     string  `json:"trend"`
}
