package models

// Forecast methods
const (
	MethodNoData   = "no_data"
	MethodAverage  = "average"
	MethodEnsemble = "ensemble"
	MethodSMA      = "sma"
	MethodEMA      = "ema"
	MethodLinear   = "linear"
	MethodSeasonal = "seasonal"
)

// Forecast confidence labels
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// ForecastResult represents a single forecast with its confidence
type ForecastResult struct {
	Value      float64   `json:"forecast"`
	Method     string    `json:"method"`
	Confidence string    `json:"confidence"`
	Mean       float64   `json:"mean,omitempty"`
	Variance   float64   `json:"variance,omitempty"`
	Historical []float64 `json:"historical_data,omitempty"`
	Message    string    `json:"message,omitempty"`
}
