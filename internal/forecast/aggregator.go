package forecast

import (
	"fmt"
	"math"

	"github.com/fintrack/assistant-service/internal/models"
)

const (
	smaWindow         = 3
	emaAlpha          = 0.3
	seasonalMinLen    = 6
	seasonalMaxPeriod = 12
)

// Forecast computes a next-month forecast for the series using the requested
// method ("auto", "sma", "ema", "linear" or "seasonal"). Auto mode averages
// every estimator it was able to run. Confidence derives from the coefficient
// of variation of the input series.
func Forecast(series []float64, method string) models.ForecastResult {
	if len(series) == 0 {
		return models.ForecastResult{
			Value:      0,
			Method:     models.MethodNoData,
			Confidence: models.ConfidenceLow,
			Message:    "No historical data available.",
		}
	}

	if len(series) < 3 {
		avg := mean(series)
		return models.ForecastResult{
			Value:      avg,
			Method:     models.MethodAverage,
			Confidence: models.ConfidenceLow,
			Historical: series,
			Mean:       avg,
			Variance:   variance(series),
			Message:    fmt.Sprintf("Limited data. Using average: %.2f", avg),
		}
	}

	estimates := map[string]float64{}

	if method == "auto" || method == models.MethodSMA {
		estimates[models.MethodSMA] = MovingAverage(series, smaWindow)
	}
	if method == "auto" || method == models.MethodEMA {
		estimates[models.MethodEMA] = ExponentialSmoothing(series, emaAlpha)
	}
	if method == "auto" || method == models.MethodLinear {
		estimates[models.MethodLinear] = LinearTrendForecast(series, 1)
	}
	if (method == "auto" || method == models.MethodSeasonal) && len(series) >= seasonalMinLen {
		period := seasonalMaxPeriod
		if len(series) < period {
			period = len(series)
		}
		estimates[models.MethodSeasonal] = SeasonalDecomposition(series, period).Forecast
	}

	var value float64
	used := method
	if method == "auto" {
		for _, v := range estimates {
			value += v
		}
		value /= float64(len(estimates))
		used = models.MethodEnsemble
	} else {
		v, ok := estimates[method]
		if !ok {
			// Named estimator could not run (e.g. seasonal with a short
			// series); fall back to the moving average.
			v = MovingAverage(series, smaWindow)
			used = models.MethodSMA
		}
		value = v
	}

	m := mean(series)
	vr := variance(series)

	return models.ForecastResult{
		Value:      value,
		Method:     used,
		Confidence: confidence(m, vr),
		Historical: series,
		Mean:       m,
		Variance:   vr,
	}
}

// confidence buckets the coefficient of variation (stddev/mean). A zero or
// negative mean with monetary data means the series is degenerate, so it is
// reported as low rather than treated as perfectly stable.
func confidence(mean, variance float64) string {
	if mean <= 0 {
		return models.ConfidenceLow
	}
	cv := math.Sqrt(variance) / mean
	switch {
	case cv < 0.2:
		return models.ConfidenceHigh
	case cv < 0.5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
