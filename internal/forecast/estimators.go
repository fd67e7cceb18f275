// Package forecast implements the numerical estimators behind expense and
// income forecasting, budget risk scoring, and spending insights.
package forecast

// MovingAverage returns the mean of the last window points. A series shorter
// than the window averages all available points; an empty series returns 0.
func MovingAverage(series []float64, window int) float64 {
	if len(series) == 0 {
		return 0
	}
	if window <= 0 || len(series) < window {
		return mean(series)
	}
	return mean(series[len(series)-window:])
}

// ExponentialSmoothing returns the final smoothed value of the series, seeded
// with the first point: s1 = x1, s_t = alpha*x_t + (1-alpha)*s_{t-1}.
func ExponentialSmoothing(series []float64, alpha float64) float64 {
	if len(series) == 0 {
		return 0
	}
	smoothed := series[0]
	for _, v := range series[1:] {
		smoothed = alpha*v + (1-alpha)*smoothed
	}
	return smoothed
}

// LinearTrendForecast fits an ordinary least-squares line against the 0-based
// time index and extrapolates periodsAhead periods past the end of the series.
// Negative extrapolations are floored at 0.
func LinearTrendForecast(series []float64, periodsAhead int) float64 {
	if len(series) == 0 {
		return 0
	}
	if len(series) < 2 {
		return series[0]
	}

	n := len(series)
	xMean := float64(n-1) / 2
	yMean := mean(series)

	var numerator, denominator float64
	for i, y := range series {
		dx := float64(i) - xMean
		numerator += dx * (y - yMean)
		denominator += dx * dx
	}
	if denominator == 0 {
		return yMean
	}

	slope := numerator / denominator
	intercept := yMean - slope*xMean

	value := intercept + slope*float64(n+periodsAhead-1)
	if value < 0 {
		return 0
	}
	return value
}

// Decomposition holds the trend and seasonal components of a seasonal forecast.
type Decomposition struct {
	Trend    float64
	Seasonal float64
	Forecast float64
}

// SeasonalDecomposition splits the series into a moving-average trend and the
// average of the last period detrended residuals. A series shorter than two
// full periods degrades to a plain moving average with no seasonal component.
func SeasonalDecomposition(series []float64, period int) Decomposition {
	if period <= 0 || len(series) < period*2 {
		avg := MovingAverage(series, 0)
		return Decomposition{Trend: avg, Seasonal: 0, Forecast: avg}
	}

	trend := MovingAverage(series, period)

	var seasonal float64
	for _, v := range series[len(series)-period:] {
		seasonal += v - trend
	}
	seasonal /= float64(period)

	value := trend + seasonal
	if value < 0 {
		value = 0
	}
	return Decomposition{Trend: trend, Seasonal: seasonal, Forecast: value}
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func variance(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	m := mean(series)
	var sum float64
	for _, v := range series {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(series))
}
