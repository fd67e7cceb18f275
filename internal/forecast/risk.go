package forecast

import "github.com/fintrack/assistant-service/internal/models"

// highRiskThreshold is the per-line score at or above which a budget is
// surfaced as high risk.
const highRiskThreshold = 60

// ScoreBudgets projects each budget line's spend-to-date to month end at the
// current daily run-rate and derives a 0-100 risk score per line plus an
// overall report. Lines with a zero budget are skipped; currentDay of 0
// yields a zero daily average instead of dividing by zero.
func ScoreBudgets(lines []models.BudgetLine, currentDay, daysInMonth int) models.RiskReport {
	daysRemaining := daysInMonth - currentDay

	report := models.RiskReport{
		RiskLevel:     models.RiskNone,
		TotalBudgets:  len(lines),
		DaysRemaining: daysRemaining,
	}
	if len(lines) == 0 {
		return report
	}

	var scoreSum int
	var scored int

	for _, line := range lines {
		if line.Amount == 0 {
			continue
		}

		var dailyAvg float64
		if currentDay > 0 {
			dailyAvg = line.SpentToDate / float64(currentDay)
		}
		projected := line.SpentToDate + dailyAvg*float64(daysRemaining)
		utilization := projected / line.Amount * 100

		score := riskScore(utilization)
		scoreSum += score
		scored++

		projection := models.BudgetProjection{
			Category:       line.Category,
			SpentToDate:    line.SpentToDate,
			Budget:         line.Amount,
			DailyAverage:   dailyAvg,
			ProjectedTotal: projected,
			RiskScore:      score,
			WillExceed:     projected > line.Amount,
		}
		if projection.WillExceed {
			projection.OverAmount = projected - line.Amount
		}

		report.Projections = append(report.Projections, projection)
		if score >= highRiskThreshold {
			report.HighRisk = append(report.HighRisk, projection)
		}
	}

	if scored > 0 {
		report.RiskScore = float64(scoreSum) / float64(scored)
	}
	report.RiskLevel = riskLevel(report.RiskScore)
	return report
}

// riskScore is a step function of projected budget utilization percentage.
func riskScore(projectedUtilization float64) int {
	switch {
	case projectedUtilization > 120:
		return 100
	case projectedUtilization > 100:
		return 80
	case projectedUtilization > 90:
		return 60
	case projectedUtilization > 80:
		return 40
	default:
		return 20
	}
}

func riskLevel(score float64) string {
	switch {
	case score >= 80:
		return models.RiskCritical
	case score >= 60:
		return models.RiskHigh
	case score >= 40:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
