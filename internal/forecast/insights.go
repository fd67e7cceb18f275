package forecast

import (
	"sort"

	"github.com/fintrack/assistant-service/internal/models"
)

const (
	// materialityPct is the minimum absolute percent change before a
	// spending deviation is reported.
	materialityPct = 20
	// insightCategoryCap bounds the analysis to the top spending categories.
	insightCategoryCap = 5
)

// DetectInsights compares current-month spend per category against its
// historical monthly average and reports material deviations. Only the top
// five categories by current spend are considered, and categories without a
// positive historical average are skipped.
func DetectInsights(current map[string]float64, historicalAvg map[string]float64) []models.Insight {
	categories := make([]string, 0, len(current))
	for name := range current {
		categories = append(categories, name)
	}
	sort.Slice(categories, func(i, j int) bool {
		if current[categories[i]] != current[categories[j]] {
			return current[categories[i]] > current[categories[j]]
		}
		return categories[i] < categories[j]
	})
	if len(categories) > insightCategoryCap {
		categories = categories[:insightCategoryCap]
	}

	var insights []models.Insight
	for _, name := range categories {
		avg := historicalAvg[name]
		if avg <= 0 {
			continue
		}

		total := current[name]
		changePct := (total - avg) / avg * 100
		if changePct <= materialityPct && changePct >= -materialityPct {
			continue
		}

		trend := models.TrendDown
		if changePct > 0 {
			trend = models.TrendUp
		}
		insights = append(insights, models.Insight{
			Category:  name,
			Current:   total,
			Average:   avg,
			ChangePct: changePct,
			Trend:     trend,
		})
	}
	return insights
}
