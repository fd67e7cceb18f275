package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fintrack/assistant-service/internal/models"
)

var amountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// fallbackRule pairs a keyword predicate with an entity extractor. Rules are
// evaluated in order and the first extractor that produces an intent wins;
// an extractor may return nil to pass the message to the next rule.
type fallbackRule struct {
	name     string
	keywords []string
	extract  func(text, lower string, categories []models.Category) *models.ResolvedIntent
}

// fallbackRules is the deterministic intent matcher used when the remote
// classifier is unavailable. Order defines priority.
var fallbackRules = []fallbackRule{
	{
		name:     "update",
		keywords: []string{"update", "change", "modify", "edit"},
		extract:  extractUpdate,
	},
	{
		name:     "delete",
		keywords: []string{"delete", "remove", "cancel"},
		extract:  extractDelete,
	},
	{
		name:     "add",
		keywords: []string{"add", "spent", "paid", "bought", "transaction"},
		extract:  extractAdd,
	},
	{
		name:     "summary",
		keywords: []string{"summary", "total", "spent", "expenses"},
		extract:  extractSummary,
	},
	{
		name:     "budget",
		keywords: []string{"budget"},
		extract:  extractBudget,
	},
	{
		name:     "forecast",
		keywords: []string{"forecast", "predict", "next month"},
		extract:  extractForecast,
	},
}

// FallbackIntent scans the message against the rule table and returns the
// first matching intent, or nil when no rule applies.
func FallbackIntent(text string, categories []models.Category) *models.ResolvedIntent {
	lower := strings.ToLower(text)
	for _, rule := range fallbackRules {
		if !containsAny(lower, rule.keywords) {
			continue
		}
		if resolved := rule.extract(text, lower, categories); resolved != nil {
			resolved.Source = models.SourceFallback
			return resolved
		}
	}
	return nil
}

func extractUpdate(text, lower string, categories []models.Category) *models.ResolvedIntent {
	amounts := extractAmounts(text)
	matched := matchCategorySubstring(lower, categories)

	switch {
	case len(amounts) >= 2:
		entities := map[string]interface{}{
			"old_amount": amounts[0],
			"new_amount": amounts[1],
		}
		if matched != nil {
			entities["category"] = matched.Name
		}
		return &models.ResolvedIntent{Intent: models.IntentUpdateTransaction, Entities: entities}
	case len(amounts) == 1:
		return &models.ResolvedIntent{
			Intent:  models.IntentChat,
			Message: "To update a transaction, please specify both the old and new amounts.\n\nExample: 'Update my food expense from 1200 to 500'",
		}
	default:
		return nil
	}
}

func extractDelete(text, lower string, categories []models.Category) *models.ResolvedIntent {
	entities := map[string]interface{}{}
	if amounts := extractAmounts(text); len(amounts) > 0 {
		entities["amount"] = amounts[0]
	}
	if matched := matchCategorySubstring(lower, categories); matched != nil {
		entities["category"] = matched.Name
	}
	return &models.ResolvedIntent{Intent: models.IntentDeleteTransaction, Entities: entities}
}

func extractAdd(text, lower string, categories []models.Category) *models.ResolvedIntent {
	amounts := extractAmounts(text)
	matched := matchCategorySubstring(lower, categories)

	switch {
	case len(amounts) > 0 && matched != nil:
		return &models.ResolvedIntent{
			Intent: models.IntentAddTransaction,
			Entities: map[string]interface{}{
				"transaction": true,
				"amount":      amounts[0],
				"category":    matched.Name,
				"description": text,
				"type":        matched.Type,
			},
		}
	case matched != nil:
		return &models.ResolvedIntent{
			Intent: models.IntentChat,
			Message: fmt.Sprintf(
				"I see you want to add a transaction for '%s'. Please specify the amount.\n\nExample: 'Add 500 for %s'",
				matched.Name, matched.Name),
		}
	case len(amounts) > 0:
		return &models.ResolvedIntent{
			Intent: models.IntentChat,
			Message: fmt.Sprintf(
				"I see you want to add %.2f. Please specify the category.\n\nAvailable categories: %s",
				amounts[0], categoryNames(categories)),
		}
	default:
		return nil
	}
}

func extractSummary(text, lower string, categories []models.Category) *models.ResolvedIntent {
	switch {
	case strings.Contains(lower, "income"):
		return &models.ResolvedIntent{Intent: models.IntentMonthlyIncome}
	case strings.Contains(lower, "expense") || strings.Contains(lower, "spent"):
		return &models.ResolvedIntent{Intent: models.IntentMonthlyExpense}
	default:
		return &models.ResolvedIntent{Intent: models.IntentGetSummary, Message: "Here is your financial summary."}
	}
}

func extractBudget(text, lower string, categories []models.Category) *models.ResolvedIntent {
	if containsAny(lower, []string{"will", "exceed", "predict", "future"}) {
		return &models.ResolvedIntent{Intent: models.IntentPredictBudget}
	}
	return &models.ResolvedIntent{Intent: models.IntentCheckBudget}
}

func extractForecast(text, lower string, categories []models.Category) *models.ResolvedIntent {
	if strings.Contains(lower, "income") {
		return &models.ResolvedIntent{Intent: models.IntentForecastIncome}
	}
	return &models.ResolvedIntent{Intent: models.IntentForecastExpense}
}

func extractAmounts(text string) []float64 {
	var amounts []float64
	for _, m := range amountPattern.FindAllString(text, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			amounts = append(amounts, v)
		}
	}
	return amounts
}

// matchCategorySubstring returns the first category whose name appears in
// the lower-cased message.
func matchCategorySubstring(lower string, categories []models.Category) *models.Category {
	for i, cat := range categories {
		if strings.Contains(lower, strings.ToLower(cat.Name)) {
			return &categories[i]
		}
	}
	return nil
}

func categoryNames(categories []models.Category) string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
