package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/integrations/llm"
	"github.com/fintrack/assistant-service/internal/models"
)

// Classifier is the remote intent-classification capability. It is
// best-effort: a failed or malformed classification is a normal outcome.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (*llm.Classification, error)
}

// Snapshot is the read-only account data the resolver needs for prompt
// building and validation.
type Snapshot struct {
	Categories []models.Category
	Summary    []models.SummaryRow
	Monthly    map[string]float64
}

// Resolver turns raw user text into a ResolvedIntent: remote classification
// first, deterministic pattern matching as fallback, one validation gate for
// both.
type Resolver struct {
	classifier Classifier
	log        *logrus.Logger
}

// NewResolver initializes a resolver. classifier may be nil, in which case
// only the fallback stage runs.
func NewResolver(classifier Classifier, log *logrus.Logger) *Resolver {
	return &Resolver{classifier: classifier, log: log}
}

// Resolve classifies one user message. The resolved user turn is appended to
// conv before returning, whatever the outcome.
func (r *Resolver) Resolve(ctx context.Context, text string, snap Snapshot, conv *Context) models.ResolvedIntent {
	refs := conv.ExtractReference(text)

	resolved := r.remoteStage(ctx, text, snap, conv)
	if resolved == nil {
		resolved = FallbackIntent(text, snap.Categories)
	}
	if resolved == nil {
		resolved = &models.ResolvedIntent{
			Intent: models.IntentChat,
			Source: models.SourceNone,
			Message: "Sorry, I couldn't understand that. Try asking about your spending, budgets, or forecasts.\n\n" +
				"**Examples:**\n• Add 500 for food\n• Show my budget status\n• Forecast next month expenses\n• Show transactions over 1000",
		}
	}

	r.applyReferences(resolved, refs)
	r.validate(resolved, snap.Categories)

	conv.AppendTurn("user", text, resolved.Intent, resolved.Entities)
	return *resolved
}

// remoteStage runs the single best-effort classifier attempt. Every failure
// mode collapses into one "classification unavailable" outcome.
func (r *Resolver) remoteStage(ctx context.Context, text string, snap Snapshot, conv *Context) *models.ResolvedIntent {
	if r.classifier == nil {
		return nil
	}

	result, err := r.classifier.Classify(ctx, BuildPrompt(text, snap, conv))
	if err != nil {
		r.log.Warnf("Remote classification unavailable, using fallback: %v", err)
		return nil
	}

	entities := map[string]interface{}{}
	if result.Transaction {
		entities["transaction"] = true
	}
	if result.Amount > 0 {
		entities["amount"] = result.Amount
	}
	if result.OldAmount > 0 {
		entities["old_amount"] = result.OldAmount
	}
	if result.NewAmount > 0 {
		entities["new_amount"] = result.NewAmount
	}
	if result.Category != "" {
		entities["category"] = result.Category
	}
	if result.Description != "" {
		entities["description"] = result.Description
	}
	if result.Type != "" {
		entities["type"] = result.Type
	}

	return &models.ResolvedIntent{
		Intent:   result.Intent,
		Entities: entities,
		Source:   models.SourceRemote,
		Message:  result.Message,
	}
}

// applyReferences fills missing transaction entities from anaphoric
// references to the previous turn ("add the same amount for that category").
func (r *Resolver) applyReferences(resolved *models.ResolvedIntent, refs map[string]interface{}) {
	if resolved.Intent != models.IntentAddTransaction && resolved.Intent != models.IntentDeleteTransaction {
		return
	}
	if resolved.Entities == nil {
		resolved.Entities = map[string]interface{}{}
	}
	if _, ok := resolved.Entities["category"]; !ok {
		if v, ok := refs["category"]; ok {
			resolved.Entities["category"] = v
		}
	}
	if _, ok := resolved.Entities["amount"]; !ok {
		if v, ok := refs["amount"]; ok {
			resolved.Entities["amount"] = v
		}
	}
}

// validate applies the uniform gate: a transaction-creating intent needs a
// positive amount and a category matching an existing category of the right
// type. Anything less downgrades to a clarifying chat response.
func (r *Resolver) validate(resolved *models.ResolvedIntent, categories []models.Category) {
	switch resolved.Intent {
	case models.IntentAddTransaction:
		amount := entityAmount(resolved.Entities, "amount")
		if amount <= 0 {
			resolved.Intent = models.IntentChat
			resolved.Message = "Please specify a valid amount for the transaction.\n\nExample: 'Add 500 for food'"
			return
		}

		name, _ := resolved.Entities["category"].(string)
		if name == "" {
			resolved.Intent = models.IntentChat
			resolved.Message = fmt.Sprintf("Please specify a category.\n\nAvailable categories: %s", categoryNames(categories))
			return
		}

		txType, _ := resolved.Entities["type"].(string)
		if txType == "" {
			txType = models.TypeExpense
			resolved.Entities["type"] = txType
		}
		matched := MatchCategory(name, txType, categories)
		if matched == nil {
			resolved.Intent = models.IntentInvalidCategory
			resolved.Message = fmt.Sprintf(
				"I couldn't match '%s' to any known %s category. Please use one of these: %s",
				name, txType, categoryNames(categories))
			return
		}
		resolved.Entities["category"] = matched.Name

	case models.IntentUpdateTransaction:
		if entityAmount(resolved.Entities, "new_amount") <= 0 {
			resolved.Intent = models.IntentChat
			resolved.Message = "Please specify the new amount.\n\nExample: 'Update my food expense from 1200 to 500'"
		}
	}
}

// MatchCategory finds a category by case-insensitive name and type
func MatchCategory(name, txType string, categories []models.Category) *models.Category {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, c := range categories {
		if c.Type == txType && strings.ToLower(strings.TrimSpace(c.Name)) == name {
			return &categories[i]
		}
	}
	return nil
}

func entityAmount(entities map[string]interface{}, key string) float64 {
	if entities == nil {
		return 0
	}
	switch v := entities[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}
