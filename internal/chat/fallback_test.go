package chat

import (
	"strings"
	"testing"

	"github.com/fintrack/assistant-service/internal/models"
)

var testCategories = []models.Category{
	{ID: 1, Name: "Food", Type: models.TypeExpense},
	{ID: 2, Name: "Transport", Type: models.TypeExpense},
	{ID: 3, Name: "Salary", Type: models.TypeIncome},
}

func TestFallbackIntentAdd(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantIntent string
		wantAmount float64
		wantCat    string
	}{
		{"amount and category", "I spent 500 on food", models.IntentAddTransaction, 500, "Food"},
		{"decimal amount", "add 49.99 for transport", models.IntentAddTransaction, 49.99, "Transport"},
		{"income category", "add 30000 salary", models.IntentAddTransaction, 30000, "Salary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackIntent(tt.text, testCategories)
			if got == nil {
				t.Fatal("expected a resolved intent")
			}
			if got.Intent != tt.wantIntent {
				t.Errorf("intent = %q, want %q", got.Intent, tt.wantIntent)
			}
			if got.Source != models.SourceFallback {
				t.Errorf("source = %q, want %q", got.Source, models.SourceFallback)
			}
			if got.Entities["amount"] != tt.wantAmount {
				t.Errorf("amount = %v, want %v", got.Entities["amount"], tt.wantAmount)
			}
			if got.Entities["category"] != tt.wantCat {
				t.Errorf("category = %v, want %v", got.Entities["category"], tt.wantCat)
			}
		})
	}
}

func TestFallbackIntentAddClarifications(t *testing.T) {
	t.Run("missing amount", func(t *testing.T) {
		got := FallbackIntent("add a food expense", testCategories)
		if got == nil || got.Intent != models.IntentChat {
			t.Fatalf("expected clarifying chat intent, got %+v", got)
		}
		if !strings.Contains(got.Message, "amount") {
			t.Errorf("message should ask for the amount: %q", got.Message)
		}
	})
	t.Run("missing category", func(t *testing.T) {
		got := FallbackIntent("add 500", testCategories)
		if got == nil || got.Intent != models.IntentChat {
			t.Fatalf("expected clarifying chat intent, got %+v", got)
		}
		if !strings.Contains(got.Message, "Food") {
			t.Errorf("message should list categories: %q", got.Message)
		}
	})
}

func TestFallbackIntentUpdate(t *testing.T) {
	t.Run("two amounts", func(t *testing.T) {
		got := FallbackIntent("update my food expense from 1200 to 500", testCategories)
		if got == nil || got.Intent != models.IntentUpdateTransaction {
			t.Fatalf("expected update intent, got %+v", got)
		}
		if got.Entities["old_amount"] != 1200.0 || got.Entities["new_amount"] != 500.0 {
			t.Errorf("unexpected amounts: %v", got.Entities)
		}
		if got.Entities["category"] != "Food" {
			t.Errorf("category = %v, want Food", got.Entities["category"])
		}
	})
	t.Run("single amount asks for both", func(t *testing.T) {
		got := FallbackIntent("change my expense to 500", testCategories)
		if got == nil || got.Intent != models.IntentChat {
			t.Fatalf("expected clarifying chat intent, got %+v", got)
		}
	})
}

func TestFallbackIntentDelete(t *testing.T) {
	got := FallbackIntent("delete the 500 transaction", testCategories)
	if got == nil || got.Intent != models.IntentDeleteTransaction {
		t.Fatalf("expected delete intent, got %+v", got)
	}
	if got.Entities["amount"] != 500.0 {
		t.Errorf("amount = %v, want 500", got.Entities["amount"])
	}
	if _, ok := got.Entities["category"]; ok {
		t.Errorf("no category mentioned, got %v", got.Entities["category"])
	}
}

func TestFallbackIntentPriority(t *testing.T) {
	// "update" outranks "add" even when both keyword sets match.
	got := FallbackIntent("update the transaction from 100 to 200", testCategories)
	if got == nil || got.Intent != models.IntentUpdateTransaction {
		t.Fatalf("expected update to win, got %+v", got)
	}
}

func TestFallbackIntentSummaryAndTotals(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"what's my total income this month", models.IntentMonthlyIncome},
		{"how much have I spent", models.IntentMonthlyExpense},
		{"show me a summary", models.IntentGetSummary},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := FallbackIntent(tt.text, testCategories)
			if got == nil || got.Intent != tt.want {
				t.Fatalf("FallbackIntent(%q) = %+v, want intent %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFallbackIntentBudgetAndForecast(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"show my budget status", models.IntentCheckBudget},
		{"will I exceed my budget", models.IntentPredictBudget},
		{"forecast my food costs", models.IntentForecastExpense},
		{"forecast my income", models.IntentForecastIncome},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := FallbackIntent(tt.text, testCategories)
			if got == nil || got.Intent != tt.want {
				t.Fatalf("FallbackIntent(%q) = %+v, want intent %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFallbackIntentNoMatch(t *testing.T) {
	if got := FallbackIntent("hello there", testCategories); got != nil {
		t.Errorf("expected nil for unmatched text, got %+v", got)
	}
}

func TestExtractAmounts(t *testing.T) {
	tests := []struct {
		text string
		want []float64
	}{
		{"add 500 for food", []float64{500}},
		{"from 1200.50 to 500", []float64{1200.50, 500}},
		{"no numbers here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := extractAmounts(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("extractAmounts(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("amount[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
