package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/fintrack/assistant-service/internal/models"
)

func TestAppendTurnBoundedHistory(t *testing.T) {
	conv := NewContext(1)
	for i := 0; i < 15; i++ {
		conv.AppendTurn("user", fmt.Sprintf("message %d", i), models.IntentChat, nil)
	}

	if len(conv.Turns) != DefaultMaxHistory {
		t.Fatalf("expected %d turns, got %d", DefaultMaxHistory, len(conv.Turns))
	}
	if conv.Turns[0].Content != "message 5" {
		t.Errorf("expected oldest turns evicted, first is %q", conv.Turns[0].Content)
	}
	if conv.Turns[len(conv.Turns)-1].Content != "message 14" {
		t.Errorf("expected newest turn retained, last is %q", conv.Turns[len(conv.Turns)-1].Content)
	}
}

func TestAppendTurnTracksLastIntent(t *testing.T) {
	conv := NewContext(1)

	conv.AppendTurn("user", "add 500 for food", models.IntentAddTransaction, map[string]interface{}{"amount": 500.0})
	if conv.LastIntent != models.IntentAddTransaction {
		t.Errorf("expected last intent %q, got %q", models.IntentAddTransaction, conv.LastIntent)
	}

	// Assistant turns must not overwrite the user's last intent.
	conv.AppendTurn("assistant", "Added.", "", nil)
	if conv.LastIntent != models.IntentAddTransaction {
		t.Errorf("assistant turn overwrote last intent: %q", conv.LastIntent)
	}
}

func TestHistoryLimit(t *testing.T) {
	conv := NewContext(1)
	for i := 0; i < 6; i++ {
		conv.AppendTurn("user", fmt.Sprintf("m%d", i), "", nil)
	}

	got := conv.History(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	if got[0].Content != "m3" {
		t.Errorf("expected history to start at m3, got %q", got[0].Content)
	}
	if all := conv.History(0); len(all) != 6 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}
}

func TestClearRetainsTurns(t *testing.T) {
	conv := NewContext(1)
	conv.AppendTurn("user", "show my budget", models.IntentCheckBudget, map[string]interface{}{"category": "Food"})
	conv.ContextData["pending"] = true

	conv.Clear()

	if conv.LastIntent != "" {
		t.Errorf("expected last intent cleared, got %q", conv.LastIntent)
	}
	if len(conv.LastEntities) != 0 {
		t.Errorf("expected entities cleared, got %v", conv.LastEntities)
	}
	if len(conv.ContextData) != 0 {
		t.Errorf("expected context data cleared, got %v", conv.ContextData)
	}
	if len(conv.Turns) != 1 {
		t.Errorf("expected turn log retained, got %d turns", len(conv.Turns))
	}
}

func TestExpired(t *testing.T) {
	conv := NewContext(1)
	conv.SessionStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"fresh", conv.SessionStart.Add(10 * time.Minute), false},
		{"at boundary", conv.SessionStart.Add(time.Hour), false},
		{"past boundary", conv.SessionStart.Add(time.Hour + time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := conv.Expired(tt.now, time.Hour); got != tt.want {
				t.Errorf("Expired(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestIsFollowUp(t *testing.T) {
	tests := []struct {
		name       string
		lastIntent string
		candidate  string
		want       bool
	}{
		{"no prior intent", "", models.IntentAddTransaction, false},
		{"add then summary", models.IntentAddTransaction, models.IntentGetSummary, true},
		{"add then add", models.IntentAddTransaction, models.IntentAddTransaction, true},
		{"budget then prediction", models.IntentCheckBudget, models.IntentPredictBudget, true},
		{"forecast then advice", models.IntentForecastExpense, models.IntentAdvice, true},
		{"unrelated", models.IntentGetSummary, models.IntentForecastIncome, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewContext(1)
			conv.LastIntent = tt.lastIntent
			if got := conv.IsFollowUp(tt.candidate); got != tt.want {
				t.Errorf("IsFollowUp(%q) after %q = %v, want %v", tt.candidate, tt.lastIntent, got, tt.want)
			}
		})
	}
}

func TestExtractReference(t *testing.T) {
	conv := NewContext(1)
	conv.LastIntent = models.IntentAddTransaction
	conv.LastEntities = map[string]interface{}{"category": "Food", "amount": 500.0}

	t.Run("anaphor pulls entities forward", func(t *testing.T) {
		refs := conv.ExtractReference("delete that transaction")
		if refs["category"] != "Food" {
			t.Errorf("expected category Food, got %v", refs["category"])
		}
		if refs["amount"] != 500.0 {
			t.Errorf("expected amount 500, got %v", refs["amount"])
		}
	})

	t.Run("elaboration flags expansion", func(t *testing.T) {
		refs := conv.ExtractReference("tell me more")
		if refs["expand_last"] != true {
			t.Errorf("expected expand_last, got %v", refs)
		}
		if refs["last_intent"] != models.IntentAddTransaction {
			t.Errorf("expected last intent carried, got %v", refs["last_intent"])
		}
	})

	t.Run("plain message yields nothing", func(t *testing.T) {
		if refs := conv.ExtractReference("show my budget"); len(refs) != 0 {
			t.Errorf("expected no references, got %v", refs)
		}
	})
}
