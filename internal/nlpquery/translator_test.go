package nlpquery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type stubCompleter struct {
	content string
	err     error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return s.content, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestTranslateSafePlan(t *testing.T) {
	tr := NewTranslator(&stubCompleter{content: `{
		"sql": "SELECT c.name, SUM(t.amount) AS total FROM finance.transactions t JOIN finance.categories c ON c.id = t.category_id WHERE t.user_id = 1 GROUP BY c.name ORDER BY total DESC LIMIT 100",
		"explanation": "Total spending per category",
		"columns": ["name", "total"],
		"safe": true
	}`}, quietLogger())

	plan := tr.Translate(context.Background(), "spending per category", 1)

	if !plan.Safe {
		t.Fatalf("expected safe plan, got %+v", plan)
	}
	if !strings.Contains(plan.SQL, "WHERE t.user_id = 1") {
		t.Errorf("expected user filter in SQL: %s", plan.SQL)
	}
	if len(plan.Columns) != 2 {
		t.Errorf("columns = %v", plan.Columns)
	}
}

func TestTranslateFencedJSON(t *testing.T) {
	tr := NewTranslator(&stubCompleter{content: "```json\n" +
		`{"sql": "SELECT amount FROM finance.transactions WHERE user_id = 1", "explanation": "ok", "safe": true}` +
		"\n```"}, quietLogger())

	plan := tr.Translate(context.Background(), "my transactions", 1)
	if !plan.Safe {
		t.Fatalf("expected fenced JSON to parse, got %+v", plan)
	}
}

func TestTranslateDenyList(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		safe bool
	}{
		{"delete", "DELETE FROM finance.transactions WHERE user_id = 1", false},
		{"lowercase drop", "drop table finance.transactions", false},
		{"embedded update", "SELECT 1; UPDATE finance.budgets SET amount = 0", false},
		// CREATED_AT must not trip the CREATE keyword.
		{"created_at column", "SELECT created_at FROM finance.transactions WHERE user_id = 1", true},
		{"plain select", "SELECT amount FROM finance.transactions WHERE user_id = 1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTranslator(&stubCompleter{
				content: `{"sql": ` + quoteJSON(tt.sql) + `, "explanation": "x", "safe": true}`,
			}, quietLogger())
			plan := tr.Translate(context.Background(), "q", 1)
			if plan.Safe != tt.safe {
				t.Errorf("Safe = %v for %q, want %v", plan.Safe, tt.sql, tt.safe)
			}
		})
	}
}

func TestTranslateUnsafeVerdictPreserved(t *testing.T) {
	tr := NewTranslator(&stubCompleter{
		content: `{"sql": "", "explanation": "Question is ambiguous", "safe": false}`,
	}, quietLogger())

	plan := tr.Translate(context.Background(), "do something", 1)
	if plan.Safe {
		t.Fatal("expected unsafe plan")
	}
	if plan.Explanation != "Question is ambiguous" {
		t.Errorf("explanation = %q", plan.Explanation)
	}
}

func TestTranslateCompleterError(t *testing.T) {
	tr := NewTranslator(&stubCompleter{err: errors.New("upstream down")}, quietLogger())

	plan := tr.Translate(context.Background(), "q", 1)
	if plan.Safe {
		t.Fatal("expected unsafe plan on completion error")
	}
	if plan.Explanation == "" {
		t.Error("expected an explanation")
	}
}

func TestTranslateMalformedJSON(t *testing.T) {
	tr := NewTranslator(&stubCompleter{content: "here is your query: SELECT 1"}, quietLogger())

	plan := tr.Translate(context.Background(), "q", 1)
	if plan.Safe {
		t.Fatal("expected unsafe plan on malformed payload")
	}
}

func quoteJSON(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
