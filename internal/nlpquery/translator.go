// Package nlpquery translates natural-language questions into guarded SQL
// SELECT queries and executes them against the account database.
package nlpquery

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/integrations/llm"
)

// schemaInfo describes the queryable tables for the translation prompt.
const schemaInfo = `Database Schema:

1. finance.transactions:
   - id (BIGINT, PRIMARY KEY)
   - user_id (BIGINT)
   - category_id (BIGINT)
   - amount (NUMERIC)
   - type (TEXT: 'income' or 'expense')
   - description (TEXT)
   - date (TIMESTAMP)
   - created_at (TIMESTAMP)

2. finance.categories:
   - id (BIGINT, PRIMARY KEY)
   - user_id (BIGINT)
   - name (TEXT)
   - type (TEXT: 'income' or 'expense')

3. finance.budgets:
   - id (BIGINT, PRIMARY KEY)
   - user_id (BIGINT)
   - category_id (BIGINT)
   - amount (NUMERIC)
   - period (TEXT: 'weekly' or 'monthly')

4. finance.savings_goals:
   - id (BIGINT, PRIMARY KEY)
   - user_id (BIGINT)
   - name (TEXT)
   - target_amount (NUMERIC)
   - current_amount (NUMERIC)
   - target_date (DATE)`

// mutatingKeywords are never allowed in a generated query, whatever the
// translator claims about its safety.
var mutatingKeywords = regexp.MustCompile(`\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|EXEC)\b`)

// Plan is the typed translation contract. Safe=false means the plan must
// not be executed and Explanation carries the translator's verdict.
type Plan struct {
	SQL         string   `json:"sql"`
	Explanation string   `json:"explanation"`
	Columns     []string `json:"columns"`
	Safe        bool     `json:"safe"`
}

// Completer produces a raw LLM completion for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Translator converts natural language into guarded SQL plans
type Translator struct {
	llm Completer
	log *logrus.Logger
}

// NewTranslator initializes a translator
func NewTranslator(completer Completer, log *logrus.Logger) *Translator {
	return &Translator{llm: completer, log: log}
}

// Translate asks the model for a query plan and applies the deny-list gate.
// A failed call or malformed payload yields an unsafe plan, never an error.
func (t *Translator) Translate(ctx context.Context, query string, userID int64) Plan {
	prompt := buildTranslationPrompt(query, userID)

	content, err := t.llm.Complete(ctx, prompt, 0.3)
	if err != nil {
		t.log.Warnf("Query translation unavailable: %v", err)
		return Plan{Safe: false, Explanation: fmt.Sprintf("Error generating query: %v", err)}
	}

	var plan Plan
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &plan); err != nil {
		t.log.Warnf("Failed to parse query plan: %v", err)
		return Plan{Safe: false, Explanation: "Query could not be generated safely"}
	}

	if mutatingKeywords.MatchString(strings.ToUpper(plan.SQL)) {
		plan.Safe = false
		plan.Explanation = "Query contains potentially dangerous operations"
	}
	return plan
}

func buildTranslationPrompt(query string, userID int64) string {
	return fmt.Sprintf(`You are a SQL expert. Convert the following natural language query into a safe SQL SELECT query.

%s

Important rules:
1. ALWAYS include WHERE user_id = %d to filter by the current user
2. Only generate SELECT queries (no INSERT, UPDATE, DELETE, DROP)
3. Use proper JOINs when querying multiple tables
4. Use aggregate functions (SUM, AVG, COUNT) when appropriate
5. Format dates properly using EXTRACT or DATE functions
6. Return results in a user-friendly order (ORDER BY)
7. Limit results to reasonable amounts (LIMIT 100)

User query: "%s"

Return a JSON object with:
{
    "sql": "the SQL query",
    "explanation": "brief explanation of what the query does",
    "columns": ["list", "of", "column", "names"],
    "safe": true/false (whether the query is safe to execute)
}

If the query cannot be safely converted or is ambiguous, set "safe" to false and explain why in "explanation".`,
		schemaInfo, userID, query)
}
