package nlpquery

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// displayRowCap limits how many result rows are rendered in a chat reply.
const displayRowCap = 10

// Result is the outcome of one natural-language query
type Result struct {
	Success     bool                     `json:"success"`
	Data        []map[string]interface{} `json:"data,omitempty"`
	Query       string                   `json:"query,omitempty"`
	Explanation string                   `json:"explanation,omitempty"`
	RowCount    int                      `json:"row_count"`
	Error       string                   `json:"error,omitempty"`
}

// Service translates and executes natural-language queries
type Service struct {
	translator *Translator
	db         *sql.DB
	log        *logrus.Logger
}

// NewService initializes the query service
func NewService(translator *Translator, db *sql.DB, log *logrus.Logger) *Service {
	return &Service{translator: translator, db: db, log: log}
}

// Execute translates the question and, when the plan is safe, runs it.
// Unsafe verdicts are surfaced to the caller untouched.
func (s *Service) Execute(ctx context.Context, query string, userID int64) Result {
	plan := s.translator.Translate(ctx, query, userID)
	if !plan.Safe {
		explanation := plan.Explanation
		if explanation == "" {
			explanation = "Query could not be generated safely"
		}
		return Result{Success: false, Error: explanation}
	}

	rows, err := s.db.QueryContext(ctx, plan.SQL)
	if err != nil {
		s.log.Warnf("Generated query failed: %v", err)
		return Result{Success: false, Error: fmt.Sprintf("Query execution error: %v", err), Query: plan.SQL}
	}
	defer rows.Close()

	columns := plan.Columns
	if len(columns) == 0 {
		if columns, err = rows.Columns(); err != nil {
			return Result{Success: false, Error: fmt.Sprintf("Query execution error: %v", err), Query: plan.SQL}
		}
	}

	var data []map[string]interface{}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return Result{Success: false, Error: fmt.Sprintf("Query execution error: %v", err), Query: plan.SQL}
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("Query execution error: %v", err), Query: plan.SQL}
	}

	return Result{
		Success:     true,
		Data:        data,
		Query:       plan.SQL,
		Explanation: plan.Explanation,
		RowCount:    len(data),
	}
}

// Run executes the query and renders the result for a chat reply. It
// satisfies the chat service's QueryRunner contract.
func (s *Service) Run(ctx context.Context, query string, userID int64) string {
	result := s.Execute(ctx, query, userID)
	formatted := FormatResults(result)
	if !result.Success {
		var b strings.Builder
		b.WriteString(formatted)
		b.WriteString("\n\n**Suggested queries:**\n")
		for _, suggestion := range SuggestedQueries()[:5] {
			fmt.Fprintf(&b, "• %s\n", suggestion)
		}
		return b.String()
	}
	return formatted
}

// normalizeValue converts driver values into JSON-friendly types
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}

// FormatResults renders a query result as a human-readable response
func FormatResults(result Result) string {
	if !result.Success {
		return fmt.Sprintf("Query failed: %s", result.Error)
	}
	if result.RowCount == 0 {
		return strings.TrimSpace(fmt.Sprintf("No results found. %s", result.Explanation))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Query Results** (%d rows):\n\n", result.RowCount)
	if result.Explanation != "" {
		fmt.Fprintf(&b, "*%s*\n\n", result.Explanation)
	}

	display := result.Data
	if len(display) > displayRowCap {
		display = display[:displayRowCap]
	}
	for i, row := range display {
		fmt.Fprintf(&b, "**Row %d:**\n", i+1)
		for key, value := range row {
			if f, ok := value.(float64); ok && isMoneyColumn(key) {
				value = fmt.Sprintf("%.2f", f)
			}
			fmt.Fprintf(&b, "  • %s: %v\n", key, value)
		}
		b.WriteString("\n")
	}
	if result.RowCount > displayRowCap {
		fmt.Fprintf(&b, "*... and %d more rows*\n", result.RowCount-displayRowCap)
	}
	return strings.TrimRight(b.String(), "\n")
}

func isMoneyColumn(name string) bool {
	switch name {
	case "amount", "total", "spent", "budget", "target_amount", "current_amount":
		return true
	}
	return false
}

// SuggestedQueries returns example questions users can ask
func SuggestedQueries() []string {
	return []string{
		"Show my total spending this month",
		"What are my top 5 expense categories?",
		"List all transactions over 1000",
		"How much did I spend on Food last month?",
		"Show my income vs expenses for this year",
		"What's my average transaction amount?",
		"List all my active budgets",
		"Show transactions from last week",
		"What's my highest expense this month?",
		"Compare my spending this month vs last month",
	}
}
