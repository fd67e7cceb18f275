package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fintrack/assistant-service/internal/models"
)

// BuildPrompt assembles the classification prompt: the user message, a
// context excerpt (last intent and entities), the user's categories, the
// all-history spend summary and current monthly totals, followed by the
// closed intent vocabulary and extraction rules.
func BuildPrompt(text string, snap Snapshot, conv *Context) string {
	categoryList := make([]string, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		categoryList = append(categoryList, fmt.Sprintf("%s (%s)", c.Name, c.Type))
	}

	summaryLines := make([]string, 0, len(snap.Summary))
	for _, s := range snap.Summary {
		summaryLines = append(summaryLines, fmt.Sprintf("%s - %s: %.2f", s.Type, s.Category, s.Total))
	}

	monthlyLines := make([]string, 0, len(snap.Monthly))
	for _, t := range []string{models.TypeIncome, models.TypeExpense} {
		if v, ok := snap.Monthly[t]; ok {
			monthlyLines = append(monthlyLines, fmt.Sprintf("%s: %.2f", t, v))
		}
	}

	var contextInfo strings.Builder
	if conv != nil && conv.LastIntent != "" {
		fmt.Fprintf(&contextInfo, "\nPrevious Intent: %s", conv.LastIntent)
		if len(conv.LastEntities) > 0 {
			if encoded, err := json.Marshal(conv.LastEntities); err == nil {
				fmt.Fprintf(&contextInfo, "\nPrevious Entities: %s", encoded)
			}
		}
	}

	return fmt.Sprintf(`You are an advanced financial assistant with context awareness. Analyze the user's message and determine their intent.

User message: "%s"
%s

Available Categories:
%s

Spending Summary:
%s

Monthly Totals:
%s

Return a JSON object with:
- intent: one of ["add_transaction", "update_transaction", "delete_transaction", "get_summary", "get_monthly_total_income", "get_monthly_total_expense",
  "forecast_expense", "forecast_income", "predict_expense", "check_budget", "budget_status", "predict_budget",
  "budget_risk", "savings_goals", "spending_insights", "nlp_query", "advice", "chat"]
- transaction: true/false

DATABASE MANAGEMENT INTENTS:
- Use "update_transaction" when the user wants to modify an existing transaction (e.g., "update my food expense from 1200 to 500")
- Use "delete_transaction" when the user wants to remove a transaction (e.g., "delete my last food expense", "remove the 500 transaction")
- For update_transaction, include: old_amount, new_amount, category (optional)
- For delete_transaction, include: amount (optional), category (optional), description (optional)

IMPORTANT FOR TRANSACTIONS:
- ONLY set transaction=true if BOTH amount AND category are clearly specified in the user's message
- If amount is missing, use intent="chat" and ask for the amount in the "message" field
- If category is missing, use intent="chat" and ask for the category in the "message" field
- If transaction is true, you MUST include:
    - amount (numeric, greater than 0)
    - category (must match one of the available categories exactly)
    - description (string)
    - type ("income" or "expense")
- If no category matches, return: {"transaction": false, "intent": "invalid_category"}
- If intent is "advice", "chat" or "get_summary", include a "message" field with your reply
- Use "forecast_expense" or "forecast_income" for future predictions
- Use "budget_risk" for risk analysis
- Use "spending_insights" for spending insights
- Use "nlp_query" when the user asks specific database questions (e.g., "show transactions over 1000")
- Use "predict_budget" when the user asks about FUTURE budget (e.g., "will I exceed", "by end of month")
- Use "savings_goals" when the user asks about savings goals or goal progress`,
		text,
		contextInfo.String(),
		strings.Join(categoryList, "\n"),
		strings.Join(summaryLines, "\n"),
		strings.Join(monthlyLines, "\n"),
	)
}
