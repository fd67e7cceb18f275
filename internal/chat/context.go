// Package chat implements conversational state, intent resolution and the
// message-handling service of the finance assistant.
package chat

import (
	"strings"
	"time"

	"github.com/fintrack/assistant-service/internal/models"
	"github.com/google/uuid"
)

// DefaultMaxHistory is the capacity of the per-user turn log.
const DefaultMaxHistory = 10

// Turn is a single message in a conversation
type Turn struct {
	ID        string                 `json:"id"`
	Role      string                 `json:"role"` // "user" or "assistant"
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Intent    string                 `json:"intent,omitempty"`
	Entities  map[string]interface{} `json:"entities,omitempty"`
}

// Context holds the bounded conversation state for one user. It is not safe
// for concurrent use by requests for the same user; callers must serialize
// per-user access.
type Context struct {
	UserID       int64                  `json:"user_id"`
	MaxHistory   int                    `json:"max_history"`
	Turns        []Turn                 `json:"turns"`
	ContextData  map[string]interface{} `json:"context_data"`
	LastIntent   string                 `json:"last_intent,omitempty"`
	LastEntities map[string]interface{} `json:"last_entities,omitempty"`
	SessionStart time.Time              `json:"session_start"`
}

// NewContext creates an empty conversation context for a user
func NewContext(userID int64) *Context {
	return &Context{
		UserID:       userID,
		MaxHistory:   DefaultMaxHistory,
		ContextData:  map[string]interface{}{},
		LastEntities: map[string]interface{}{},
		SessionStart: time.Now().UTC(),
	}
}

// AppendTurn pushes a turn onto the bounded FIFO, evicting the oldest turn on
// overflow. A user turn carrying an intent updates LastIntent/LastEntities.
func (c *Context) AppendTurn(role, content, intent string, entities map[string]interface{}) {
	turn := Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Intent:    intent,
		Entities:  entities,
	}
	c.Turns = append(c.Turns, turn)
	if max := c.maxHistory(); len(c.Turns) > max {
		c.Turns = c.Turns[len(c.Turns)-max:]
	}

	if role == "user" && intent != "" {
		c.LastIntent = intent
		if entities != nil {
			c.LastEntities = entities
		} else {
			c.LastEntities = map[string]interface{}{}
		}
	}
}

// History returns up to limit most recent turns; limit <= 0 returns all.
func (c *Context) History(limit int) []Turn {
	if limit <= 0 || limit >= len(c.Turns) {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-limit:]
}

// Clear resets context data and the last resolved intent. The turn log is
// retained.
func (c *Context) Clear() {
	c.ContextData = map[string]interface{}{}
	c.LastIntent = ""
	c.LastEntities = map[string]interface{}{}
}

// Expired reports whether the session has outlived ttl measured from session
// start.
func (c *Context) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.SessionStart) > ttl
}

// Summary describes the context for API responses and prompt building
type Summary struct {
	UserID          int64                  `json:"user_id"`
	MessageCount    int                    `json:"message_count"`
	LastIntent      string                 `json:"last_intent,omitempty"`
	LastEntities    map[string]interface{} `json:"last_entities,omitempty"`
	SessionDuration float64                `json:"session_duration"`
	ContextData     map[string]interface{} `json:"context_data"`
}

// Summarize returns a snapshot of the conversation state
func (c *Context) Summarize() Summary {
	return Summary{
		UserID:          c.UserID,
		MessageCount:    len(c.Turns),
		LastIntent:      c.LastIntent,
		LastEntities:    c.LastEntities,
		SessionDuration: time.Now().UTC().Sub(c.SessionStart).Seconds(),
		ContextData:     c.ContextData,
	}
}

// followUps maps a resolved intent to the intents expected to follow it.
var followUps = map[string][]string{
	models.IntentAddTransaction:  {models.IntentAddTransaction, models.IntentGetSummary},
	models.IntentGetSummary:      {models.IntentAddTransaction, "get_details"},
	models.IntentCheckBudget:     {models.IntentPredictBudget, models.IntentAddTransaction},
	models.IntentForecastExpense: {models.IntentGetSummary, models.IntentAdvice},
	models.IntentForecastIncome:  {models.IntentGetSummary, models.IntentAdvice},
	models.IntentNLPQuery:        {models.IntentNLPQuery, "get_details"},
}

// IsFollowUp reports whether candidate is an expected follow-up to the last
// resolved intent. Without a prior intent there is nothing to follow up on.
func (c *Context) IsFollowUp(candidate string) bool {
	if c.LastIntent == "" {
		return false
	}
	for _, next := range followUps[c.LastIntent] {
		if next == candidate {
			return true
		}
	}
	return false
}

var (
	anaphorCues     = []string{"that", "this", "it", "same"}
	elaborationCues = []string{"more", "details", "elaborate", "explain"}
)

// ExtractReference resolves anaphoric references against the last extracted
// entities: demonstratives pull forward the previous category/amount, and
// elaboration cues flag a request to expand on the last intent.
func (c *Context) ExtractReference(text string) map[string]interface{} {
	refs := map[string]interface{}{}
	lower := strings.ToLower(text)

	if containsAny(lower, anaphorCues) {
		if v, ok := c.LastEntities["category"]; ok {
			refs["category"] = v
		}
		if v, ok := c.LastEntities["amount"]; ok {
			refs["amount"] = v
		}
	}

	if containsAny(lower, elaborationCues) {
		refs["expand_last"] = true
		refs["last_intent"] = c.LastIntent
	}

	return refs
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (c *Context) maxHistory() int {
	if c.MaxHistory <= 0 {
		return DefaultMaxHistory
	}
	return c.MaxHistory
}
