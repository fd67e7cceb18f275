package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/chat"
	"github.com/fintrack/assistant-service/internal/forecast"
	"github.com/fintrack/assistant-service/internal/integrations/rates"
	"github.com/fintrack/assistant-service/internal/middleware"
	"github.com/fintrack/assistant-service/internal/models"
	"github.com/fintrack/assistant-service/internal/nlpquery"
	"github.com/fintrack/assistant-service/internal/repository"
	"github.com/fintrack/assistant-service/internal/service"
)

// Handler exposes the HTTP API
type Handler struct {
	svc     *service.Service
	chat    *chat.Service
	repo    *repository.Repository
	queries *nlpquery.Service
	rates   RatesClient
	log     *logrus.Logger
}

// RatesClient is the exchange-rate capability used by the rates endpoint
type RatesClient interface {
	GetRates() (*rates.Rates, error)
}

// NewHandler initializes the HTTP handler
func NewHandler(svc *service.Service, chatSvc *chat.Service, repo *repository.Repository, queries *nlpquery.Service, rates RatesClient, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, chat: chatSvc, repo: repo, queries: queries, rates: rates, log: log}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Chat processes a chat message
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		respondError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	reply, err := h.chat.HandleMessage(r.Context(), userID, req.Message)
	if err != nil {
		h.log.Errorf("Failed to process chat message: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reply": reply.Text,
		"context": map[string]interface{}{
			"message_count": reply.Context.MessageCount,
			"last_intent":   reply.Context.LastIntent,
		},
	})
}

// GetContext returns the conversation context
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	conv, err := h.chat.Context(userID)
	if err != nil {
		h.log.Errorf("Failed to load context: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get context")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"context": conv.Summarize(),
		"history": conv.History(10),
	})
}

// ClearContext clears the conversation context
func (h *Handler) ClearContext(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.chat.ClearContext(userID); err != nil {
		h.log.Errorf("Failed to clear context: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to clear context")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Context cleared successfully"})
}

// Forecast returns a financial forecast
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	req := struct {
		Type   string `json:"type"`
		Method string `json:"method"`
	}{Type: models.TypeExpense, Method: "auto"}
	// Body is optional; defaults apply when absent.
	_ = json.NewDecoder(r.Body).Decode(&req)

	series, err := h.repo.MonthlySeries(userID, req.Type, "", 12)
	if err != nil {
		h.log.Errorf("Failed to fetch series: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate forecast")
		return
	}

	respondJSON(w, http.StatusOK, forecast.Forecast(series, req.Method))
}

// RiskAnalysis returns the budget risk report
func (h *Handler) RiskAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	lines, err := h.repo.ListBudgetLines(userID, now)
	if err != nil {
		h.log.Errorf("Failed to fetch budgets: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to analyze risk")
		return
	}

	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	respondJSON(w, http.StatusOK, forecast.ScoreBudgets(lines, now.Day(), daysInMonth))
}

// Insights returns the spending insights
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	current, err := h.repo.CategorySpendForMonth(userID, now)
	if err != nil {
		h.log.Errorf("Failed to fetch current spend: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get insights")
		return
	}
	averages, err := h.repo.CategoryMonthlyAverages(userID)
	if err != nil {
		h.log.Errorf("Failed to fetch averages: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get insights")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"insights": forecast.DetectInsights(current, averages),
	})
}

// NLPQuery executes a natural language database query
func (h *Handler) NLPQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		respondError(w, http.StatusBadRequest, "Query cannot be empty")
		return
	}

	result := h.queries.Execute(r.Context(), req.Query, userID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result":    result,
		"formatted": nlpquery.FormatResults(result),
	})
}

// SuggestedQueries returns example natural language queries
func (h *Handler) SuggestedQueries(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": nlpquery.SuggestedQueries(),
	})
}

// ExchangeRates returns the current daily reference rates
func (h *Handler) ExchangeRates(w http.ResponseWriter, r *http.Request) {
	current, err := h.rates.GetRates()
	if err != nil {
		h.log.Errorf("Failed to get exchange rates: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get exchange rates")
		return
	}
	respondJSON(w, http.StatusOK, current)
}

// userID extracts the authenticated user ID set by the auth middleware
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	subject, _ := r.Context().Value(middleware.UserIDKey).(string)
	if subject == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid user identity")
		return 0, false
	}
	return userID, true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
