package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/fintrack/assistant-service/internal/alerts"
	"github.com/fintrack/assistant-service/internal/chat"
	"github.com/fintrack/assistant-service/internal/config"
	"github.com/fintrack/assistant-service/internal/handler"
	"github.com/fintrack/assistant-service/internal/integrations/llm"
	"github.com/fintrack/assistant-service/internal/integrations/rates"
	"github.com/fintrack/assistant-service/internal/middleware"
	"github.com/fintrack/assistant-service/internal/nlpquery"
	"github.com/fintrack/assistant-service/internal/repository"
	"github.com/fintrack/assistant-service/internal/service"
	"github.com/fintrack/assistant-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, logger, cfg)
	ratesClient := rates.NewClient(cfg, logger)
	mailer := email.NewSender(cfg, logger)

	llmClient := llm.NewClient(cfg, logger)
	var classifier chat.Classifier
	if cfg.OpenRouterAPIKey != "" {
		classifier = llmClient
	} else {
		logger.Warn("OPENROUTER_API_KEY not set, intent classification runs in fallback mode")
	}
	resolver := chat.NewResolver(classifier, logger)
	queries := nlpquery.NewService(nlpquery.NewTranslator(llmClient, logger), repo.DB(), logger)

	// Session storage: persistent when a database path is configured
	var sessions chat.SessionStore
	if cfg.SessionDBPath != "" {
		store, err := chat.OpenSQLiteStore(cfg.SessionDBPath, cfg.SessionTTL)
		if err != nil {
			logger.Fatalf("Failed to open session store: %v", err)
		}
		defer store.Close()
		sessions = store
	} else {
		sessions = chat.NewMemoryStore(cfg.SessionTTL)
	}

	chatSvc := chat.NewService(repo, sessions, resolver, queries, logger)
	h := handler.NewHandler(svc, chatSvc, repo, queries, ratesClient, logger)

	// Scheduled jobs
	alertJob := alerts.NewJob(repo, mailer, logger)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SessionSweepCron, func() {
		if err := sessions.Sweep(time.Now().UTC()); err != nil {
			logger.Errorf("Session sweep failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule session sweep: %v", err)
	}
	if _, err := scheduler.AddFunc(cfg.AlertsCron, alertJob.Run); err != nil {
		logger.Fatalf("Failed to schedule budget alerts: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/chat", h.Chat).Methods("POST")
	authRouter.HandleFunc("/context", h.GetContext).Methods("GET")
	authRouter.HandleFunc("/context", h.ClearContext).Methods("DELETE")
	authRouter.HandleFunc("/forecast", h.Forecast).Methods("POST")
	authRouter.HandleFunc("/risk-analysis", h.RiskAnalysis).Methods("GET")
	authRouter.HandleFunc("/insights", h.Insights).Methods("GET")
	authRouter.HandleFunc("/nlp-query", h.NLPQuery).Methods("POST")
	authRouter.HandleFunc("/suggested-queries", h.SuggestedQueries).Methods("GET")
	authRouter.HandleFunc("/exchange-rates", h.ExchangeRates).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
