package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/reston-rays/xwoba-matchups/config"
	"github.com/reston-rays/xwoba-matchups/mlbstats"
	"github.com/reston-rays/xwoba-matchups/pipeline"
	"github.com/reston-rays/xwoba-matchups/store"
)

type Server struct {
	db         *pgxpool.Pool
	router     *mux.Router
	httpServer *http.Server
	config     *config.Config
	logger     *logrus.Logger
	store      *store.Store
	engine     *pipeline.Engine
	cron       *cron.Cron
}

func NewServer(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	// Connection pool settings
	dbConfig.MaxConns = 25
	dbConfig.MinConns = 5
	dbConfig.MaxConnLifetime = time.Hour
	dbConfig.MaxConnIdleTime = time.Minute * 30

	db, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	st := store.New(db, cfg.ChunkSize, logger)
	client := mlbstats.NewClient(cfg.MLBAPIBaseURL, cfg.RetryAttempts, logger)

	s := &Server{
		db:     db,
		config: cfg,
		logger: logger,
		router: mux.NewRouter(),
		store:  st,
		engine: pipeline.NewEngine(client, st, logger),
	}

	s.setupRoutes()
	if cfg.CronEnabled {
		if err := s.setupCron(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthHandler).Methods("GET")
	api.HandleFunc("/metrics", s.handleMetrics).Methods("GET")

	// Read queries for the presentation layer
	api.HandleFunc("/matchups/today", s.getTodayMatchupsHandler).Methods("GET")
	api.HandleFunc("/matchups/{date}", s.getMatchupsHandler).Methods("GET")
	api.HandleFunc("/matchups/{date}/top", s.getTopMatchupsHandler).Methods("GET")

	// Operator triggers
	api.HandleFunc("/refresh/schedule", s.refreshScheduleHandler).Methods("POST")
	api.HandleFunc("/refresh/matchups", s.refreshMatchupsHandler).Methods("POST")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
}

func (s *Server) setupCron() error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.config.ScheduleCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		start, end := s.defaultScheduleRange()
		if _, err := s.engine.RefreshSchedule(ctx, start, end); err != nil {
			s.logger.WithError(err).Error("Scheduled schedule refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register schedule cron: %w", err)
	}

	_, err = s.cron.AddFunc(s.config.MatchupCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		date := pipeline.CivilDate(time.Now(), s.config.Location())
		report, err := s.engine.ComputeMatchups(ctx, date)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled matchup computation failed")
			appMetrics.RecordRun(false, 0, 0)
			return
		}
		appMetrics.RecordRun(true, report.RowsWritten, len(report.Skipped))
	})
	if err != nil {
		return fmt.Errorf("failed to register matchup cron: %w", err)
	}

	return nil
}

func (s *Server) Start() error {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	})

	handler := c.Handler(handlers.CompressHandler(s.router))

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.cron != nil {
		s.cron.Start()
		s.logger.WithFields(logrus.Fields{
			"schedule_spec": s.config.ScheduleCronSpec,
			"matchup_spec":  s.config.MatchupCronSpec,
		}).Info("Cron scheduler started")
	}

	s.logger.WithField("port", s.config.Port).Info("Starting matchup engine")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down matchup engine...")

	if s.cron != nil {
		cronCtx := s.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-ctx.Done():
		}
	}

	s.db.Close()
	return s.httpServer.Shutdown(ctx)
}

// Middleware
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		appMetrics.RecordRequest(lrw.statusCode, duration)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.RequestURI,
			"status":   lrw.statusCode,
			"duration": duration.String(),
		}).Info("Request handled")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithField("panic", err).Error("Panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Handlers
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":   "healthy",
		"time":     time.Now().UTC(),
		"database": "connected",
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		health["database"] = "disconnected"
		health["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	s.writeJSONStatus(w, status, health)
}

func (s *Server) getTodayMatchupsHandler(w http.ResponseWriter, r *http.Request) {
	s.serveMatchups(w, r, pipeline.CivilDate(time.Now(), s.config.Location()))
}

func (s *Server) getMatchupsHandler(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if !validDate(date) {
		s.writeError(w, "Invalid date format, use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	s.serveMatchups(w, r, date)
}

func (s *Server) serveMatchups(w http.ResponseWriter, r *http.Request, date string) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	games, err := s.store.GetMatchupsByDate(ctx, date)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read matchups")
		s.writeError(w, "Failed to query matchups", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"date":  date,
		"games": games,
		"count": len(games),
	})
}

func (s *Server) getTopMatchupsHandler(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if !validDate(date) {
		s.writeError(w, "Invalid date format, use YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	limit := 25
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			s.writeError(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	matchups, err := s.store.GetTopMatchupsByDate(ctx, date, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read top matchups")
		s.writeError(w, "Failed to query matchups", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"date":     date,
		"limit":    limit,
		"matchups": matchups,
		"count":    len(matchups),
	})
}

type refreshScheduleRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (s *Server) refreshScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshScheduleRequest
	if r.Body != nil {
		// Empty body means default range.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	start, end := s.defaultScheduleRange()
	if req.StartDate != "" {
		if !validDate(req.StartDate) {
			s.writeError(w, "Invalid start_date, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		start = req.StartDate
	}
	if req.EndDate != "" {
		if !validDate(req.EndDate) {
			s.writeError(w, "Invalid end_date, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end = req.EndDate
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	games, err := s.engine.RefreshSchedule(ctx, start, end)
	if err != nil {
		s.logger.WithError(err).Error("Schedule refresh failed")
		s.writeError(w, "Schedule refresh failed", http.StatusBadGateway)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"start_date": start,
		"end_date":   end,
		"games":      games,
	})
}

type refreshMatchupsRequest struct {
	Date string `json:"date"`
}

func (s *Server) refreshMatchupsHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshMatchupsRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	date := pipeline.CivilDate(time.Now(), s.config.Location())
	if req.Date != "" {
		if !validDate(req.Date) {
			s.writeError(w, "Invalid date, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = req.Date
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Minute)
	defer cancel()

	report, err := s.engine.ComputeMatchups(ctx, date)
	if err != nil {
		s.logger.WithError(err).Error("Matchup computation failed")
		appMetrics.RecordRun(false, 0, 0)
		s.writeError(w, "Matchup computation failed", http.StatusBadGateway)
		return
	}
	appMetrics.RecordRun(true, report.RowsWritten, len(report.Skipped))

	s.writeJSON(w, report)
}

func (s *Server) defaultScheduleRange() (start, end string) {
	loc := s.config.Location()
	now := time.Now()
	start = pipeline.CivilDate(now, loc)
	end = pipeline.CivilDate(now.AddDate(0, 0, s.config.ScheduleLookaheadDays), loc)
	return start, end
}

// Helper types and functions
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Error encoding JSON")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// writeJSONStatus is for non-200 JSON responses: headers must be set before
// the status code goes out or they are dropped.
func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Error encoding JSON")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	server, err := NewServer(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Fatalf("Server shutdown failed: %v", err)
		}
		logger.Info("Server shutdown complete")
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed to start: %v", err)
	}
}
