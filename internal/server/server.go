package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"basket-rules/internal/config"
	"basket-rules/internal/handlers"
	"basket-rules/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

// Routes lists the registered paths; metrics label anything else as "other".
var Routes = []string{
	"/",
	"/generate_rules",
	"/api/rules",
	"/sse/rules",
	"/health",
	"/admin/stats",
	"/metrics",
}

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	cfg         *config.Config
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

func NewServer(rules handlers.RulesService, logger *slog.Logger, cfg *config.Config) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		cfg:         cfg,
		apiHandlers: handlers.NewAPIHandlers(rules, logger),
		sseHandlers: handlers.NewSSEHandlers(rules, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// REST API endpoints
	s.mux.HandleFunc("POST /generate_rules", s.apiHandlers.HandleGenerateRules)
	s.mux.HandleFunc("POST /api/rules", s.apiHandlers.HandleGenerateRules)

	// Datastar SSE endpoints
	s.mux.HandleFunc("POST /sse/rules", s.sseHandlers.HandleRules)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	props := templates.DashboardProps{
		CountryColumn:  s.cfg.Mining.CountryColumn,
		QuantityColumn: s.cfg.Mining.QuantityColumn,
		MinSupport:     0.05,
		MinThreshold:   1,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := templates.Dashboard(props).Render(ctx, w); err != nil {
		s.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
