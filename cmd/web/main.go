package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"basket-rules/internal/config"
	"basket-rules/internal/dataprep"
	"basket-rules/internal/middleware"
	"basket-rules/internal/mining"
	"basket-rules/internal/observability"
	"basket-rules/internal/server"
	"basket-rules/internal/services"
)

const version = "1.0.0"

// newHandler assembles the service graph and wraps the router in the
// middleware chain.
func newHandler(cfg *config.Config, logger *slog.Logger) http.Handler {
	loader := dataprep.NewLoader(dataprep.Options{
		Root:     cfg.Data.Root,
		CacheDir: cfg.Data.CacheDir,
		Workers:  cfg.Mining.Workers,
	}, logger)
	engine := mining.NewApriori(cfg.Mining.Workers, logger)
	recommender := services.NewRecommender(loader, engine, cfg.Mining, logger)

	srv := server.NewServer(recommender, logger, cfg)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.Metrics(server.Routes...),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.BodyLimit(cfg.Data.MaxBodyBytes),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"config", cfg,
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("rules-service", func(ctx context.Context) error {
		logger.Info("shutting down rules service")
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
