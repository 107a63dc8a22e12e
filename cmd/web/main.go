package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/config"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/middleware"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/observability"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/server"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/services"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/ui/templates"
)

const (
	renderTimeout   = 10 * time.Second
	datasetTimeout  = 60 * time.Second
	shellCacheValue = "public, max-age=300"
)

// The shell is static; all data arrives through the SSE endpoints.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", shellCacheValue)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
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
		"version", "1.0.0",
		"config", cfg,
	)

	analytics := services.NewAnalytics(cfg.Dataset.Sources, cfg.Dataset.PreferredCountries, logger)

	ctx, cancel := context.WithTimeout(context.Background(), datasetTimeout)
	defer cancel()

	if err := analytics.Load(ctx); err != nil {
		var notFound *services.SourceNotFoundError
		if errors.As(err, &notFound) {
			logger.Error("no dataset source found, place the transactions CSV at one of the configured paths",
				"paths", notFound.Paths)
		} else {
			logger.Error("failed to load dataset", "error", err)
		}
		os.Exit(1)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("analytics service stopped", "stats", analytics.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
