package server

import (
	"log/slog"
	"net/http"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/handlers"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/services"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/ui/static"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard shell, embedded assets and ops routes
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static.Files))))
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints, one per aggregate view
	s.mux.HandleFunc("GET /api/meta", s.apiHandlers.HandleMeta)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /api/monthly-orders", s.apiHandlers.HandleMonthlyOrders)
	s.mux.HandleFunc("GET /api/country-stats", s.apiHandlers.HandleCountryStats)
	s.mux.HandleFunc("GET /api/country-share", s.apiHandlers.HandleCountryShare)
	s.mux.HandleFunc("GET /api/top-products-quantity", s.apiHandlers.HandleTopProductsQuantity)
	s.mux.HandleFunc("GET /api/top-products-revenue", s.apiHandlers.HandleTopProductsRevenue)
	s.mux.HandleFunc("GET /api/hourly-orders", s.apiHandlers.HandleHourlyOrders)
	s.mux.HandleFunc("GET /api/customer-distribution", s.apiHandlers.HandleCustomerDistribution)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/init", s.sseHandlers.HandleInit)
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
