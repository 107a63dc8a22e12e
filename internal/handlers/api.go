package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/errors"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/models"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/observability"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/services"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// tableResponse carries an explicit empty flag so a zero-row result is a
// signaled state, not something inferred from len(rows).
type tableResponse struct {
	Empty bool `json:"empty"`
	Rows  any  `json:"rows"`
}

type summaryResponse struct {
	Empty bool `json:"empty"`
	models.Summary
}

type metaResponse struct {
	Countries        []string `json:"countries"`
	DefaultCountries []string `json:"default_countries"`
	MinDate          string   `json:"min_date"`
	MaxDate          string   `json:"max_date"`
	Records          int      `json:"records"`
}

var tableHeaders = map[string]string{
	"Cache-Control": "public, max-age=60",
}

// queryFromRequest builds the filter from URL parameters: from/to as
// 2006-01-02 bounds, repeated country values. Malformed or missing values
// just disable the corresponding restriction.
func queryFromRequest(r *http.Request) services.Query {
	params := r.URL.Query()
	return services.Query{
		From:      services.ParseDate(params.Get("from")),
		To:        services.ParseDate(params.Get("to")),
		Countries: cleanCountries(params["country"]),
	}
}

func cleanCountries(raw []string) []string {
	var out []string
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) (*services.View, bool) {
	ds, err := h.analytics.Snapshot(r.Context())
	if err != nil {
		requestID := observability.GetRequestID(r.Context())
		errors.WriteError(w, h.logger, errors.ServiceUnavailableWrap(err, "Dataset not available"), requestID)
		return nil, false
	}
	return ds.Filter(queryFromRequest(r)), true
}

func writeTable(w http.ResponseWriter, view *services.View, rows any) {
	errors.WriteSuccessWithHeaders(w, tableResponse{Empty: view.Empty(), Rows: rows}, tableHeaders)
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.MonthlyRevenue())
}

func (h *APIHandlers) HandleMonthlyOrders(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.MonthlyOrders())
}

func (h *APIHandlers) HandleCountryStats(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.CountryStats())
}

func (h *APIHandlers) HandleCountryShare(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.CountryShare())
}

func (h *APIHandlers) HandleTopProductsQuantity(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.TopProductsByQuantity())
}

func (h *APIHandlers) HandleTopProductsRevenue(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.TopProductsByRevenue())
}

func (h *APIHandlers) HandleHourlyOrders(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.HourlyOrders())
}

func (h *APIHandlers) HandleCustomerDistribution(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeTable(w, view, view.CustomerOrderDistribution())
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, summaryResponse{
		Empty:   view.Empty(),
		Summary: view.Summary(),
	}, tableHeaders)
}

func (h *APIHandlers) HandleMeta(w http.ResponseWriter, r *http.Request) {
	ds, err := h.analytics.Snapshot(r.Context())
	if err != nil {
		requestID := observability.GetRequestID(r.Context())
		errors.WriteError(w, h.logger, errors.ServiceUnavailableWrap(err, "Dataset not available"), requestID)
		return
	}

	minDate, maxDate := ds.DateBounds()
	meta := metaResponse{
		Countries:        ds.Countries(),
		DefaultCountries: ds.DefaultCountries(h.analytics.Preferred()),
		Records:          ds.Len(),
	}
	if !minDate.IsZero() {
		meta.MinDate = minDate.Format("2006-01-02")
		meta.MaxDate = maxDate.Format("2006-01-02")
	}

	errors.WriteSuccess(w, meta)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
