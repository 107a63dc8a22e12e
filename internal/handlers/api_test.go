package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/models"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func price(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func createTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(nil, []string{"United Kingdom", "France", "Germany"}, testLogger())
	a.SetDataset(services.NewDataset([]models.Transaction{
		{
			InvoiceNo:   "536365",
			StockCode:   "85123A",
			Description: "WHITE HANGING HEART T-LIGHT HOLDER",
			Quantity:    6,
			InvoiceDate: time.Date(2011, 1, 4, 8, 26, 0, 0, time.UTC),
			UnitPrice:   price(t, "2.55"),
			CustomerID:  "17850",
			Country:     "United Kingdom",
		},
		{
			InvoiceNo:   "536367",
			StockCode:   "84879",
			Description: "ASSORTED COLOUR BIRD ORNAMENT",
			Quantity:    32,
			InvoiceDate: time.Date(2011, 2, 10, 10, 3, 0, 0, time.UTC),
			UnitPrice:   price(t, "1.69"),
			CustomerID:  "13047",
			Country:     "France",
		},
		{
			InvoiceNo:   "536370",
			StockCode:   "22728",
			Description: "ALARM CLOCK BAKELIKE PINK",
			Quantity:    24,
			InvoiceDate: time.Date(2011, 2, 15, 15, 30, 0, 0, time.UTC),
			UnitPrice:   price(t, "3.75"),
			CustomerID:  "",
			Country:     "United Kingdom",
		},
	}))
	return a
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if success, ok := response["success"].(bool); !ok || !success {
		t.Fatalf("expected success=true, got: %v", response)
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", response["data"])
	}
	return data
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_TableEndpoints(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		path    string
	}{
		{"monthly-revenue", handlers.HandleMonthlyRevenue, "/api/monthly-revenue"},
		{"monthly-orders", handlers.HandleMonthlyOrders, "/api/monthly-orders"},
		{"country-stats", handlers.HandleCountryStats, "/api/country-stats"},
		{"country-share", handlers.HandleCountryShare, "/api/country-share"},
		{"top-products-quantity", handlers.HandleTopProductsQuantity, "/api/top-products-quantity"},
		{"top-products-revenue", handlers.HandleTopProductsRevenue, "/api/top-products-revenue"},
		{"hourly-orders", handlers.HandleHourlyOrders, "/api/hourly-orders"},
		{"customer-distribution", handlers.HandleCustomerDistribution, "/api/customer-distribution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=60" {
				t.Errorf("cache-control = %q, want 'public, max-age=60'", cc)
			}

			data := decodeSuccess(t, w)
			if empty, ok := data["empty"].(bool); !ok || empty {
				t.Errorf("expected empty=false with seeded data, got %v", data["empty"])
			}
			rows, ok := data["rows"].([]any)
			if !ok || len(rows) == 0 {
				t.Errorf("expected non-empty rows array, got %v", data["rows"])
			}
		})
	}
}

func TestAPIHandlers_MonthlyRevenueValues(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-revenue", nil)
	w := httptest.NewRecorder()
	handlers.HandleMonthlyRevenue(w, req)

	data := decodeSuccess(t, w)
	rows := data["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 months, got %d", len(rows))
	}

	first := rows[0].(map[string]any)
	if first["month"] != "2011-01" {
		t.Errorf("first month = %v, want 2011-01", first["month"])
	}
	// decimal marshals as a quoted number string
	if first["revenue"] != "15.3" {
		t.Errorf("january revenue = %v, want \"15.3\"", first["revenue"])
	}
}

func TestAPIHandlers_QueryFiltering(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	tests := []struct {
		name      string
		url       string
		wantEmpty bool
		wantRows  int
	}{
		{"date range keeps january", "/api/monthly-revenue?from=2011-01-01&to=2011-01-31", false, 1},
		{"country filter", "/api/monthly-revenue?country=France", false, 1},
		{"repeated countries", "/api/monthly-revenue?country=France&country=United+Kingdom", false, 2},
		{"no matches is empty not error", "/api/monthly-revenue?from=2012-01-01&to=2012-12-31", true, 0},
		{"malformed dates disable the range", "/api/monthly-revenue?from=garbage&to=2011-01-31", false, 2},
		{"single bound disables the range", "/api/monthly-revenue?from=2011-02-01", false, 2},
		{"blank country values ignored", "/api/monthly-revenue?country=&country=+", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			handlers.HandleMonthlyRevenue(w, req)

			data := decodeSuccess(t, w)
			if empty := data["empty"].(bool); empty != tt.wantEmpty {
				t.Errorf("empty = %v, want %v", empty, tt.wantEmpty)
			}

			rows, _ := data["rows"].([]any)
			if len(rows) != tt.wantRows {
				t.Errorf("got %d rows, want %d: %v", len(rows), tt.wantRows, rows)
			}
		})
	}
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()
	handlers.HandleSummary(w, req)

	data := decodeSuccess(t, w)
	if empty := data["empty"].(bool); empty {
		t.Error("expected empty=false")
	}
	if data["total_orders"] != float64(3) {
		t.Errorf("total_orders = %v, want 3", data["total_orders"])
	}
	// The anonymous invoice contributes no customer
	if data["total_customers"] != float64(2) {
		t.Errorf("total_customers = %v, want 2", data["total_customers"])
	}
	if data["total_revenue"] != "159.38" {
		t.Errorf("total_revenue = %v, want \"159.38\"", data["total_revenue"])
	}
}

func TestAPIHandlers_HandleSummary_EmptyView(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/summary?from=2020-01-01&to=2020-12-31", nil)
	w := httptest.NewRecorder()
	handlers.HandleSummary(w, req)

	data := decodeSuccess(t, w)
	if empty := data["empty"].(bool); !empty {
		t.Error("expected empty=true for a no-match range")
	}
	if data["total_orders"] != float64(0) {
		t.Errorf("total_orders = %v, want 0", data["total_orders"])
	}
	if data["avg_order_value"] != "0" {
		t.Errorf("avg_order_value = %v, want \"0\"", data["avg_order_value"])
	}
}

func TestAPIHandlers_HandleMeta(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/meta", nil)
	w := httptest.NewRecorder()
	handlers.HandleMeta(w, req)

	data := decodeSuccess(t, w)

	countries, ok := data["countries"].([]any)
	if !ok || len(countries) != 2 {
		t.Fatalf("countries = %v, want 2 entries", data["countries"])
	}
	if countries[0] != "France" || countries[1] != "United Kingdom" {
		t.Errorf("countries should be sorted, got %v", countries)
	}

	defaults, ok := data["default_countries"].([]any)
	if !ok || len(defaults) != 2 {
		t.Fatalf("default_countries = %v, want the 2 present preferred ones", data["default_countries"])
	}
	if defaults[0] != "United Kingdom" || defaults[1] != "France" {
		t.Errorf("defaults should keep preference order, got %v", defaults)
	}

	if data["min_date"] != "2011-01-04" || data["max_date"] != "2011-02-15" {
		t.Errorf("date bounds = %v..%v", data["min_date"], data["max_date"])
	}
	if data["records"] != float64(3) {
		t.Errorf("records = %v, want 3", data["records"])
	}
}

func TestAPIHandlers_DatasetNotLoaded(t *testing.T) {
	analytics := services.NewAnalytics([]string{"/nonexistent.csv"}, nil, testLogger())
	handlers := NewAPIHandlers(analytics, testLogger())

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"monthly-revenue", handlers.HandleMonthlyRevenue},
		{"summary", handlers.HandleSummary},
		{"meta", handlers.HandleMeta},
	}

	for _, tt := range endpoints {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
			}

			var response map[string]any
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if success, ok := response["success"].(bool); !ok || success {
				t.Error("expected success=false in the error envelope")
			}
			if _, ok := response["error"].(map[string]any); !ok {
				t.Error("expected error object in the envelope")
			}
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.HandleHealth(w, req)

	data := decodeSuccess(t, w)
	if status, ok := data["status"].(string); !ok || status != "healthy" {
		t.Errorf("status = %v, want 'healthy'", data["status"])
	}
	if timestamp, ok := data["timestamp"].(string); !ok || timestamp == "" {
		t.Error("expected non-empty timestamp")
	} else if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}

	// Health must stay uncached
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not set cache-control, got %q", cc)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	handlers.HandleStats(w, req)

	data := decodeSuccess(t, w)
	if loaded, ok := data["loaded"].(bool); !ok || !loaded {
		t.Errorf("expected loaded=true, got %v", data["loaded"])
	}
	if data["records"] != float64(3) {
		t.Errorf("records = %v, want 3", data["records"])
	}
}
