package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/models"
	"github.com/Ou1ma/retail-analytics-dashboard/internal/services"
)

var fragments = template.Must(template.New("fragments").Parse(`
{{define "kpis"}}<div id="kpis" class="kpi-grid">
<div class="kpi-card"><span class="kpi-label">Total Revenue</span><span class="kpi-value">{{.Revenue}}</span></div>
<div class="kpi-card"><span class="kpi-label">Total Orders</span><span class="kpi-value">{{.Orders}}</span></div>
<div class="kpi-card"><span class="kpi-label">Total Customers</span><span class="kpi-value">{{.Customers}}</span></div>
<div class="kpi-card"><span class="kpi-label">Avg Order Value</span><span class="kpi-value">{{.AvgOrder}}</span></div>
</div>{{end}}

{{define "info"}}<div id="dataset-info" class="info-block">
<div class="info-row"><span>Records</span><strong>{{.Records}}</strong></div>
<div class="info-row"><span>Countries</span><strong>{{.Countries}}</strong></div>
<div class="info-row"><span>Products</span><strong>{{.Products}}</strong></div>
<div class="info-row"><span>Orders</span><strong>{{.Orders}}</strong></div>
</div>{{end}}

{{define "nodata"}}<div id="no-data" class="notice{{if not .}} hidden{{end}}">No data available for the selected filters.</div>{{end}}

{{define "countryTable"}}<div id="country-table">
<table class="data-table">
<thead><tr><th>Country</th><th>Revenue</th><th>Orders</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Country}}</td><td><strong>{{.Revenue}}</strong></td><td>{{.Orders}}</td></tr>
{{else}}<tr><td colspan="3" class="muted">No rows</td></tr>{{end}}
</tbody>
</table>
</div>{{end}}

{{define "filters"}}<div id="filters">
<label class="filter-label">From
<input type="date" value="{{.From}}" min="{{.Min}}" max="{{.Max}}" data-bind-from data-on-change="@get('/sse/dashboard')">
</label>
<label class="filter-label">To
<input type="date" value="{{.To}}" min="{{.Min}}" max="{{.Max}}" data-bind-to data-on-change="@get('/sse/dashboard')">
</label>
<label class="filter-label">Countries
<select multiple size="8" data-bind-countries data-on-change="@get('/sse/dashboard')">
{{range .Countries}}<option value="{{.Name}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>
{{end}}</select>
</label>
</div>{{end}}
`))

var printer = message.NewPrinter(language.English)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// filterSignals is the browser-held filter state, read back on every
// interaction.
type filterSignals struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Countries []string `json:"countries"`
}

func (s filterSignals) query() services.Query {
	return services.Query{
		From:      services.ParseDate(s.From),
		To:        services.ParseDate(s.To),
		Countries: cleanCountries(s.Countries),
	}
}

type kpiView struct {
	Revenue   string
	Orders    string
	Customers string
	AvgOrder  string
}

type infoView struct {
	Records   string
	Countries string
	Products  string
	Orders    string
}

type countryRow struct {
	Country string
	Revenue string
	Orders  int
}

type filtersView struct {
	From      string
	To        string
	Min       string
	Max       string
	Countries []countryOption
}

type countryOption struct {
	Name     string
	Selected bool
}

type chartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

func money(d decimal.Decimal) string {
	return printer.Sprintf("$%.2f", d.InexactFloat64())
}

func count(n int) string {
	return printer.Sprintf("%d", n)
}

// HandleInit runs once per page load: patch the sidebar widgets, seed the
// filter signals with the default selection, then render the dashboard for
// that default query.
func (h *SSEHandlers) HandleInit(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.analytics.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err)
		return
	}

	defaults := ds.DefaultCountries(h.analytics.Preferred())
	if defaults == nil {
		defaults = []string{}
	}

	var from, to string
	if minDate, maxDate := ds.DateBounds(); !minDate.IsZero() {
		from = minDate.Format("2006-01-02")
		to = maxDate.Format("2006-01-02")
	}

	fv := filtersView{From: from, To: to, Min: from, Max: to}
	selected := make(map[string]bool, len(defaults))
	for _, c := range defaults {
		selected[c] = true
	}
	for _, c := range ds.Countries() {
		fv.Countries = append(fv.Countries, countryOption{Name: c, Selected: selected[c]})
	}

	if err := h.patchFragment(sse, "filters", fv); err != nil {
		h.logger.Error("render filters", "error", err)
		return
	}

	seed, err := json.Marshal(map[string]any{
		"from":      from,
		"to":        to,
		"countries": defaults,
	})
	if err != nil {
		h.logger.Error("marshal filter signals", "error", err)
		return
	}
	sse.PatchSignals(seed)

	view := ds.Filter(services.Query{
		From:      services.ParseDate(from),
		To:        services.ParseDate(to),
		Countries: defaults,
	})
	if err := h.renderDashboard(sse, view); err != nil {
		h.logger.Error("render dashboard", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleDashboard is the per-interaction rerun: read the filter signals,
// derive a fresh view and patch every section.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.analytics.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err)
		return
	}

	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read signals", "error", err)
	}

	view := ds.Filter(signals.query())
	if err := h.renderDashboard(sse, view); err != nil {
		h.logger.Error("render dashboard", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// renderDashboard recomputes every aggregate from the view and pushes the
// HTML fragments plus the chart-data signals. An empty view shows the
// notice and zeroes everything instead of erroring.
func (h *SSEHandlers) renderDashboard(sse *datastar.ServerSentEventGenerator, view *services.View) error {
	if err := h.patchFragment(sse, "nodata", view.Empty()); err != nil {
		return err
	}

	summary := view.Summary()
	if err := h.patchFragment(sse, "kpis", kpiView{
		Revenue:   money(summary.TotalRevenue),
		Orders:    count(summary.TotalOrders),
		Customers: count(summary.TotalCustomers),
		AvgOrder:  money(summary.AvgOrderValue),
	}); err != nil {
		return err
	}

	info := view.Info()
	if err := h.patchFragment(sse, "info", infoView{
		Records:   count(info.Records),
		Countries: count(info.Countries),
		Products:  count(info.Products),
		Orders:    count(info.Orders),
	}); err != nil {
		return err
	}

	stats := view.CountryStats()
	countries := make([]countryRow, 0, len(stats))
	for _, row := range stats {
		countries = append(countries, countryRow{
			Country: row.Country,
			Revenue: money(row.Revenue),
			Orders:  row.Orders,
		})
	}
	if err := h.patchFragment(sse, "countryTable", countries); err != nil {
		return err
	}

	signals, err := json.Marshal(map[string]any{
		"noData":         view.Empty(),
		"monthlyRevenue": revenuePoints(view.MonthlyRevenue()),
		"monthlyOrders":  orderPoints(view.MonthlyOrders()),
		"countryShare":   sharePoints(view.CountryShare()),
		"productsQty":    quantityPoints(view.TopProductsByQuantity()),
		"productsRev":    productRevenuePoints(view.TopProductsByRevenue()),
		"hourlyOrders":   hourlyPoints(view.HourlyOrders()),
		"orderDist":      distributionPoints(view.CustomerOrderDistribution()),
	})
	if err != nil {
		return fmt.Errorf("marshal chart signals: %w", err)
	}
	return sse.PatchSignals(signals)
}

func (h *SSEHandlers) patchFragment(sse *datastar.ServerSentEventGenerator, name string, data any) error {
	var buf strings.Builder
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return sse.PatchElements(buf.String())
}

func revenuePoints(rows []models.MonthlyRevenue) []chartPoint {
	points := make([]chartPoint, len(rows))
	for i, row := range rows {
		points[i] = chartPoint{Label: row.Month, Value: row.Revenue.InexactFloat64()}
	}
	return points
}

func orderPoints(rows []models.MonthlyOrders) []chartPoint {
	points := make([]chartPoint, len(rows))
	for i, row := range rows {
		points[i] = chartPoint{Label: row.Month, Value: float64(row.Orders)}
	}
	return points
}

func sharePoints(rows []models.CountryStat) []chartPoint {
	points := make([]chartPoint, len(rows))
	for i, row := range rows {
		points[i] = chartPoint{Label: row.Country, Value: row.Revenue.InexactFloat64()}
	}
	return points
}

func quantityPoints(rows []models.ProductQuantity) []chartPoint {
	points := make([]chartPoint, len(rows))
	for i, row := range rows {
		points[i] = chartPoint{Label: row.Description, Value: float64(row.Quantity)}
	}
	return points
}

func productRevenuePoints(rows []models.ProductRevenue) []chartPoint {
	points := make([]chartPoint, len(rows))
	for i, row := range rows {
		points[i] = chartPoint{Label: row.Description, Value: row.Revenue.InexactFloat64()}
	}
	return points
}

func hourlyPoints(rows []models.HourlyOrders) []chartPoint {
	points := make([]chartPoint, len(rows))
	for i, row := range rows {
		points[i] = chartPoint{Label: strconv.Itoa(row.Hour), Value: float64(row.Orders)}
	}
	return points
}

func distributionPoints(rows []models.OrderCountBucket) []chartPoint {
	points := make([]chartPoint, len(rows))
	for i, row := range rows {
		points[i] = chartPoint{Label: strconv.Itoa(row.Orders), Value: float64(row.Customers)}
	}
	return points
}
