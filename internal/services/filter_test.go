package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/models"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func makeTx(t *testing.T, invoice, description string, qty int, price string, date time.Time, customer, country string) models.Transaction {
	t.Helper()
	return models.Transaction{
		InvoiceNo:   invoice,
		Description: description,
		Quantity:    qty,
		InvoiceDate: date,
		UnitPrice:   mustDecimal(t, price),
		CustomerID:  customer,
		Country:     country,
	}
}

func filterFixture(t *testing.T) *Dataset {
	t.Helper()
	return NewDataset([]models.Transaction{
		makeTx(t, "1001", "MUG", 2, "2.50", time.Date(2011, 1, 5, 9, 0, 0, 0, time.UTC), "C1", "United Kingdom"),
		makeTx(t, "1002", "MUG", 1, "2.50", time.Date(2011, 1, 31, 14, 0, 0, 0, time.UTC), "C2", "France"),
		makeTx(t, "1003", "LAMP", 3, "10.00", time.Date(2011, 2, 1, 11, 0, 0, 0, time.UTC), "C1", "United Kingdom"),
		makeTx(t, "1004", "LAMP", 1, "10.00", time.Date(2011, 3, 15, 16, 0, 0, 0, time.UTC), "", "Germany"),
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"valid", "2011-01-05", time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"whitespace", " 2011-01-05 ", time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"empty", "", time.Time{}},
		{"garbage", "yesterday", time.Time{}},
		{"wrong layout", "05/01/2011", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDate(tt.raw); !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFilter_DateRange(t *testing.T) {
	ds := filterFixture(t)

	tests := []struct {
		name string
		q    Query
		want int
	}{
		{
			name: "inclusive on both bounds",
			q:    Query{From: time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC), To: time.Date(2011, 1, 31, 0, 0, 0, 0, time.UTC)},
			want: 2,
		},
		{
			name: "single day",
			q:    Query{From: time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC)},
			want: 1,
		},
		{
			name: "no matches",
			q:    Query{From: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2012, 12, 31, 0, 0, 0, 0, time.UTC)},
			want: 0,
		},
		{
			name: "missing To disables the restriction",
			q:    Query{From: time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC)},
			want: 4,
		},
		{
			name: "missing From disables the restriction",
			q:    Query{To: time.Date(2011, 1, 31, 0, 0, 0, 0, time.UTC)},
			want: 4,
		},
		{
			name: "inverted interval disables the restriction",
			q:    Query{From: time.Date(2011, 3, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)},
			want: 4,
		},
		{
			name: "time of day on the bounds is ignored",
			q:    Query{From: time.Date(2011, 1, 5, 23, 59, 0, 0, time.UTC), To: time.Date(2011, 1, 5, 0, 1, 0, 0, time.UTC)},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ds.Filter(tt.q).Len(); got != tt.want {
				t.Errorf("Filter() kept %d rows, want %d", got, tt.want)
			}
		})
	}
}

func TestFilter_Countries(t *testing.T) {
	ds := filterFixture(t)

	tests := []struct {
		name      string
		countries []string
		want      int
	}{
		{"empty set means no restriction", nil, 4},
		{"single country", []string{"France"}, 1},
		{"multiple countries", []string{"United Kingdom", "Germany"}, 3},
		{"unknown country", []string{"Atlantis"}, 0},
		{"membership is exact", []string{"united kingdom"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ds.Filter(Query{Countries: tt.countries}).Len(); got != tt.want {
				t.Errorf("Filter() kept %d rows, want %d", got, tt.want)
			}
		})
	}
}

func TestFilter_PredicatesCompose(t *testing.T) {
	ds := filterFixture(t)

	view := ds.Filter(Query{
		From:      time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2011, 2, 28, 0, 0, 0, 0, time.UTC),
		Countries: []string{"United Kingdom"},
	})

	if view.Len() != 2 {
		t.Fatalf("AND of date and country should keep 2 rows, got %d", view.Len())
	}
	for _, tx := range view.rows {
		if tx.Country != "United Kingdom" {
			t.Errorf("row from %q escaped the country predicate", tx.Country)
		}
	}
}

func TestFilter_ChainingEqualsIntersection(t *testing.T) {
	ds := filterFixture(t)

	dateQ := Query{
		From: time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2011, 2, 28, 0, 0, 0, 0, time.UTC),
	}
	countryQ := Query{Countries: []string{"United Kingdom", "France"}}
	both := Query{From: dateQ.From, To: dateQ.To, Countries: countryQ.Countries}

	chained := ds.Filter(dateQ).Filter(countryQ)
	combined := ds.Filter(both)

	if chained.Len() != combined.Len() {
		t.Fatalf("chained filter kept %d rows, combined kept %d", chained.Len(), combined.Len())
	}
	for i := range chained.rows {
		if chained.rows[i].InvoiceNo != combined.rows[i].InvoiceNo {
			t.Errorf("row %d differs: %q vs %q", i, chained.rows[i].InvoiceNo, combined.rows[i].InvoiceNo)
		}
	}
}

func TestFilter_ViewIsIndependentCopy(t *testing.T) {
	ds := filterFixture(t)

	view := ds.Filter(Query{})
	if view.Len() != ds.Len() {
		t.Fatalf("unrestricted filter should keep every row")
	}

	view.rows[0].Country = "Mutated"
	if ds.rows[0].Country != "United Kingdom" {
		t.Error("mutating a view leaked into the dataset")
	}

	again := ds.Filter(Query{})
	if again.rows[0].Country != "United Kingdom" {
		t.Error("a fresh view should not see earlier view mutations")
	}
}

func TestFilter_EmptyDataset(t *testing.T) {
	ds := NewDataset(nil)

	view := ds.Filter(Query{Countries: []string{"France"}})
	if !view.Empty() {
		t.Error("filtering an empty dataset should yield an empty view")
	}
}

// End-to-end check of the cleaning, filtering and aggregation contract on a
// tiny known input: the negative-quantity row is dropped at load, the filter
// keeps only the January UK row, and the aggregates follow.
func TestPipeline_CleanFilterAggregate(t *testing.T) {
	csv := `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
1,A,PRODUCT ONE,5,1/5/2011 10:00,2.0,C1,UK
2,B,PRODUCT TWO,-1,1/6/2011 10:00,3.0,C2,UK
3,C,PRODUCT THREE,2,2/1/2011 10:00,4.0,C3,FR`

	f := createTempCSV(t, csv)
	ds, err := LoadDataset(context.Background(), []string{f}, testLogger())
	if err != nil {
		t.Fatalf("LoadDataset() failed: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("cleaning should drop the negative-quantity row, got %d rows", ds.Len())
	}

	view := ds.Filter(Query{
		From:      time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2011, 1, 31, 0, 0, 0, 0, time.UTC),
		Countries: []string{"UK"},
	})
	if view.Len() != 1 {
		t.Fatalf("filter should keep only the January UK row, got %d", view.Len())
	}

	revenue := view.MonthlyRevenue()
	if len(revenue) != 1 || revenue[0].Month != "2011-01" {
		t.Fatalf("monthly revenue = %+v, want one 2011-01 row", revenue)
	}
	if !revenue[0].Revenue.Equal(mustDecimal(t, "10")) {
		t.Errorf("january revenue = %s, want 10", revenue[0].Revenue)
	}

	summary := view.Summary()
	if summary.TotalOrders != 1 {
		t.Errorf("total orders = %d, want 1", summary.TotalOrders)
	}
	if !summary.AvgOrderValue.Equal(mustDecimal(t, "10")) {
		t.Errorf("average order value = %s, want 10", summary.AvgOrderValue)
	}
}
