package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var requiredColumns = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity",
	"InvoiceDate", "UnitPrice", "CustomerID", "Country",
}

// Layouts tried in order when parsing InvoiceDate.
var invoiceDateLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// SourceNotFoundError means none of the candidate paths exist.
type SourceNotFoundError struct {
	Paths []string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("no dataset source found, tried: %s", strings.Join(e.Paths, ", "))
}

// SourceMalformedError means a candidate file exists but cannot be parsed
// into a complete dataset: bad schema, no data rows, or any row whose
// Quantity, UnitPrice or InvoiceDate fails to parse.
type SourceMalformedError struct {
	Path string
	Err  error
}

func (e *SourceMalformedError) Error() string {
	return fmt.Sprintf("malformed dataset source %s: %v", e.Path, e.Err)
}

func (e *SourceMalformedError) Unwrap() error { return e.Err }

// RowError pinpoints the first cell that failed type conversion.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Dataset is the cleaned transaction set. It is immutable after
// construction: rows stay unexported and every filter pass copies matching
// rows into a fresh View.
type Dataset struct {
	rows      []models.Transaction
	stats     models.CleaningStats
	countries []string
	minDate   time.Time
	maxDate   time.Time
	source    string
}

// NewDataset builds a dataset from already-clean rows, computing the derived
// columns and metadata. The loader and the handler tests share this path.
func NewDataset(rows []models.Transaction) *Dataset {
	rows = slices.Clone(rows)
	for i := range rows {
		derive(&rows[i])
	}

	countrySet := make(map[string]struct{})
	var minDate, maxDate time.Time
	for _, tx := range rows {
		countrySet[tx.Country] = struct{}{}
		if minDate.IsZero() || tx.Date.Before(minDate) {
			minDate = tx.Date
		}
		if maxDate.IsZero() || tx.Date.After(maxDate) {
			maxDate = tx.Date
		}
	}

	return &Dataset{
		rows:      rows,
		stats:     models.CleaningStats{RawRows: len(rows), CleanRows: len(rows)},
		countries: slices.Sorted(maps.Keys(countrySet)),
		minDate:   minDate,
		maxDate:   maxDate,
	}
}

func (d *Dataset) Len() int { return len(d.rows) }

func (d *Dataset) Stats() models.CleaningStats { return d.stats }

// Countries returns the distinct countries present, sorted.
func (d *Dataset) Countries() []string { return slices.Clone(d.countries) }

// DateBounds returns the earliest and latest calendar dates present. Both
// are zero for an empty dataset.
func (d *Dataset) DateBounds() (time.Time, time.Time) { return d.minDate, d.maxDate }

// Source is the path the dataset was loaded from, empty when seeded
// directly.
func (d *Dataset) Source() string { return d.source }

// DefaultCountries implements the preferred-then-leading selection strategy:
// the preferred countries that are present, in preference order, or the
// first three of the sorted country list when none of them are.
func (d *Dataset) DefaultCountries(preferred []string) []string {
	present := make(map[string]struct{}, len(d.countries))
	for _, c := range d.countries {
		present[c] = struct{}{}
	}

	var selected []string
	for _, c := range preferred {
		if _, ok := present[c]; ok {
			selected = append(selected, c)
		}
	}
	if len(selected) > 0 {
		return selected
	}
	return slices.Clone(d.countries[:min(3, len(d.countries))])
}

func derive(tx *models.Transaction) {
	tx.TotalPrice = tx.UnitPrice.Mul(decimal.NewFromInt(int64(tx.Quantity)))
	tx.YearMonth = tx.InvoiceDate.Format("2006-01")
	y, m, day := tx.InvoiceDate.Date()
	tx.Date = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	tx.Hour = tx.InvoiceDate.Hour()
}

// LoadDataset tries the candidate paths in order and returns the first that
// exists and parses. When no candidate exists the error is a
// *SourceNotFoundError; when at least one exists but every existing one
// fails, the per-path *SourceMalformedError values are joined.
func LoadDataset(ctx context.Context, sources []string, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var malformed []error
	for _, path := range sources {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		start := time.Now()
		logger.Info("loading dataset", "path", path)

		ds, err := parseSource(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Warn("candidate source failed", "path", path, "error", err)
			malformed = append(malformed, &SourceMalformedError{Path: path, Err: err})
			continue
		}

		ds.source = path
		duration := time.Since(start)
		logger.Info("dataset loaded",
			"path", path,
			"raw_rows", ds.stats.RawRows,
			"clean_rows", ds.stats.CleanRows,
			"dropped_quantity", ds.stats.NonPositiveQuantity,
			"dropped_price", ds.stats.NonPositivePrice,
			"dropped_description", ds.stats.MissingDescription,
			"countries", len(ds.countries),
			"duration", duration,
			"rate", fmt.Sprintf("%.0f rows/sec", float64(ds.stats.RawRows)/duration.Seconds()))
		return ds, nil
	}

	if len(malformed) == 0 {
		return nil, &SourceNotFoundError{Paths: slices.Clone(sources)}
	}
	if len(malformed) == 1 {
		return nil, malformed[0]
	}
	return nil, errors.Join(malformed...)
}

type columnIndex struct {
	invoiceNo, stockCode, description, quantity int
	invoiceDate, unitPrice, customerID, country int
}

type rawRow struct {
	num    int
	record []string
}

func parseSource(ctx context.Context, path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, 1024*1024)
	stripBOM(br)

	// The source encoding is fixed ISO-8859-1, not UTF-8.
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(br))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var (
		rows  []models.Transaction
		stats models.CleaningStats
		batch = make([]rawRow, 0, batchSize)
	)

	// Convert a batch of raw records in parallel, then apply the cleaning
	// rules sequentially so row order and drop counters stay deterministic.
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		parsed := make([]models.Transaction, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxWorkers)
		for i := range batch {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				tx, err := parseRow(batch[i])
				if err != nil {
					return err
				}
				parsed[i] = tx
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, tx := range parsed {
			switch {
			case tx.Quantity <= 0:
				stats.NonPositiveQuantity++
			case !tx.UnitPrice.IsPositive():
				stats.NonPositivePrice++
			case tx.Description == "":
				stats.MissingDescription++
			default:
				rows = append(rows, tx)
			}
		}
		batch = batch[:0]
		return nil
	}

	rowNum := 1 // header
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum+1, err)
		}
		rowNum++
		stats.RawRows++

		batch = append(batch, rawRow{num: rowNum, record: pick(record, cols)})
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if stats.RawRows == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	ds := NewDataset(rows)
	ds.stats = models.CleaningStats{
		RawRows:             stats.RawRows,
		NonPositiveQuantity: stats.NonPositiveQuantity,
		NonPositivePrice:    stats.NonPositivePrice,
		MissingDescription:  stats.MissingDescription,
		CleanRows:           len(rows),
	}
	return ds, nil
}

func stripBOM(br *bufio.Reader) {
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
}

func mapHeader(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return columnIndex{
		invoiceNo:   byName["InvoiceNo"],
		stockCode:   byName["StockCode"],
		description: byName["Description"],
		quantity:    byName["Quantity"],
		invoiceDate: byName["InvoiceDate"],
		unitPrice:   byName["UnitPrice"],
		customerID:  byName["CustomerID"],
		country:     byName["Country"],
	}, nil
}

// pick reorders a raw record into requiredColumns order so the parse workers
// never touch the header map. Short records pad with empty fields.
func pick(record []string, cols columnIndex) []string {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	return []string{
		field(cols.invoiceNo),
		field(cols.stockCode),
		field(cols.description),
		field(cols.quantity),
		field(cols.invoiceDate),
		field(cols.unitPrice),
		field(cols.customerID),
		field(cols.country),
	}
}

func parseRow(r rawRow) (models.Transaction, error) {
	quantity, err := strconv.Atoi(r.record[3])
	if err != nil {
		return models.Transaction{}, &RowError{Row: r.num, Column: "Quantity", Err: err}
	}

	date, err := parseInvoiceDate(r.record[4])
	if err != nil {
		return models.Transaction{}, &RowError{Row: r.num, Column: "InvoiceDate", Err: err}
	}

	price, err := decimal.NewFromString(r.record[5])
	if err != nil {
		return models.Transaction{}, &RowError{Row: r.num, Column: "UnitPrice", Err: err}
	}

	return models.Transaction{
		InvoiceNo:   r.record[0],
		StockCode:   r.record[1],
		Description: r.record[2],
		Quantity:    quantity,
		InvoiceDate: date,
		UnitPrice:   price,
		CustomerID:  r.record[6],
		Country:     r.record[7],
	}, nil
}

func parseInvoiceDate(s string) (time.Time, error) {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
