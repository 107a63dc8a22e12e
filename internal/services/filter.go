package services

import (
	"strings"
	"time"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/models"
)

// Query is one interaction's filter state. A zero From or To, or an inverted
// interval, disables the date restriction; an empty Countries set disables
// the country restriction.
type Query struct {
	From      time.Time
	To        time.Time
	Countries []string
}

// ParseDate parses a 2006-01-02 filter bound. Anything unparseable yields a
// zero time, which disables the bound rather than failing the interaction.
func ParseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// View is an independently owned filtered row set. The aggregate methods in
// aggregate.go operate on it.
type View struct {
	rows []models.Transaction
}

func (v *View) Len() int { return len(v.rows) }

// Empty reports the explicit no-data state every aggregate degrades to.
func (v *View) Empty() bool { return len(v.rows) == 0 }

// Filter copies the rows matching q into a fresh View. The predicates
// AND-compose in one pass; the date interval is inclusive on both ends and
// applies only when both bounds are set and ordered.
func (d *Dataset) Filter(q Query) *View {
	from, to, applyDates := dateInterval(q)

	var allowed map[string]struct{}
	if len(q.Countries) > 0 {
		allowed = make(map[string]struct{}, len(q.Countries))
		for _, c := range q.Countries {
			allowed[c] = struct{}{}
		}
	}

	rows := make([]models.Transaction, 0, len(d.rows))
	for _, tx := range d.rows {
		if applyDates && (tx.Date.Before(from) || tx.Date.After(to)) {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[tx.Country]; !ok {
				continue
			}
		}
		rows = append(rows, tx)
	}
	return &View{rows: rows}
}

// Filter narrows an existing view again; filtering composes, so chaining two
// queries equals one query with both predicates.
func (v *View) Filter(q Query) *View {
	ds := Dataset{rows: v.rows}
	return ds.Filter(q)
}

func dateInterval(q Query) (from, to time.Time, ok bool) {
	if q.From.IsZero() || q.To.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	from, to = dateOnly(q.From), dateOnly(q.To)
	if from.After(to) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
