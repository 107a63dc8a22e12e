package services

import (
	"cmp"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Ou1ma/retail-analytics-dashboard/internal/models"
)

const (
	topCountries      = 10
	topShareCountries = 5
	topProducts       = 10
	maxOrderBucket    = 20
)

// Ranked aggregates materialize groups in ascending key order before a
// stable sort on the measure, so ties always break by group key.

// MonthlyRevenue sums TotalPrice per YearMonth, chronologically.
func (v *View) MonthlyRevenue() []models.MonthlyRevenue {
	groups := make(map[string]decimal.Decimal)
	for _, tx := range v.rows {
		groups[tx.YearMonth] = groups[tx.YearMonth].Add(tx.TotalPrice)
	}

	months := slices.Sorted(maps.Keys(groups))
	result := make([]models.MonthlyRevenue, 0, len(months))
	for _, m := range months {
		result = append(result, models.MonthlyRevenue{Month: m, Revenue: groups[m]})
	}
	return result
}

// MonthlyOrders counts distinct invoices per YearMonth, chronologically.
func (v *View) MonthlyOrders() []models.MonthlyOrders {
	groups := make(map[string]map[string]struct{})
	for _, tx := range v.rows {
		if groups[tx.YearMonth] == nil {
			groups[tx.YearMonth] = make(map[string]struct{})
		}
		groups[tx.YearMonth][tx.InvoiceNo] = struct{}{}
	}

	months := slices.Sorted(maps.Keys(groups))
	result := make([]models.MonthlyOrders, 0, len(months))
	for _, m := range months {
		result = append(result, models.MonthlyOrders{Month: m, Orders: len(groups[m])})
	}
	return result
}

// CountryStats ranks countries by revenue, top 10, with distinct order
// counts alongside.
func (v *View) CountryStats() []models.CountryStat {
	type agg struct {
		revenue  decimal.Decimal
		invoices map[string]struct{}
	}
	groups := make(map[string]*agg)
	for _, tx := range v.rows {
		g := groups[tx.Country]
		if g == nil {
			g = &agg{invoices: make(map[string]struct{})}
			groups[tx.Country] = g
		}
		g.revenue = g.revenue.Add(tx.TotalPrice)
		g.invoices[tx.InvoiceNo] = struct{}{}
	}

	result := make([]models.CountryStat, 0, len(groups))
	for _, country := range slices.Sorted(maps.Keys(groups)) {
		g := groups[country]
		result = append(result, models.CountryStat{
			Country: country,
			Revenue: g.revenue,
			Orders:  len(g.invoices),
		})
	}
	slices.SortStableFunc(result, func(a, b models.CountryStat) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	if len(result) > topCountries {
		result = result[:topCountries]
	}
	return result
}

// CountryShare is the head of CountryStats, top 5, for the share chart.
func (v *View) CountryShare() []models.CountryStat {
	result := v.CountryStats()
	if len(result) > topShareCountries {
		result = result[:topShareCountries]
	}
	return result
}

// TopProductsByQuantity ranks descriptions by units sold, top 10.
func (v *View) TopProductsByQuantity() []models.ProductQuantity {
	groups := make(map[string]int)
	for _, tx := range v.rows {
		groups[tx.Description] += tx.Quantity
	}

	result := make([]models.ProductQuantity, 0, len(groups))
	for _, desc := range slices.Sorted(maps.Keys(groups)) {
		result = append(result, models.ProductQuantity{Description: desc, Quantity: groups[desc]})
	}
	slices.SortStableFunc(result, func(a, b models.ProductQuantity) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	if len(result) > topProducts {
		result = result[:topProducts]
	}
	return result
}

// TopProductsByRevenue ranks descriptions by summed TotalPrice, top 10.
func (v *View) TopProductsByRevenue() []models.ProductRevenue {
	groups := make(map[string]decimal.Decimal)
	for _, tx := range v.rows {
		groups[tx.Description] = groups[tx.Description].Add(tx.TotalPrice)
	}

	result := make([]models.ProductRevenue, 0, len(groups))
	for _, desc := range slices.Sorted(maps.Keys(groups)) {
		result = append(result, models.ProductRevenue{Description: desc, Revenue: groups[desc]})
	}
	slices.SortStableFunc(result, func(a, b models.ProductRevenue) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	if len(result) > topProducts {
		result = result[:topProducts]
	}
	return result
}

// HourlyOrders counts distinct invoices per hour of day, ascending, only
// for hours that actually occur.
func (v *View) HourlyOrders() []models.HourlyOrders {
	groups := make(map[int]map[string]struct{})
	for _, tx := range v.rows {
		if groups[tx.Hour] == nil {
			groups[tx.Hour] = make(map[string]struct{})
		}
		groups[tx.Hour][tx.InvoiceNo] = struct{}{}
	}

	hours := slices.Sorted(maps.Keys(groups))
	result := make([]models.HourlyOrders, 0, len(hours))
	for _, h := range hours {
		result = append(result, models.HourlyOrders{Hour: h, Orders: len(groups[h])})
	}
	return result
}

// CustomerOrderDistribution buckets customers by how many distinct orders
// they placed, ascending, capped at 20 orders. Rows without a customer are
// excluded.
func (v *View) CustomerOrderDistribution() []models.OrderCountBucket {
	perCustomer := make(map[string]map[string]struct{})
	for _, tx := range v.rows {
		if tx.CustomerID == "" {
			continue
		}
		if perCustomer[tx.CustomerID] == nil {
			perCustomer[tx.CustomerID] = make(map[string]struct{})
		}
		perCustomer[tx.CustomerID][tx.InvoiceNo] = struct{}{}
	}

	buckets := make(map[int]int)
	for _, invoices := range perCustomer {
		buckets[len(invoices)]++
	}

	counts := slices.Sorted(maps.Keys(buckets))
	result := make([]models.OrderCountBucket, 0, len(counts))
	for _, n := range counts {
		if n > maxOrderBucket {
			continue
		}
		result = append(result, models.OrderCountBucket{Orders: n, Customers: buckets[n]})
	}
	return result
}

// Summary computes the KPI scalars. Average order value is zero when there
// are no orders.
func (v *View) Summary() models.Summary {
	var revenue decimal.Decimal
	invoices := make(map[string]struct{})
	customers := make(map[string]struct{})
	for _, tx := range v.rows {
		revenue = revenue.Add(tx.TotalPrice)
		invoices[tx.InvoiceNo] = struct{}{}
		if tx.CustomerID != "" {
			customers[tx.CustomerID] = struct{}{}
		}
	}

	s := models.Summary{
		TotalRevenue:   revenue,
		TotalOrders:    len(invoices),
		TotalCustomers: len(customers),
	}
	if s.TotalOrders > 0 {
		s.AvgOrderValue = revenue.Div(decimal.NewFromInt(int64(s.TotalOrders)))
	}
	return s
}

// Info describes the current view for the sidebar dataset block.
func (v *View) Info() models.DatasetInfo {
	countries := make(map[string]struct{})
	products := make(map[string]struct{})
	invoices := make(map[string]struct{})
	for _, tx := range v.rows {
		countries[tx.Country] = struct{}{}
		products[tx.Description] = struct{}{}
		invoices[tx.InvoiceNo] = struct{}{}
	}
	return models.DatasetInfo{
		Records:   len(v.rows),
		Countries: len(countries),
		Products:  len(products),
		Orders:    len(invoices),
	}
}
