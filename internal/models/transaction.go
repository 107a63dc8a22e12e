package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one invoice line item. The last four fields are derived
// once at load time and are never recomputed downstream.
type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	UnitPrice   decimal.Decimal
	CustomerID  string
	Country     string

	TotalPrice decimal.Decimal
	YearMonth  string
	Date       time.Time
	Hour       int
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type MonthlyOrders struct {
	Month  string `json:"month"`
	Orders int    `json:"orders"`
}

type CountryStat struct {
	Country string          `json:"country"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type ProductQuantity struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type ProductRevenue struct {
	Description string          `json:"description"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type HourlyOrders struct {
	Hour   int `json:"hour"`
	Orders int `json:"orders"`
}

// OrderCountBucket is one row of the customer order distribution: how many
// customers placed exactly Orders distinct orders.
type OrderCountBucket struct {
	Orders    int `json:"orders"`
	Customers int `json:"customers"`
}

type Summary struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
}

type DatasetInfo struct {
	Records   int `json:"records"`
	Countries int `json:"countries"`
	Products  int `json:"products"`
	Orders    int `json:"orders"`
}

// CleaningStats counts rows dropped by each cleaning rule. Identical input
// bytes always produce identical counts.
type CleaningStats struct {
	RawRows             int `json:"raw_rows"`
	NonPositiveQuantity int `json:"non_positive_quantity"`
	NonPositivePrice    int `json:"non_positive_price"`
	MissingDescription  int `json:"missing_description"`
	CleanRows           int `json:"clean_rows"`
}
