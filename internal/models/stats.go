package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthOrder fixes the sort order of month buckets.
var MonthOrder = map[string]int{
	time.January.String():   1,
	time.February.String():  2,
	time.March.String():     3,
	time.April.String():     4,
	time.May.String():       5,
	time.June.String():      6,
	time.July.String():      7,
	time.August.String():    8,
	time.September.String(): 9,
	time.October.String():   10,
	time.November.String():  11,
	time.December.String():  12,
}

// Totals are the headline numbers of the admin dashboard.
type Totals struct {
	Revenue      float64 `json:"revenue"`
	Orders       int     `json:"orders"`
	Users        int     `json:"users"`
	Products     int     `json:"products"`
	Sellers      int     `json:"sellers"`
	AverageOrder float64 `json:"averageOrder"`
	UnitsOrdered int64   `json:"unitsOrdered"`
	OutOfStock   int     `json:"outOfStock"`
}

// MonthlyValue is a value bucketed by calendar month name.
type MonthlyValue struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// CategoryShare is the number of products in one category.
type CategoryShare struct {
	Category string `json:"category"`
	Products int    `json:"products"`
}

// SellerPerformance is the revenue attributed to one seller.
type SellerPerformance struct {
	SellerID  string  `json:"sellerId"`
	StoreName string  `json:"storeName"`
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`
	Products  int     `json:"products"`
}

// OrderTrend is the order volume and revenue of one month.
type OrderTrend struct {
	Month   string  `json:"month"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// Statistics is the full admin aggregation.
type Statistics struct {
	Totals               Totals              `json:"totals"`
	RevenueByMonth       []MonthlyValue      `json:"revenueByMonth"`
	CategoryDistribution []CategoryShare     `json:"categoryDistribution"`
	SellerPerformance    []SellerPerformance `json:"sellerPerformance"`
	UserGrowth           []MonthlyValue      `json:"userGrowth"`
	OrderTrends          []OrderTrend        `json:"orderTrends"`
	OrdersByStatus       map[string]int      `json:"ordersByStatus"`
	GeneratedAt          time.Time           `json:"generatedAt"`
}

// OrderRevenue derives the revenue of a raw order document: the "total" field when present,
// else the "amount" field, else the sum of item price×quantity.
func OrderRevenue(doc map[string]any) float64 {
	if v, ok := doc["total"]; ok {
		if f, ok := Float(v); ok {
			return f
		}
	}
	if v, ok := doc["amount"]; ok {
		if f, ok := Float(v); ok {
			return f
		}
	}
	sum := decimal.Zero
	items, _ := Slice(doc["items"])
	for _, raw := range items {
		m, ok := Map(raw)
		if !ok {
			continue
		}
		price, _ := Float(m["price"])
		qty, ok := Int(m["quantity"])
		if !ok {
			qty = 1
		}
		sum = sum.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty)))
	}
	return sum.InexactFloat64()
}
