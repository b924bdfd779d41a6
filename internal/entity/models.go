package entity

import (
	"time"
)

// Product is a catalog item with a live stock counter. Stock is mutated only
// inside an order transaction (decrement) or by catalog administration;
// analytics code never writes it.
type Product struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Price int64  `json:"price" db:"price"` // minor currency units
	Stock int    `json:"stock" db:"stock"`
}

// StaffRef is an immutable reference to a staff account owned by the
// user-management service. Only the identity is resolved at sale time.
type StaffRef struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Role     string `json:"role" db:"role"`
}

// Sale is one committed entry of the append-only sale ledger. TotalAmount is
// a snapshot of quantity × price at the instant of sale and is never
// recomputed, so later catalog edits don't rewrite history.
type Sale struct {
	ID          string    `json:"id" db:"id"`
	ProductID   string    `json:"product_id" db:"product_id"`
	StaffID     string    `json:"staff_id" db:"staff_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	TotalAmount int64     `json:"total_amount" db:"total_amount"`
	SoldAt      time.Time `json:"sold_at" db:"sold_at"`
}

// DailyRevenue is one calendar-day bucket of the revenue series.
// Date is an ISO date (YYYY-MM-DD) anchored to UTC.
type DailyRevenue struct {
	Date    string `json:"date" db:"day"`
	Revenue int64  `json:"revenue" db:"revenue"`
	Orders  int    `json:"orders" db:"orders"`
	Units   int    `json:"units" db:"units"`
}

// MonthlyRevenue is one calendar-month bucket (Month is 1..12).
type MonthlyRevenue struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Revenue int64 `json:"revenue"`
}

// YearlyRevenue is one calendar-year bucket.
type YearlyRevenue struct {
	Year    int   `json:"year"`
	Revenue int64 `json:"revenue"`
}

// Totals are the aggregates of a half-open time window over the sale ledger.
type Totals struct {
	Revenue int64 `json:"revenue" db:"revenue"`
	Orders  int   `json:"orders" db:"orders"`
	Units   int   `json:"units" db:"units"`
}

// Summary compares the current calendar month against the previous one and
// the current year against the previous one. A nil percentage means "not
// applicable" (previous period had no revenue but the current one does) and
// serializes as JSON null, never as a fabricated ±100%.
type Summary struct {
	TotalRevenue      int64    `json:"total_revenue"`
	TotalOrders       int      `json:"total_orders"`
	TotalProductsSold int      `json:"total_products_sold"`
	RevenueChangePct  *float64 `json:"revenue_change_pct"`
	OrdersChangePct   *float64 `json:"orders_change_pct"`
	ProductsChangePct *float64 `json:"products_change_pct"`
	RevenueYoYPct     *float64 `json:"revenue_yoy_pct"`
}

// ForecastPoint is one projected day. DayOffset 1 is the first day after the
// last day present in the ledger's daily series.
type ForecastPoint struct {
	DayOffset        int   `json:"day"`
	PredictedRevenue int64 `json:"predicted_revenue"`
}

// TopProduct ranks a product by all-time revenue.
type TopProduct struct {
	ProductID string `json:"product_id" db:"product_id"`
	Name      string `json:"name" db:"name"`
	Revenue   int64  `json:"revenue" db:"revenue"`
	Units     int    `json:"units" db:"units"`
}
