package model

import "time"

// Sale is a completed checkout at a terminal. It is committed locally with
// its line items in a single transaction and uploaded later.
type Sale struct {
	Syncable
	StoreID       string     `json:"store_id"`
	CustomerID    string     `json:"customer_id,omitempty"`
	TotalCents    int64      `json:"total_cents"`
	PaymentMethod string     `json:"payment_method"`
	CreatedAt     time.Time  `json:"created_at"`
	Items         []SaleItem `json:"items,omitempty"`
}

// SaleItem is a single line of a sale. Quantity is fractional for weighted
// products (e.g. 0.35 kg of produce).
type SaleItem struct {
	Syncable
	SaleID         string  `json:"sale_id"`
	ProductID      string  `json:"product_id"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	TotalCents     int64   `json:"total_cents"`
}
