package model

import "time"

// Product is a catalog entry together with this location's on-hand stock.
// The same product ID can exist at several locations, each with its own
// stock_quantity. Stock is the field most exposed to concurrent mutation,
// so stock writes always flip the row back to pending.
type Product struct {
	Syncable
	StoreID       string    `json:"store_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	PriceCents    int64     `json:"price_cents"`
	CostCents     int64     `json:"cost_cents"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
	IsWeighted    bool      `json:"is_weighted"`
	Barcode       string    `json:"barcode,omitempty"`
	CategoryID    string    `json:"category_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BelowMinStock reports whether the on-hand count has dropped below the
// configured reorder threshold.
func (p *Product) BelowMinStock() bool {
	return p.StockQuantity < p.MinStockLevel
}
