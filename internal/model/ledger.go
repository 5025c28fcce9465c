package model

import "time"

// Consumption records stock leaving a store outside a sale: breakage,
// spoilage, internal use. The quantity is always positive; the direction is
// implied by the record type.
type Consumption struct {
	Syncable
	StoreID   string    `json:"store_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense is a non-inventory cost booked at a store.
type Expense struct {
	Syncable
	StoreID     string    `json:"store_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	IncurredAt  time.Time `json:"incurred_at"`
}

// ShoppingListItem is a restock reminder created at a terminal, typically
// when a product drops below its minimum stock level.
type ShoppingListItem struct {
	Syncable
	StoreID   string    `json:"store_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Note      string    `json:"note,omitempty"`
	Purchased bool      `json:"purchased"`
	CreatedAt time.Time `json:"created_at"`
}
