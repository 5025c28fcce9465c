package remote

import (
	"time"

	"github.com/erazemk/blagajna/internal/model"
)

// Wire payloads mirror the central server's JSON. Optional fields are
// pointers so an omitted field is distinguishable from a zero value and can
// be given an explicit default during conversion.

// ProductPayload is one catalog product as the server sends it.
type ProductPayload struct {
	ID            string     `json:"id"`
	RemoteID      string     `json:"remote_id"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name"`
	PriceCents    int64      `json:"price_cents"`
	CostCents     *int64     `json:"cost_cents,omitempty"`
	StockQuantity *int       `json:"stock_quantity,omitempty"`
	MinStockLevel *int       `json:"min_stock_level,omitempty"`
	IsWeighted    *bool      `json:"is_weighted,omitempty"`
	Barcode       *string    `json:"barcode,omitempty"`
	CategoryID    *string    `json:"category_id,omitempty"`
	LastModified  *time.Time `json:"last_modified,omitempty"`
}

// ToModel converts a wire product to the local model, filling omitted fields
// with their defaults: zero cost, zero stock, no minimum, unit-counted.
func (p ProductPayload) ToModel(storeID string, fetchedAt time.Time) *model.Product {
	out := &model.Product{
		StoreID:    storeID,
		SKU:        p.SKU,
		Name:       p.Name,
		PriceCents: p.PriceCents,
	}
	out.ID = p.ID
	out.RemoteID = p.RemoteID
	out.LastModified = fetchedAt

	if p.CostCents != nil {
		out.CostCents = *p.CostCents
	}
	if p.StockQuantity != nil {
		out.StockQuantity = *p.StockQuantity
	}
	if p.MinStockLevel != nil {
		out.MinStockLevel = *p.MinStockLevel
	}
	if p.IsWeighted != nil {
		out.IsWeighted = *p.IsWeighted
	}
	if p.Barcode != nil {
		out.Barcode = *p.Barcode
	}
	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	if p.LastModified != nil {
		out.LastModified = *p.LastModified
	}
	return out
}

// CategoryPayload is one catalog category as the server sends it.
type CategoryPayload struct {
	ID           string     `json:"id"`
	RemoteID     string     `json:"remote_id"`
	Name         string     `json:"name"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

func (c CategoryPayload) ToModel(fetchedAt time.Time) *model.Category {
	out := &model.Category{Name: c.Name}
	out.ID = c.ID
	out.RemoteID = c.RemoteID
	out.LastModified = fetchedAt
	if c.LastModified != nil {
		out.LastModified = *c.LastModified
	}
	return out
}

// CustomerPayload is one customer record as the server sends it.
type CustomerPayload struct {
	ID           string     `json:"id"`
	RemoteID     string     `json:"remote_id"`
	Name         string     `json:"name"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

func (c CustomerPayload) ToModel(fetchedAt time.Time) *model.Customer {
	out := &model.Customer{Name: c.Name}
	out.ID = c.ID
	out.RemoteID = c.RemoteID
	out.LastModified = fetchedAt
	if c.Phone != nil {
		out.Phone = *c.Phone
	}
	if c.Email != nil {
		out.Email = *c.Email
	}
	if c.LastModified != nil {
		out.LastModified = *c.LastModified
	}
	return out
}

// Catalog is the server's reference data for one store.
type Catalog struct {
	Products   []ProductPayload  `json:"products"`
	Categories []CategoryPayload `json:"categories"`
	Customers  []CustomerPayload `json:"customers"`
}

// StockLevel is the authoritative on-hand count of one product at one store.
type StockLevel struct {
	ProductID    string    `json:"product_id"`
	StoreID      string    `json:"store_id"`
	Quantity     int       `json:"quantity"`
	LastModified time.Time `json:"last_modified"`
}
