package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/store"
)

// ProductsHandler handles product and stock endpoints.
type ProductsHandler struct {
	DB      *sql.DB
	StoreID string
}

type createProductRequest struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	CostCents     int64  `json:"cost_cents"`
	StockQuantity int    `json:"stock_quantity"`
	MinStockLevel int    `json:"min_stock_level"`
	IsWeighted    bool   `json:"is_weighted"`
	Barcode       string `json:"barcode"`
	CategoryID    string `json:"category_id"`
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &model.Product{
		StoreID:       h.StoreID,
		SKU:           req.SKU,
		Name:          req.Name,
		PriceCents:    req.PriceCents,
		CostCents:     req.CostCents,
		StockQuantity: req.StockQuantity,
		MinStockLevel: req.MinStockLevel,
		IsWeighted:    req.IsWeighted,
		Barcode:       req.Barcode,
		CategoryID:    req.CategoryID,
	}

	created, err := store.CreateProduct(r.Context(), h.DB, p)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := store.GetProduct(r.Context(), h.DB, chi.URLParam(r, "id"), h.StoreID)
	if err != nil {
		domainError(w, err)
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := store.ListProducts(r.Context(), h.DB, h.StoreID)
	if err != nil {
		domainError(w, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// LowStock handles GET /api/products/low-stock.
func (h *ProductsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := store.LowStockProducts(r.Context(), h.DB, h.StoreID)
	if err != nil {
		domainError(w, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

type adjustStockRequest struct {
	ProductID     string `json:"product_id"`
	Delta         int    `json:"delta"`
	AllowNegative bool   `json:"allow_negative"`
}

// AdjustStock handles POST /api/stock/adjust.
func (h *ProductsHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		jsonError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	p, err := store.AdjustStock(r.Context(), h.DB, req.ProductID, h.StoreID, req.Delta, req.AllowNegative)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}
