package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/store"
)

// SalesHandler handles checkout and consumption endpoints.
type SalesHandler struct {
	DB      *sql.DB
	StoreID string
	Logger  *zap.Logger
}

type saleLineRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type createSaleRequest struct {
	CustomerID    string            `json:"customer_id"`
	PaymentMethod string            `json:"payment_method"`
	Lines         []saleLineRequest `json:"lines"`
}

// Create handles POST /api/sales.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]store.SaleLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, store.SaleLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	sale, err := store.RecordSale(r.Context(), h.DB, h.StoreID, req.CustomerID, req.PaymentMethod, lines)
	if err != nil {
		domainError(w, err)
		return
	}

	h.Logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.Int64("total_cents", sale.TotalCents),
		zap.Int("lines", len(sale.Items)))
	jsonResponse(w, http.StatusCreated, sale)
}

// Get handles GET /api/sales/{id}.
func (h *SalesHandler) Get(w http.ResponseWriter, r *http.Request) {
	sale, err := store.GetSale(r.Context(), h.DB, chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	if sale == nil {
		jsonError(w, http.StatusNotFound, "sale not found")
		return
	}
	jsonResponse(w, http.StatusOK, sale)
}

type consumptionRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// RecordConsumption handles POST /api/consumptions.
func (h *SalesHandler) RecordConsumption(w http.ResponseWriter, r *http.Request) {
	var req consumptionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		jsonError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	c, err := store.RecordConsumption(r.Context(), h.DB, h.StoreID, req.ProductID, req.Quantity, req.Reason)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}
