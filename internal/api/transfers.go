package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/store"
	"github.com/erazemk/blagajna/internal/transfer"
)

// TransfersHandler handles transfer lifecycle endpoints. This terminal's
// store is the caller for every transition, so the manager's authority
// checks follow from configuration rather than request data.
type TransfersHandler struct {
	DB      *sql.DB
	StoreID string
	Manager *transfer.Manager
}

type transferItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createTransferRequest struct {
	DestinationStoreID string                `json:"destination_store_id"`
	Items              []transferItemRequest `json:"items"`
	Notes              string                `json:"notes"`
}

// Create handles POST /api/transfers. The local store is always the origin.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]transfer.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, transfer.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	t, err := h.Manager.Create(r.Context(), h.StoreID, req.DestinationStoreID, items, req.Notes)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, t)
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	transfers, err := store.ListTransfers(r.Context(), h.DB, h.StoreID, r.URL.Query().Get("status"))
	if err != nil {
		domainError(w, err)
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := store.GetTransfer(r.Context(), h.DB, chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "transfer not found")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

type shipTransferRequest struct {
	// Shipped overrides the requested quantity per product id; products left
	// out ship in full.
	Shipped map[string]int `json:"shipped"`
}

// Ship handles POST /api/transfers/{id}/ship.
func (h *TransfersHandler) Ship(w http.ResponseWriter, r *http.Request) {
	var req shipTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Manager.Ship(r.Context(), chi.URLParam(r, "id"), h.StoreID, req.Shipped)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

type receiveTransferRequest struct {
	// Counts is the quantity counted on arrival per product id; products left
	// out were not received.
	Counts map[string]int `json:"counts"`
}

// Receive handles POST /api/transfers/{id}/receive.
func (h *TransfersHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req receiveTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Manager.Receive(r.Context(), chi.URLParam(r, "id"), h.StoreID, req.Counts)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Cancel handles POST /api/transfers/{id}/cancel.
func (h *TransfersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	t, err := h.Manager.Cancel(r.Context(), chi.URLParam(r, "id"), h.StoreID)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, t)
}
