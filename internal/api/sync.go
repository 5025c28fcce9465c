package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/blagajna/internal/store"
	"github.com/erazemk/blagajna/internal/sync"
)

// SyncHandler exposes manual sync triggers and replication status.
type SyncHandler struct {
	DB     *sql.DB
	Engine *sync.Engine
}

type syncResponse struct {
	ItemsProcessed int      `json:"items_processed"`
	Errors         []string `json:"errors"`
}

func writeSyncResult(w http.ResponseWriter, result *sync.Result, err error) {
	resp := syncResponse{Errors: []string{}}
	if result != nil {
		resp.ItemsProcessed = result.ItemsProcessed
		for _, e := range result.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
	}
	if err != nil {
		resp.Errors = append(resp.Errors, err.Error())
		jsonResponse(w, http.StatusBadGateway, resp)
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Catalog handles POST /api/sync/catalog.
func (h *SyncHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.CatalogDown(r.Context())
	writeSyncResult(w, result, err)
}

// Mutations handles POST /api/sync/mutations.
func (h *SyncHandler) Mutations(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.MutationsUp(r.Context())
	writeSyncResult(w, result, err)
}

// Inventory handles POST /api/sync/inventory.
func (h *SyncHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.Inventory(r.Context())
	writeSyncResult(w, result, err)
}

// Full handles POST /api/sync/full.
func (h *SyncHandler) Full(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.FullSync(r.Context())
	writeSyncResult(w, result, err)
}

// Pending handles GET /api/sync/pending, reporting per-table counts of
// records still awaiting upload.
func (h *SyncHandler) Pending(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{}
	tables := append([]string{"products"}, store.UploadTables...)
	for _, table := range tables {
		n, err := store.PendingCount(r.Context(), h.DB, table)
		if err != nil {
			domainError(w, err)
			return
		}
		counts[table] = n
	}
	jsonResponse(w, http.StatusOK, counts)
}

// Conflicts handles GET /api/sync/conflicts, listing records that need
// manual resolution, keyed by table.
func (h *SyncHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	conflicts := map[string][]map[string]any{}
	tables := append([]string{"products"}, store.UploadTables...)
	for _, table := range tables {
		records, err := store.ConflictRecords(r.Context(), h.DB, table)
		if err != nil {
			domainError(w, err)
			return
		}
		if len(records) > 0 {
			conflicts[table] = records
		}
	}
	jsonResponse(w, http.StatusOK, conflicts)
}

// Log handles GET /api/sync/log.
func (h *SyncHandler) Log(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := store.ListSyncLog(r.Context(), h.DB, r.URL.Query().Get("table"), limit)
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}
