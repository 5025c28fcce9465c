package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/sync"
	"github.com/erazemk/blagajna/internal/transfer"
)

// NewRouter creates the API router with all endpoints registered. storeID is
// the store this terminal belongs to; every handler scopes its queries to it.
func NewRouter(db *sql.DB, storeID string, transfers *transfer.Manager, engine *sync.Engine, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	products := &ProductsHandler{DB: db, StoreID: storeID}
	sales := &SalesHandler{DB: db, StoreID: storeID, Logger: logger}
	transfersHandler := &TransfersHandler{DB: db, StoreID: storeID, Manager: transfers}
	syncHandler := &SyncHandler{DB: db, Engine: engine}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", products.List)
		r.Post("/products", products.Create)
		r.Get("/products/low-stock", products.LowStock)
		r.Get("/products/{id}", products.Get)
		r.Post("/stock/adjust", products.AdjustStock)

		r.Post("/sales", sales.Create)
		r.Get("/sales/{id}", sales.Get)
		r.Post("/consumptions", sales.RecordConsumption)

		r.Post("/transfers", transfersHandler.Create)
		r.Get("/transfers", transfersHandler.List)
		r.Get("/transfers/{id}", transfersHandler.Get)
		r.Post("/transfers/{id}/ship", transfersHandler.Ship)
		r.Post("/transfers/{id}/receive", transfersHandler.Receive)
		r.Post("/transfers/{id}/cancel", transfersHandler.Cancel)

		r.Post("/sync/catalog", syncHandler.Catalog)
		r.Post("/sync/mutations", syncHandler.Mutations)
		r.Post("/sync/inventory", syncHandler.Inventory)
		r.Post("/sync/full", syncHandler.Full)
		r.Get("/sync/pending", syncHandler.Pending)
		r.Get("/sync/conflicts", syncHandler.Conflicts)
		r.Get("/sync/log", syncHandler.Log)
	})

	return r
}
