package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/remote"
	"github.com/erazemk/blagajna/internal/retry"
	"github.com/erazemk/blagajna/internal/store"
	syncpkg "github.com/erazemk/blagajna/internal/sync"
	"github.com/erazemk/blagajna/internal/transfer"
)

type stubRemote struct {
	catalog remote.Catalog
	pushed  int
}

func (s *stubRemote) FetchCatalog(ctx context.Context, storeID string) (*remote.Catalog, error) {
	c := s.catalog
	return &c, nil
}

func (s *stubRemote) FetchStockLevels(ctx context.Context, storeID string) ([]remote.StockLevel, error) {
	return nil, nil
}

func (s *stubRemote) PushRecord(ctx context.Context, table, id string, payload map[string]any) (string, error) {
	s.pushed++
	return "srv-1", nil
}

func (s *stubRemote) PushStockLevel(ctx context.Context, level remote.StockLevel) error {
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *sql.DB, *stubRemote) {
	t.Helper()
	database := db.NewTestDB(t)
	logger := zap.NewNop()
	rmt := &stubRemote{}

	manager := transfer.NewManager(database, logger)
	policy := retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, Transient: remote.IsTransient}
	engine := syncpkg.NewEngine(database, rmt, policy, "store-1", logger)

	srv := httptest.NewServer(NewRouter(database, "store-1", manager, engine, logger))
	t.Cleanup(srv.Close)
	return srv, database, rmt
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestProductLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]any{
		"sku": "A-1", "name": "Apples", "price_cents": 120, "stock_quantity": 10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decode[model.Product](t, resp)
	if created.ID == "" || created.SyncStatus != model.SyncStatusPending {
		t.Fatalf("unexpected product %+v", created)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/stock/adjust", map[string]any{
		"product_id": created.ID, "delta": -4,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	adjusted := decode[model.Product](t, resp)
	if adjusted.StockQuantity != 6 {
		t.Fatalf("expected stock 6, got %d", adjusted.StockQuantity)
	}

	// Driving stock negative without allow_negative conflicts.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/stock/adjust", map[string]any{
		"product_id": created.ID, "delta": -10,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	// Missing products are a 404.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/stock/adjust", map[string]any{
		"product_id": "nope", "delta": 1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSaleEndpoint(t *testing.T) {
	srv, database, _ := newTestServer(t)

	p := &model.Product{StoreID: "store-1", SKU: "A-1", Name: "Apples", PriceCents: 150, StockQuantity: 5}
	if _, err := store.CreateProduct(context.Background(), database, p); err != nil {
		t.Fatalf("seeding product: %v", err)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", map[string]any{
		"payment_method": "cash",
		"lines":          []map[string]any{{"product_id": p.ID, "quantity": 2}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	sale := decode[model.Sale](t, resp)
	if sale.TotalCents != 300 {
		t.Fatalf("expected total 300, got %d", sale.TotalCents)
	}

	// Validation failures are a 400.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sales", map[string]any{
		"payment_method": "cash",
		"lines":          []map[string]any{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTransferEndpoints(t *testing.T) {
	srv, database, _ := newTestServer(t)
	ctx := context.Background()

	p := &model.Product{StoreID: "store-1", SKU: "A-1", Name: "Apples", PriceCents: 150, StockQuantity: 20}
	p.ID = "p1"
	if _, err := store.CreateProduct(ctx, database, p); err != nil {
		t.Fatalf("seeding product: %v", err)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/transfers", map[string]any{
		"destination_store_id": "store-2",
		"items":                []map[string]any{{"product_id": "p1", "quantity": 10}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decode[model.Transfer](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/transfers/"+created.ID+"/ship", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	shipped := decode[model.Transfer](t, resp)
	if shipped.Status != model.TransferInTransit {
		t.Fatalf("expected in_transit, got %s", shipped.Status)
	}

	// This terminal is the origin, not the destination, so receiving here
	// is rejected.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/transfers/"+created.ID+"/receive", map[string]any{
		"counts": map[string]int{"p1": 10},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Cancelling after shipment is an invalid transition.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/transfers/"+created.ID+"/cancel", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transfers?status=in_transit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	list := decode[[]model.Transfer](t, resp)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected transfer list %+v", list)
	}
}

func TestSyncEndpoints(t *testing.T) {
	srv, database, rmt := newTestServer(t)
	ctx := context.Background()

	modified := time.Now().UTC().Add(-time.Hour)
	rmt.catalog = remote.Catalog{
		Products: []remote.ProductPayload{
			{ID: "p1", RemoteID: "srv-p1", SKU: "A-1", Name: "Apples", PriceCents: 120, LastModified: &modified},
		},
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sync/catalog", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result := decode[map[string]any](t, resp)
	if result["items_processed"] != float64(1) {
		t.Fatalf("unexpected sync result %v", result)
	}

	if _, err := store.RecordSale(ctx, database, "store-1", "", "cash", []store.SaleLine{{ProductID: "p1", Quantity: 1}}); err != nil {
		t.Fatalf("recording sale: %v", err)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sync/pending", nil)
	pending := decode[map[string]int](t, resp)
	if pending["sales"] != 1 || pending["products"] != 1 {
		t.Fatalf("unexpected pending counts %v", pending)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sync/full", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if rmt.pushed != 1 {
		t.Fatalf("expected 1 pushed record, got %d", rmt.pushed)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sync/log", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
