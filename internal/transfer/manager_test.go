package transfer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	return NewManager(database, zap.NewNop()), database
}

func createProduct(t *testing.T, database *sql.DB, id, storeID string, stock int) {
	t.Helper()
	p := &model.Product{
		StoreID:       storeID,
		SKU:           "SKU-" + id + "-" + storeID,
		Name:          "Product " + id,
		PriceCents:    250,
		StockQuantity: stock,
	}
	p.ID = id
	if _, err := store.CreateProduct(context.Background(), database, p); err != nil {
		t.Fatalf("creating product: %v", err)
	}
}

func stockAt(t *testing.T, database *sql.DB, id, storeID string) int {
	t.Helper()
	p, err := store.GetProduct(context.Background(), database, id, storeID)
	if err != nil {
		t.Fatalf("getting product: %v", err)
	}
	if p == nil {
		t.Fatalf("product %s at %s not found", id, storeID)
	}
	return p.StockQuantity
}

func TestCreateValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	cases := []struct {
		name        string
		origin      string
		destination string
		items       []ItemRequest
	}{
		{"same store", "s1", "s1", []ItemRequest{{ProductID: "p1", Quantity: 1}}},
		{"no items", "s1", "s2", nil},
		{"zero quantity", "s1", "s2", []ItemRequest{{ProductID: "p1", Quantity: 0}}},
		{"negative quantity", "s1", "s2", []ItemRequest{{ProductID: "p1", Quantity: -3}}},
		{"missing product", "s1", "s2", []ItemRequest{{ProductID: "", Quantity: 1}}},
		{"missing origin", "", "s2", []ItemRequest{{ProductID: "p1", Quantity: 1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Create(ctx, tc.origin, tc.destination, tc.items, "")
			if !errors.Is(err, store.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTransferLifecycle(t *testing.T) {
	m, database := newTestManager(t)
	ctx := context.Background()

	createProduct(t, database, "p1", "origin", 50)
	createProduct(t, database, "p1", "destination", 5)

	tr, err := m.Create(ctx, "origin", "destination", []ItemRequest{{ProductID: "p1", Quantity: 10}}, "weekly restock")
	if err != nil {
		t.Fatalf("creating transfer: %v", err)
	}
	if tr.Status != model.TransferPending {
		t.Fatalf("expected pending, got %s", tr.Status)
	}
	if got := stockAt(t, database, "p1", "origin"); got != 50 {
		t.Fatalf("creation must not move stock, origin has %d", got)
	}

	tr, err = m.Ship(ctx, tr.ID, "origin", nil)
	if err != nil {
		t.Fatalf("shipping transfer: %v", err)
	}
	if tr.Status != model.TransferInTransit {
		t.Fatalf("expected in_transit, got %s", tr.Status)
	}
	if tr.ShippedAt == nil {
		t.Fatal("shipped_at not stamped")
	}
	if got := stockAt(t, database, "p1", "origin"); got != 40 {
		t.Fatalf("expected origin stock 40, got %d", got)
	}
	if got := *tr.Items[0].QtyShipped; got != 10 {
		t.Fatalf("expected qty_shipped 10, got %d", got)
	}

	tr, err = m.Receive(ctx, tr.ID, "destination", map[string]int{"p1": 8})
	if err != nil {
		t.Fatalf("receiving transfer: %v", err)
	}
	if tr.Status != model.TransferCompleted {
		t.Fatalf("expected completed, got %s", tr.Status)
	}
	if tr.ReceivedAt == nil {
		t.Fatal("received_at not stamped")
	}
	if got := stockAt(t, database, "p1", "destination"); got != 13 {
		t.Fatalf("expected destination stock 13, got %d", got)
	}
	// Origin keeps the full decrement; the two units lost in transit stay
	// visible as a discrepancy.
	if got := stockAt(t, database, "p1", "origin"); got != 40 {
		t.Fatalf("expected origin stock 40, got %d", got)
	}
	d, ok := tr.Items[0].Discrepancy()
	if !ok || d != -2 {
		t.Fatalf("expected discrepancy -2, got %d (recorded=%v)", d, ok)
	}
}

func TestShipGuards(t *testing.T) {
	m, database := newTestManager(t)
	ctx := context.Background()

	createProduct(t, database, "p1", "origin", 5)
	createProduct(t, database, "p1", "destination", 0)

	tr, err := m.Create(ctx, "origin", "destination", []ItemRequest{{ProductID: "p1", Quantity: 10}}, "")
	if err != nil {
		t.Fatalf("creating transfer: %v", err)
	}

	if _, err := m.Ship(ctx, tr.ID, "destination", nil); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for wrong store, got %v", err)
	}

	if _, err := m.Ship(ctx, tr.ID, "origin", nil); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	// Failed shipment must leave the transfer pending and stock untouched.
	got, err := store.GetTransfer(ctx, database, tr.ID)
	if err != nil {
		t.Fatalf("getting transfer: %v", err)
	}
	if got.Status != model.TransferPending {
		t.Fatalf("expected pending after rejected ship, got %s", got.Status)
	}
	if s := stockAt(t, database, "p1", "origin"); s != 5 {
		t.Fatalf("expected origin stock 5, got %d", s)
	}

	// Shipping a partial quantity within stock succeeds.
	tr, err = m.Ship(ctx, tr.ID, "origin", map[string]int{"p1": 5})
	if err != nil {
		t.Fatalf("shipping partial quantity: %v", err)
	}
	if got := *tr.Items[0].QtyShipped; got != 5 {
		t.Fatalf("expected qty_shipped 5, got %d", got)
	}
	if s := stockAt(t, database, "p1", "origin"); s != 0 {
		t.Fatalf("expected origin stock 0, got %d", s)
	}

	if _, err := m.Ship(ctx, tr.ID, "origin", nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for double ship, got %v", err)
	}
}

func TestShipAllowOvership(t *testing.T) {
	m, database := newTestManager(t)
	m.AllowOvership()
	ctx := context.Background()

	createProduct(t, database, "p1", "origin", 3)
	createProduct(t, database, "p1", "destination", 0)

	tr, err := m.Create(ctx, "origin", "destination", []ItemRequest{{ProductID: "p1", Quantity: 10}}, "")
	if err != nil {
		t.Fatalf("creating transfer: %v", err)
	}
	if _, err := m.Ship(ctx, tr.ID, "origin", nil); err != nil {
		t.Fatalf("shipping with overship allowed: %v", err)
	}
	if s := stockAt(t, database, "p1", "origin"); s != -7 {
		t.Fatalf("expected origin stock -7, got %d", s)
	}
}

func TestReceiveGuards(t *testing.T) {
	m, database := newTestManager(t)
	ctx := context.Background()

	createProduct(t, database, "p1", "origin", 20)
	createProduct(t, database, "p1", "destination", 0)

	tr, err := m.Create(ctx, "origin", "destination", []ItemRequest{{ProductID: "p1", Quantity: 10}}, "")
	if err != nil {
		t.Fatalf("creating transfer: %v", err)
	}

	// Cannot receive before shipping.
	if _, err := m.Receive(ctx, tr.ID, "destination", map[string]int{"p1": 10}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	if _, err := m.Ship(ctx, tr.ID, "origin", nil); err != nil {
		t.Fatalf("shipping transfer: %v", err)
	}

	if _, err := m.Receive(ctx, tr.ID, "origin", map[string]int{"p1": 10}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for wrong store, got %v", err)
	}

	// An item absent from the counts was received as zero.
	tr, err = m.Receive(ctx, tr.ID, "destination", nil)
	if err != nil {
		t.Fatalf("receiving transfer: %v", err)
	}
	if got := *tr.Items[0].QtyReceived; got != 0 {
		t.Fatalf("expected qty_received 0, got %d", got)
	}
	if s := stockAt(t, database, "p1", "destination"); s != 0 {
		t.Fatalf("expected destination stock 0, got %d", s)
	}
	d, ok := tr.Items[0].Discrepancy()
	if !ok || d != -10 {
		t.Fatalf("expected discrepancy -10, got %d (recorded=%v)", d, ok)
	}

	if _, err := m.Receive(ctx, tr.ID, "destination", nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for double receive, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	m, database := newTestManager(t)
	ctx := context.Background()

	createProduct(t, database, "p1", "origin", 20)
	createProduct(t, database, "p1", "destination", 0)

	tr, err := m.Create(ctx, "origin", "destination", []ItemRequest{{ProductID: "p1", Quantity: 10}}, "")
	if err != nil {
		t.Fatalf("creating transfer: %v", err)
	}

	if _, err := m.Cancel(ctx, tr.ID, "other"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for outside store, got %v", err)
	}

	tr, err = m.Cancel(ctx, tr.ID, "destination")
	if err != nil {
		t.Fatalf("cancelling transfer: %v", err)
	}
	if tr.Status != model.TransferCancelled {
		t.Fatalf("expected cancelled, got %s", tr.Status)
	}
	if s := stockAt(t, database, "p1", "origin"); s != 20 {
		t.Fatalf("cancellation must not move stock, origin has %d", s)
	}

	// A cancelled transfer is terminal.
	if _, err := m.Ship(ctx, tr.ID, "origin", nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCancelAfterShipRejected(t *testing.T) {
	m, database := newTestManager(t)
	ctx := context.Background()

	createProduct(t, database, "p1", "origin", 20)
	createProduct(t, database, "p1", "destination", 0)

	tr, err := m.Create(ctx, "origin", "destination", []ItemRequest{{ProductID: "p1", Quantity: 10}}, "")
	if err != nil {
		t.Fatalf("creating transfer: %v", err)
	}
	if _, err := m.Ship(ctx, tr.ID, "origin", nil); err != nil {
		t.Fatalf("shipping transfer: %v", err)
	}
	if _, err := m.Cancel(ctx, tr.ID, "origin"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransitionsMarkSyncPending(t *testing.T) {
	m, database := newTestManager(t)
	ctx := context.Background()

	createProduct(t, database, "p1", "origin", 20)
	createProduct(t, database, "p1", "destination", 0)

	tr, err := m.Create(ctx, "origin", "destination", []ItemRequest{{ProductID: "p1", Quantity: 4}}, "")
	if err != nil {
		t.Fatalf("creating transfer: %v", err)
	}
	if tr.SyncStatus != model.SyncStatusPending {
		t.Fatalf("expected pending sync status, got %s", tr.SyncStatus)
	}

	// Simulate a completed upload, then verify shipping flips it back.
	if err := store.MarkSynced(ctx, database, "transfers", tr.ID, "remote-1"); err != nil {
		t.Fatalf("marking synced: %v", err)
	}
	tr, err = m.Ship(ctx, tr.ID, "origin", nil)
	if err != nil {
		t.Fatalf("shipping transfer: %v", err)
	}
	if tr.SyncStatus != model.SyncStatusPending {
		t.Fatalf("expected transition to re-mark pending, got %s", tr.SyncStatus)
	}
	if tr.RemoteID != "remote-1" {
		t.Fatalf("expected remote id preserved, got %q", tr.RemoteID)
	}
}
