package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/model"
)

func newTransfer(origin, destination string, items ...model.TransferItem) *model.Transfer {
	now := time.Now().UTC()
	tr := &model.Transfer{
		OriginStoreID:      origin,
		DestinationStoreID: destination,
		Status:             model.TransferPending,
		CreatedAt:          now,
		Items:              items,
	}
	tr.ID = uuid.NewString()
	tr.SyncStatus = model.SyncStatusPending
	tr.LastModified = now
	for i := range tr.Items {
		tr.Items[i].ID = uuid.NewString()
		tr.Items[i].TransferID = tr.ID
	}
	return tr
}

func TestInsertAndGetTransfer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tr := newTransfer("s1", "s2",
		model.TransferItem{ProductID: "p1", QtyRequested: 5},
		model.TransferItem{ProductID: "p2", QtyRequested: 3},
	)
	if err := InsertTransfer(ctx, database, tr); err != nil {
		t.Fatalf("inserting transfer: %v", err)
	}

	got, err := GetTransfer(ctx, database, tr.ID)
	if err != nil {
		t.Fatalf("getting transfer: %v", err)
	}
	if got == nil || got.Status != model.TransferPending || len(got.Items) != 2 {
		t.Fatalf("unexpected transfer %+v", got)
	}
	if got.Items[0].QtyShipped != nil {
		t.Fatalf("qty_shipped should start unset")
	}

	missing, err := GetTransfer(ctx, database, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing transfer, got %+v (%v)", missing, err)
	}
}

func TestListTransfers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	out := newTransfer("s1", "s2", model.TransferItem{ProductID: "p1", QtyRequested: 1})
	in := newTransfer("s3", "s1", model.TransferItem{ProductID: "p2", QtyRequested: 2})
	unrelated := newTransfer("s4", "s5", model.TransferItem{ProductID: "p3", QtyRequested: 3})
	for _, tr := range []*model.Transfer{out, in, unrelated} {
		if err := InsertTransfer(ctx, database, tr); err != nil {
			t.Fatalf("inserting transfer: %v", err)
		}
	}

	transfers, err := ListTransfers(ctx, database, "s1", "")
	if err != nil {
		t.Fatalf("listing transfers: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers involving s1, got %d", len(transfers))
	}

	transfers, err = ListTransfers(ctx, database, "s1", model.TransferCompleted)
	if err != nil {
		t.Fatalf("listing transfers: %v", err)
	}
	if len(transfers) != 0 {
		t.Fatalf("expected no completed transfers, got %d", len(transfers))
	}
}

func TestTransferStatusAndItemUpdates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tr := newTransfer("s1", "s2", model.TransferItem{ProductID: "p1", QtyRequested: 5})
	if err := InsertTransfer(ctx, database, tr); err != nil {
		t.Fatalf("inserting transfer: %v", err)
	}
	if err := MarkSynced(ctx, database, "transfers", tr.ID, "srv-t1"); err != nil {
		t.Fatalf("marking synced: %v", err)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("beginning tx: %v", err)
	}
	now := time.Now().UTC()
	if err := SetItemShippedTx(ctx, tx, tr.Items[0].ID, 4); err != nil {
		t.Fatalf("setting shipped: %v", err)
	}
	if err := SetTransferStatusTx(ctx, tx, tr.ID, model.TransferInTransit, now); err != nil {
		t.Fatalf("setting status: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("committing: %v", err)
	}

	got, _ := GetTransfer(ctx, database, tr.ID)
	if got.Status != model.TransferInTransit || got.ShippedAt == nil {
		t.Fatalf("transition not recorded: %+v", got)
	}
	if got.SyncStatus != model.SyncStatusPending {
		t.Fatalf("transition must flip sync status back to pending, got %s", got.SyncStatus)
	}
	if got.Items[0].QtyShipped == nil || *got.Items[0].QtyShipped != 4 {
		t.Fatalf("shipped quantity not recorded: %+v", got.Items[0])
	}
}
