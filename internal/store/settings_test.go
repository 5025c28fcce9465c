package store

import (
	"context"
	"testing"

	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/model"
)

func TestSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, "missing")
	if err != nil || v != "" {
		t.Fatalf("expected empty value, got %q (%v)", v, err)
	}

	if err := SetSetting(ctx, database, "currency", "EUR"); err != nil {
		t.Fatalf("setting value: %v", err)
	}
	if err := SetSetting(ctx, database, "currency", "USD"); err != nil {
		t.Fatalf("overwriting value: %v", err)
	}
	v, err = GetSetting(ctx, database, "currency")
	if err != nil || v != "USD" {
		t.Fatalf("expected USD, got %q (%v)", v, err)
	}
}

func TestEnsureDeviceIDIsStable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := EnsureDeviceID(ctx, database)
	if err != nil || first == "" {
		t.Fatalf("generating device id: %q (%v)", first, err)
	}

	second, err := EnsureDeviceID(ctx, database)
	if err != nil {
		t.Fatalf("re-reading device id: %v", err)
	}
	if second != first {
		t.Fatalf("device id changed: %q then %q", first, second)
	}
}

func TestSyncLog(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := AppendSyncLog(ctx, database, "sales", "rec-1", model.SyncOpInsert)
	if err != nil {
		t.Fatalf("appending sync log: %v", err)
	}
	if err := FinishSyncLog(ctx, database, id, model.SyncLogSynced, ""); err != nil {
		t.Fatalf("finishing sync log: %v", err)
	}

	failID, err := AppendSyncLog(ctx, database, "sales", "rec-2", model.SyncOpUpdate)
	if err != nil {
		t.Fatalf("appending sync log: %v", err)
	}
	if err := FinishSyncLog(ctx, database, failID, model.SyncLogFailed, "server rejected"); err != nil {
		t.Fatalf("finishing sync log: %v", err)
	}

	entries, err := ListSyncLog(ctx, database, "sales", 10)
	if err != nil {
		t.Fatalf("listing sync log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].RecordID != "rec-2" || entries[0].Status != model.SyncLogFailed || entries[0].Error != "server rejected" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[1].Status != model.SyncLogSynced || entries[1].SyncedAt == nil {
		t.Fatalf("unexpected entry %+v", entries[1])
	}
}
