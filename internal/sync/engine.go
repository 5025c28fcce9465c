// Package sync reconciles the local terminal database with the central
// server. Three passes cover the three directions of data flow: catalog
// reference data comes down, local mutations go up, and stock levels are
// reconciled both ways. A pass never aborts because one record failed; it
// records the failure and moves on.
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/remote"
	"github.com/erazemk/blagajna/internal/retry"
	"github.com/erazemk/blagajna/internal/store"
)

// Remote is the server surface the engine needs. *remote.Client satisfies
// it; tests substitute a fake.
type Remote interface {
	FetchCatalog(ctx context.Context, storeID string) (*remote.Catalog, error)
	FetchStockLevels(ctx context.Context, storeID string) ([]remote.StockLevel, error)
	PushRecord(ctx context.Context, table, id string, payload map[string]any) (string, error)
	PushStockLevel(ctx context.Context, level remote.StockLevel) error
}

// RecordError is one record that a pass could not process.
type RecordError struct {
	Table    string
	RecordID string
	Err      error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Table, e.RecordID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// Result summarizes one pass.
type Result struct {
	ItemsProcessed int
	Errors         []RecordError
}

func (r *Result) merge(other *Result) {
	if other == nil {
		return
	}
	r.ItemsProcessed += other.ItemsProcessed
	r.Errors = append(r.Errors, other.Errors...)
}

// Engine runs sync passes against one store's local database.
type Engine struct {
	db      *sql.DB
	remote  Remote
	policy  retry.Policy
	storeID string
	logger  *zap.Logger
}

// NewEngine wires an engine. A zero-valued policy gets the default upload
// cadence with the remote package's transient classification.
func NewEngine(db *sql.DB, rmt Remote, policy retry.Policy, storeID string, logger *zap.Logger) *Engine {
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy(remote.IsTransient)
	}
	if policy.Transient == nil {
		policy.Transient = remote.IsTransient
	}
	return &Engine{db: db, remote: rmt, policy: policy, storeID: storeID, logger: logger}
}

// CatalogDown pulls the server's reference data and applies it locally.
// Records are upserted by their stable id, so repeating the pass is
// harmless. A local record with unpushed changes newer than the server's
// copy is left alone; an exact timestamp tie goes to the server.
func (e *Engine) CatalogDown(ctx context.Context) (*Result, error) {
	result := &Result{}

	var catalog *remote.Catalog
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		catalog, err = e.remote.FetchCatalog(ctx, e.storeID)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("downloading catalog: %w", err)
	}

	now := time.Now().UTC()

	for _, p := range catalog.Categories {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		incoming := p.ToModel(now)
		local, err := store.GetCategory(ctx, e.db, incoming.ID)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{"categories", incoming.ID, err})
			continue
		}
		if local != nil && localWins(local.SyncStatus, local.LastModified, incoming.LastModified) {
			continue
		}
		if err := store.SaveRemoteCategory(ctx, e.db, incoming); err != nil {
			result.Errors = append(result.Errors, RecordError{"categories", incoming.ID, err})
			continue
		}
		result.ItemsProcessed++
	}

	for _, p := range catalog.Customers {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		incoming := p.ToModel(now)
		local, err := store.GetCustomer(ctx, e.db, incoming.ID)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{"customers", incoming.ID, err})
			continue
		}
		if local != nil && localWins(local.SyncStatus, local.LastModified, incoming.LastModified) {
			continue
		}
		if err := store.SaveRemoteCustomer(ctx, e.db, incoming); err != nil {
			result.Errors = append(result.Errors, RecordError{"customers", incoming.ID, err})
			continue
		}
		result.ItemsProcessed++
	}

	for _, p := range catalog.Products {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		incoming := p.ToModel(e.storeID, now)
		local, err := store.GetProduct(ctx, e.db, incoming.ID, e.storeID)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{"products", incoming.ID, err})
			continue
		}
		if local != nil && localWins(local.SyncStatus, local.LastModified, incoming.LastModified) {
			continue
		}
		if err := store.SaveRemoteProduct(ctx, e.db, incoming); err != nil {
			result.Errors = append(result.Errors, RecordError{"products", incoming.ID, err})
			continue
		}
		result.ItemsProcessed++
	}

	e.logger.Info("catalog download finished",
		zap.Int("items", result.ItemsProcessed),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// localWins reports whether an unpushed local change outranks the incoming
// record. Only a strictly newer local timestamp wins; ties favor the server.
func localWins(status string, local, incoming time.Time) bool {
	return status == model.SyncStatusPending && local.After(incoming)
}

// MutationsUp pushes every pending record of the write-heavy tables to the
// server. Each record is retried per the policy; a definitive rejection or
// exhausted retries marks the record conflict for manual attention and the
// pass carries on with the next one.
func (e *Engine) MutationsUp(ctx context.Context) (*Result, error) {
	result := &Result{}

	for _, table := range store.UploadTables {
		records, err := store.PendingRecords(ctx, e.db, table)
		if err != nil {
			return result, fmt.Errorf("listing pending %s: %w", table, err)
		}

		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := e.uploadRecord(ctx, table, rec); err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				result.Errors = append(result.Errors, RecordError{table, rec.ID, err})
				continue
			}
			result.ItemsProcessed++
		}
	}

	e.logger.Info("mutation upload finished",
		zap.Int("items", result.ItemsProcessed),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (e *Engine) uploadRecord(ctx context.Context, table string, rec store.PendingRecord) error {
	payload := rec.Payload

	// Line items travel nested inside their parent payload so the server
	// applies both in one step.
	switch table {
	case "sales":
		items, err := store.SaleItemPayloads(ctx, e.db, rec.ID)
		if err != nil {
			return err
		}
		payload["items"] = items
	case "transfers":
		items, err := store.TransferItemPayloads(ctx, e.db, rec.ID)
		if err != nil {
			return err
		}
		payload["items"] = items
	}

	operation := model.SyncOpUpdate
	if rid, _ := payload["remote_id"].(string); rid == "" {
		operation = model.SyncOpInsert
	}

	logID, err := store.AppendSyncLog(ctx, e.db, table, rec.ID, operation)
	if err != nil {
		return err
	}

	var remoteID string
	pushErr := e.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		remoteID, err = e.remote.PushRecord(ctx, table, rec.ID, payload)
		return err
	})
	if pushErr != nil {
		if ctx.Err() != nil {
			return pushErr
		}
		e.logger.Warn("upload failed, marking conflict",
			zap.String("table", table),
			zap.String("record_id", rec.ID),
			zap.Error(pushErr))
		if err := store.MarkConflict(ctx, e.db, table, rec.ID); err != nil {
			return err
		}
		if err := store.FinishSyncLog(ctx, e.db, logID, model.SyncLogFailed, pushErr.Error()); err != nil {
			return err
		}
		return pushErr
	}

	if err := store.MarkSynced(ctx, e.db, table, rec.ID, remoteID); err != nil {
		return err
	}
	if table == "sales" {
		if err := store.MarkSaleItemsSynced(ctx, e.db, rec.ID); err != nil {
			return err
		}
	}
	return store.FinishSyncLog(ctx, e.db, logID, model.SyncLogSynced, "")
}

// Inventory reconciles stock counts in both directions. Unpushed local
// changes are reported upward first, so a local count can never be lost to
// an overwrite; the server's figures are then applied to every acknowledged
// row. Rows pushed within the same pass are skipped on the way down, since
// the fetched figure predates what was just reported.
func (e *Engine) Inventory(ctx context.Context) (*Result, error) {
	result := &Result{}

	pending, err := store.PendingProducts(ctx, e.db, e.storeID)
	if err != nil {
		return result, fmt.Errorf("listing pending products: %w", err)
	}

	pushed := make(map[string]bool, len(pending))
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := e.uploadStock(ctx, p); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors = append(result.Errors, RecordError{"products", p.ID, err})
			continue
		}
		pushed[p.ID] = true
		result.ItemsProcessed++
	}

	var levels []remote.StockLevel
	err = e.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		levels, err = e.remote.FetchStockLevels(ctx, e.storeID)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("downloading stock levels: %w", err)
	}

	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if level.StoreID != "" && level.StoreID != e.storeID {
			continue
		}
		if pushed[level.ProductID] {
			continue
		}

		local, err := store.GetProduct(ctx, e.db, level.ProductID, e.storeID)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{"products", level.ProductID, err})
			continue
		}
		if local == nil {
			// Unknown product; the catalog pass owns creation.
			continue
		}
		if local.SyncStatus != model.SyncStatusSynced {
			// Pending and conflict rows hold unacknowledged local changes.
			continue
		}
		if err := store.SetStockFromRemote(ctx, e.db, level.ProductID, e.storeID, level.Quantity, level.LastModified); err != nil {
			result.Errors = append(result.Errors, RecordError{"products", level.ProductID, err})
			continue
		}
		result.ItemsProcessed++
	}

	e.logger.Info("inventory reconciliation finished",
		zap.Int("items", result.ItemsProcessed),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// uploadStock reports one pending product upward. A product the server has
// never acknowledged has no definition there yet, so the whole record goes
// up instead of a bare count. Acknowledgement is scoped to this store's copy
// of the row.
func (e *Engine) uploadStock(ctx context.Context, p model.Product) error {
	if p.RemoteID == "" {
		payload, err := store.ProductRecord(ctx, e.db, p.ID, p.StoreID)
		if err != nil {
			return err
		}
		var remoteID string
		pushErr := e.policy.Do(ctx, func(ctx context.Context) error {
			var err error
			remoteID, err = e.remote.PushRecord(ctx, "products", p.ID, payload)
			return err
		})
		if pushErr != nil {
			if ctx.Err() != nil {
				return pushErr
			}
			e.logger.Warn("product upload failed, marking conflict",
				zap.String("product_id", p.ID),
				zap.Error(pushErr))
			if err := store.MarkProductConflict(ctx, e.db, p.ID, p.StoreID); err != nil {
				return err
			}
			return pushErr
		}
		return store.MarkProductSynced(ctx, e.db, p.ID, p.StoreID, remoteID)
	}

	level := remote.StockLevel{
		ProductID:    p.ID,
		StoreID:      p.StoreID,
		Quantity:     p.StockQuantity,
		LastModified: p.LastModified,
	}
	pushErr := e.policy.Do(ctx, func(ctx context.Context) error {
		return e.remote.PushStockLevel(ctx, level)
	})
	if pushErr != nil {
		if ctx.Err() != nil {
			return pushErr
		}
		e.logger.Warn("stock upload failed, marking conflict",
			zap.String("product_id", p.ID),
			zap.Error(pushErr))
		if err := store.MarkProductConflict(ctx, e.db, p.ID, p.StoreID); err != nil {
			return err
		}
		return pushErr
	}
	return store.MarkProductSynced(ctx, e.db, p.ID, p.StoreID, p.RemoteID)
}

// FullSync runs all three passes in order: catalog down, mutations up,
// inventory both ways. The combined result covers whatever completed before
// any pass-level error.
func (e *Engine) FullSync(ctx context.Context) (*Result, error) {
	result := &Result{}

	r, err := e.CatalogDown(ctx)
	result.merge(r)
	if err != nil {
		return result, err
	}

	r, err = e.MutationsUp(ctx)
	result.merge(r)
	if err != nil {
		return result, err
	}

	r, err = e.Inventory(ctx)
	result.merge(r)
	return result, err
}
