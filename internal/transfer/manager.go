package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/store"
)

// ErrInvalidTransition is returned when a lifecycle operation is attempted
// from a state that does not permit it.
var ErrInvalidTransition = errors.New("invalid transfer transition")

// ItemRequest is one product line of a new transfer.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// Manager drives the transfer lifecycle: pending -> in_transit -> completed,
// with cancellation allowed only while pending. Every transition that moves
// stock does so in the same transaction as the status change.
type Manager struct {
	db     *sql.DB
	logger *zap.Logger

	// allowOvership lets a shipment drive origin stock negative instead of
	// rejecting it, for stores whose physical counts are known to drift.
	allowOvership bool
}

// NewManager returns a Manager that rejects shipments exceeding on-hand stock.
func NewManager(db *sql.DB, logger *zap.Logger) *Manager {
	return &Manager{db: db, logger: logger}
}

// AllowOvership disables the on-hand stock check when shipping.
func (m *Manager) AllowOvership() {
	m.allowOvership = true
}

// Create opens a transfer in pending state. Nothing about stock changes yet.
func (m *Manager) Create(ctx context.Context, originStoreID, destinationStoreID string, items []ItemRequest, notes string) (*model.Transfer, error) {
	if originStoreID == "" || destinationStoreID == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", store.ErrValidation)
	}
	if originStoreID == destinationStoreID {
		return nil, fmt.Errorf("%w: origin and destination must differ", store.ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: a transfer needs at least one item", store.ErrValidation)
	}
	for _, it := range items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("%w: item product_id is required", store.ErrValidation)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", store.ErrValidation)
		}
	}

	now := time.Now().UTC()
	t := &model.Transfer{
		OriginStoreID:      originStoreID,
		DestinationStoreID: destinationStoreID,
		Status:             model.TransferPending,
		Notes:              notes,
		CreatedAt:          now,
	}
	t.ID = uuid.NewString()
	t.SyncStatus = model.SyncStatusPending
	t.LastModified = now

	for _, it := range items {
		t.Items = append(t.Items, model.TransferItem{
			ID:           uuid.NewString(),
			TransferID:   t.ID,
			ProductID:    it.ProductID,
			QtyRequested: it.Quantity,
		})
	}

	if err := store.InsertTransfer(ctx, m.db, t); err != nil {
		return nil, err
	}

	m.logger.Info("transfer created",
		zap.String("transfer_id", t.ID),
		zap.String("origin", originStoreID),
		zap.String("destination", destinationStoreID),
		zap.Int("items", len(t.Items)))

	return store.GetTransfer(ctx, m.db, t.ID)
}

// Ship moves a pending transfer to in_transit, recording shipped quantities
// and decrementing origin stock atomically. Only the origin store may ship.
// shipped overrides the requested quantity per product id; absent products
// ship the full requested amount.
func (m *Manager) Ship(ctx context.Context, id, callerStoreID string, shipped map[string]int) (*model.Transfer, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := store.GetTransferTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("transfer %s: %w", id, store.ErrNotFound)
	}
	if t.OriginStoreID != callerStoreID {
		return nil, fmt.Errorf("%w: only the origin store can ship", store.ErrValidation)
	}
	if t.Status != model.TransferPending {
		return nil, fmt.Errorf("%w: cannot ship a %s transfer", ErrInvalidTransition, t.Status)
	}

	items, err := store.GetTransferItemsTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, it := range items {
		qty := it.QtyRequested
		if override, ok := shipped[it.ProductID]; ok {
			if override < 0 {
				return nil, fmt.Errorf("%w: shipped quantity must not be negative", store.ErrValidation)
			}
			qty = override
		}

		if err := store.SetItemShippedTx(ctx, tx, it.ID, qty); err != nil {
			return nil, err
		}
		if qty == 0 {
			continue
		}
		if err := store.AdjustStockTx(ctx, tx, it.ProductID, t.OriginStoreID, -qty, m.allowOvership, now); err != nil {
			return nil, err
		}
	}

	if err := store.SetTransferStatusTx(ctx, tx, id, model.TransferInTransit, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing shipment: %w", err)
	}

	m.logger.Info("transfer shipped", zap.String("transfer_id", id))
	return store.GetTransfer(ctx, m.db, id)
}

// Receive moves an in_transit transfer to completed, recording counted
// quantities and incrementing destination stock atomically. Only the
// destination store may receive. counts gives the quantity counted per
// product id; a product absent from counts was not received at all. Any gap
// between shipped and received stays on the item as a discrepancy and is
// never folded back into origin stock.
func (m *Manager) Receive(ctx context.Context, id, callerStoreID string, counts map[string]int) (*model.Transfer, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := store.GetTransferTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("transfer %s: %w", id, store.ErrNotFound)
	}
	if t.DestinationStoreID != callerStoreID {
		return nil, fmt.Errorf("%w: only the destination store can receive", store.ErrValidation)
	}
	if t.Status != model.TransferInTransit {
		return nil, fmt.Errorf("%w: cannot receive a %s transfer", ErrInvalidTransition, t.Status)
	}

	items, err := store.GetTransferItemsTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, it := range items {
		qty := counts[it.ProductID]
		if qty < 0 {
			return nil, fmt.Errorf("%w: received quantity must not be negative", store.ErrValidation)
		}

		if err := store.SetItemReceivedTx(ctx, tx, it.ID, qty); err != nil {
			return nil, err
		}
		if qty == 0 {
			continue
		}
		if err := store.AdjustStockTx(ctx, tx, it.ProductID, t.DestinationStoreID, qty, true, now); err != nil {
			return nil, err
		}
	}

	if err := store.SetTransferStatusTx(ctx, tx, id, model.TransferCompleted, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing receipt: %w", err)
	}

	out, err := store.GetTransfer(ctx, m.db, id)
	if err != nil {
		return nil, err
	}
	for _, it := range out.Items {
		if d, ok := it.Discrepancy(); ok && d != 0 {
			m.logger.Warn("transfer discrepancy",
				zap.String("transfer_id", id),
				zap.String("product_id", it.ProductID),
				zap.Int("discrepancy", d))
		}
	}
	m.logger.Info("transfer received", zap.String("transfer_id", id))
	return out, nil
}

// Cancel voids a transfer that has not shipped. Nothing about stock changes.
func (m *Manager) Cancel(ctx context.Context, id, callerStoreID string) (*model.Transfer, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := store.GetTransferTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("transfer %s: %w", id, store.ErrNotFound)
	}
	if t.OriginStoreID != callerStoreID && t.DestinationStoreID != callerStoreID {
		return nil, fmt.Errorf("%w: store %s is not a party to this transfer", store.ErrValidation, callerStoreID)
	}
	if t.Status != model.TransferPending {
		return nil, fmt.Errorf("%w: cannot cancel a %s transfer", ErrInvalidTransition, t.Status)
	}

	if err := store.SetTransferStatusTx(ctx, tx, id, model.TransferCancelled, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cancellation: %w", err)
	}

	m.logger.Info("transfer cancelled", zap.String("transfer_id", id))
	return store.GetTransfer(ctx, m.db, id)
}
