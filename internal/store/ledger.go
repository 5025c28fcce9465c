package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/blagajna/internal/model"
)

// RecordConsumption books stock leaving a store outside a sale (breakage,
// spoilage, internal use), decrementing the product's on-hand count in the
// same transaction.
func RecordConsumption(ctx context.Context, db *sql.DB, storeID, productID string, quantity int, reason string) (*model.Consumption, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	id := uuid.NewString()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO consumptions (id, store_id, product_id, quantity, reason,
		     sync_status, last_modified, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`,
		id, storeID, productID, quantity, nullString(reason), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("recording consumption: %w", err)
	}

	if err := AdjustStockTx(ctx, tx, productID, storeID, -quantity, true, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing consumption: %w", err)
	}

	return getConsumption(ctx, db, id)
}

func getConsumption(ctx context.Context, db *sql.DB, id string) (*model.Consumption, error) {
	c := &model.Consumption{}
	var remoteID, reason sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, store_id, remote_id, product_id, quantity, reason,
		        sync_status, last_modified, created_at
		 FROM consumptions WHERE id = ?`, id,
	).Scan(&c.ID, &c.StoreID, &remoteID, &c.ProductID, &c.Quantity, &reason,
		&c.SyncStatus, &c.LastModified, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting consumption: %w", err)
	}
	c.RemoteID = remoteID.String
	c.Reason = reason.String
	return c, nil
}

// CreateExpense books a non-inventory cost at a store.
func CreateExpense(ctx context.Context, db *sql.DB, storeID, description string, amountCents int64) (*model.Expense, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO expenses (id, store_id, description, amount_cents, incurred_at,
		     sync_status, last_modified)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?)`,
		id, storeID, description, amountCents, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}

	e := &model.Expense{StoreID: storeID, Description: description, AmountCents: amountCents, IncurredAt: now}
	e.ID = id
	e.SyncStatus = model.SyncStatusPending
	e.LastModified = now
	return e, nil
}

// AddShoppingListItem queues a restock reminder for a product.
func AddShoppingListItem(ctx context.Context, db *sql.DB, storeID, productID string, quantity int, note string) (*model.ShoppingListItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO shopping_list_items (id, store_id, product_id, quantity, note,
		     sync_status, last_modified, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`,
		id, storeID, productID, quantity, nullString(note), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("adding shopping list item: %w", err)
	}

	item := &model.ShoppingListItem{StoreID: storeID, ProductID: productID, Quantity: quantity, Note: note, CreatedAt: now}
	item.ID = id
	item.SyncStatus = model.SyncStatusPending
	item.LastModified = now
	return item, nil
}
