package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/blagajna/internal/model"
)

// InsertTransfer persists a new transfer and its items in one transaction.
// State-machine validation belongs to the transfer package; this only writes.
func InsertTransfer(ctx context.Context, db *sql.DB, t *model.Transfer) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transfers (id, origin_store_id, destination_store_id, status, notes,
		     sync_status, last_modified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OriginStoreID, t.DestinationStoreID, t.Status, nullString(t.Notes),
		t.SyncStatus, t.LastModified, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting transfer: %w", err)
	}

	for _, it := range t.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transfer_items (id, transfer_id, product_id, qty_requested)
			 VALUES (?, ?, ?, ?)`,
			it.ID, t.ID, it.ProductID, it.QtyRequested,
		)
		if err != nil {
			return fmt.Errorf("inserting transfer item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transfer: %w", err)
	}
	return nil
}

// GetTransfer returns a transfer with its items, or nil if absent.
func GetTransfer(ctx context.Context, db *sql.DB, id string) (*model.Transfer, error) {
	t, err := getTransfer(ctx, db, id)
	if err != nil || t == nil {
		return t, err
	}
	t.Items, err = GetTransferItems(ctx, db, id)
	return t, err
}

// GetTransferTx reads a transfer (without items) inside a transaction, so a
// state transition can validate against the row it is about to update.
func GetTransferTx(ctx context.Context, tx *sql.Tx, id string) (*model.Transfer, error) {
	return getTransfer(ctx, tx, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTransfer(ctx context.Context, q querier, id string) (*model.Transfer, error) {
	t := &model.Transfer{}
	var remoteID, notes sql.NullString
	var shippedAt, receivedAt sql.NullTime
	err := q.QueryRowContext(ctx,
		`SELECT id, remote_id, origin_store_id, destination_store_id, status, notes,
		        sync_status, last_modified, created_at, shipped_at, received_at
		 FROM transfers WHERE id = ?`, id,
	).Scan(&t.ID, &remoteID, &t.OriginStoreID, &t.DestinationStoreID, &t.Status, &notes,
		&t.SyncStatus, &t.LastModified, &t.CreatedAt, &shippedAt, &receivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	t.RemoteID = remoteID.String
	t.Notes = notes.String
	if shippedAt.Valid {
		t.ShippedAt = &shippedAt.Time
	}
	if receivedAt.Valid {
		t.ReceivedAt = &receivedAt.Time
	}
	return t, nil
}

// GetTransferItems returns a transfer's items.
func GetTransferItems(ctx context.Context, db *sql.DB, transferID string) ([]model.TransferItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, transfer_id, product_id, qty_requested, qty_shipped, qty_received
		 FROM transfer_items WHERE transfer_id = ?`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting transfer items: %w", err)
	}
	defer rows.Close()

	var items []model.TransferItem
	for rows.Next() {
		var it model.TransferItem
		var shipped, received sql.NullInt64
		if err := rows.Scan(&it.ID, &it.TransferID, &it.ProductID, &it.QtyRequested, &shipped, &received); err != nil {
			return nil, fmt.Errorf("scanning transfer item: %w", err)
		}
		if shipped.Valid {
			v := int(shipped.Int64)
			it.QtyShipped = &v
		}
		if received.Valid {
			v := int(received.Int64)
			it.QtyReceived = &v
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetTransferItemsTx reads a transfer's items inside a transaction.
func GetTransferItemsTx(ctx context.Context, tx *sql.Tx, transferID string) ([]model.TransferItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, transfer_id, product_id, qty_requested, qty_shipped, qty_received
		 FROM transfer_items WHERE transfer_id = ?`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting transfer items: %w", err)
	}
	defer rows.Close()

	var items []model.TransferItem
	for rows.Next() {
		var it model.TransferItem
		var shipped, received sql.NullInt64
		if err := rows.Scan(&it.ID, &it.TransferID, &it.ProductID, &it.QtyRequested, &shipped, &received); err != nil {
			return nil, fmt.Errorf("scanning transfer item: %w", err)
		}
		if shipped.Valid {
			v := int(shipped.Int64)
			it.QtyShipped = &v
		}
		if received.Valid {
			v := int(received.Int64)
			it.QtyReceived = &v
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListTransfers returns transfers involving a store, newest first,
// optionally filtered by status.
func ListTransfers(ctx context.Context, db *sql.DB, storeID, status string) ([]model.Transfer, error) {
	query := `SELECT id, remote_id, origin_store_id, destination_store_id, status, notes,
	                 sync_status, last_modified, created_at, shipped_at, received_at
	          FROM transfers
	          WHERE (origin_store_id = ? OR destination_store_id = ?)`
	args := []any{storeID, storeID}

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		var t model.Transfer
		var remoteID, notes sql.NullString
		var shippedAt, receivedAt sql.NullTime
		if err := rows.Scan(&t.ID, &remoteID, &t.OriginStoreID, &t.DestinationStoreID, &t.Status, &notes,
			&t.SyncStatus, &t.LastModified, &t.CreatedAt, &shippedAt, &receivedAt); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		t.RemoteID = remoteID.String
		t.Notes = notes.String
		if shippedAt.Valid {
			t.ShippedAt = &shippedAt.Time
		}
		if receivedAt.Valid {
			t.ReceivedAt = &receivedAt.Time
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// SetTransferStatusTx advances a transfer's lifecycle status inside a
// transaction, stamping the matching timestamp column and flipping the row
// back to pending so the transition is uploaded.
func SetTransferStatusTx(ctx context.Context, tx *sql.Tx, id, status string, now time.Time) error {
	var stamp string
	switch status {
	case model.TransferInTransit:
		stamp = ", shipped_at = ?"
	case model.TransferCompleted:
		stamp = ", received_at = ?"
	}

	query := `UPDATE transfers SET status = ?, sync_status = 'pending', last_modified = ?` + stamp + ` WHERE id = ?`
	args := []any{status, now}
	if stamp != "" {
		args = append(args, now)
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating transfer status: %w", err)
	}
	return nil
}

// SetItemShippedTx records the quantity actually shipped for one item.
func SetItemShippedTx(ctx context.Context, tx *sql.Tx, itemID string, qty int) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE transfer_items SET qty_shipped = ? WHERE id = ?`, qty, itemID,
	); err != nil {
		return fmt.Errorf("recording shipped quantity: %w", err)
	}
	return nil
}

// SetItemReceivedTx records the quantity actually counted on arrival.
func SetItemReceivedTx(ctx context.Context, tx *sql.Tx, itemID string, qty int) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE transfer_items SET qty_received = ? WHERE id = ?`, qty, itemID,
	); err != nil {
		return fmt.Errorf("recording received quantity: %w", err)
	}
	return nil
}
