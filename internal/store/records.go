package store

import (
	"context"
	"database/sql"
	"fmt"
)

// syncTables is the allow-list of replicated tables. Generic queries refuse
// anything else so a table name can never be interpolated from user input.
var syncTables = map[string]bool{
	"products":            true,
	"categories":          true,
	"customers":           true,
	"sales":               true,
	"sale_items":          true,
	"consumptions":        true,
	"transfers":           true,
	"shopping_list_items": true,
	"expenses":            true,
}

// UploadTables lists the write-heavy tables the mutation upload pass pushes,
// in upload order. Sale and transfer items travel nested inside their parent
// payloads; product stock goes through the inventory pass.
var UploadTables = []string{"sales", "consumptions", "transfers", "shopping_list_items", "expenses"}

// PendingRecord is one locally-modified row awaiting upload, addressed by
// its stable local id so retried pushes stay idempotent.
type PendingRecord struct {
	ID      string
	Payload map[string]any
}

func checkTable(table string) error {
	if !syncTables[table] {
		return fmt.Errorf("%w: unknown table %q", ErrValidation, table)
	}
	return nil
}

// PendingRecords returns every pending row of a table as a generic payload.
func PendingRecords(ctx context.Context, db *sql.DB, table string) ([]PendingRecord, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT * FROM `+table+` WHERE sync_status = 'pending' ORDER BY last_modified`,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting pending records: %w", err)
	}
	defer rows.Close()

	maps, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}

	records := make([]PendingRecord, 0, len(maps))
	for _, m := range maps {
		id, _ := m["id"].(string)
		records = append(records, PendingRecord{ID: id, Payload: m})
	}
	return records, nil
}

// PendingCount returns the number of rows of a table still awaiting upload.
func PendingCount(ctx context.Context, db *sql.DB, table string) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}

	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE sync_status = 'pending'`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending records: %w", err)
	}
	return count, nil
}

// ConflictRecords returns every row of a table that reconciliation could not
// resolve automatically. Conflicts require external intervention; they are
// surfaced here and never deleted by the sync engine.
func ConflictRecords(ctx context.Context, db *sql.DB, table string) ([]map[string]any, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT * FROM `+table+` WHERE sync_status = 'conflict' ORDER BY last_modified`,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting conflict records: %w", err)
	}
	defer rows.Close()

	return rowsToMaps(rows)
}

// MarkSynced acknowledges an uploaded record, adopting the remote-assigned
// identifier. Only a still-pending row is touched: a local write that raced
// the upload keeps the row pending for the next pass.
//
// Products are refused here: they are keyed (id, store_id), so an id-only
// update would acknowledge every store's copy at once. Use MarkProductSynced.
func MarkSynced(ctx context.Context, db *sql.DB, table, id, remoteID string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if table == "products" {
		return fmt.Errorf("%w: products are acknowledged per store", ErrValidation)
	}

	_, err := db.ExecContext(ctx,
		`UPDATE `+table+` SET sync_status = 'synced', remote_id = COALESCE(NULLIF(?, ''), remote_id)
		 WHERE id = ? AND sync_status = 'pending'`,
		remoteID, id,
	)
	if err != nil {
		return fmt.Errorf("marking record synced: %w", err)
	}
	return nil
}

// MarkConflict tags a record whose upload was rejected or exhausted its
// retries. The record stays in place for manual or later automatic
// resolution. Products are refused for the same reason as in MarkSynced.
func MarkConflict(ctx context.Context, db *sql.DB, table, id string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if table == "products" {
		return fmt.Errorf("%w: products are acknowledged per store", ErrValidation)
	}

	_, err := db.ExecContext(ctx,
		`UPDATE `+table+` SET sync_status = 'conflict' WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("marking record conflict: %w", err)
	}
	return nil
}

// ProductRecord returns one store's copy of a product as a generic payload
// for a full-record upload.
func ProductRecord(ctx context.Context, db *sql.DB, id, storeID string) (map[string]any, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT * FROM products WHERE id = ? AND store_id = ?`, id, storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting product record: %w", err)
	}
	defer rows.Close()

	maps, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("product %s at store %s: %w", id, storeID, ErrNotFound)
	}
	return maps[0], nil
}

// SaleItemPayloads returns a sale's line items as generic payloads for
// nesting inside the sale's upload body.
func SaleItemPayloads(ctx context.Context, db *sql.DB, saleID string) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT * FROM sale_items WHERE sale_id = ?`, saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting sale item payloads: %w", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

// TransferItemPayloads returns a transfer's items as generic payloads for
// nesting inside the transfer's upload body.
func TransferItemPayloads(ctx context.Context, db *sql.DB, transferID string) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT * FROM transfer_items WHERE transfer_id = ?`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting transfer item payloads: %w", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

// rowsToMaps converts a generic result set into column-keyed maps. Byte
// slices are converted to strings so payloads marshal as JSON text rather
// than base64.
func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		m := make(map[string]any, len(cols))
		for i, c := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			m[c] = v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
