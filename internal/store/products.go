package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/blagajna/internal/model"
)

const productColumns = `id, store_id, remote_id, sku, name, price_cents, cost_cents,
	stock_quantity, min_stock_level, is_weighted, barcode, category_id,
	sync_status, last_modified, created_at`

// CreateProduct creates a locally-authored product in pending state.
func CreateProduct(ctx context.Context, db *sql.DB, p *model.Product) (*model.Product, error) {
	if p.SKU == "" || p.Name == "" {
		return nil, fmt.Errorf("%w: sku and name are required", ErrValidation)
	}
	if p.StoreID == "" {
		return nil, fmt.Errorf("%w: store_id is required", ErrValidation)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO products (id, store_id, sku, name, price_cents, cost_cents,
		     stock_quantity, min_stock_level, is_weighted, barcode, category_id,
		     sync_status, last_modified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
		p.ID, p.StoreID, p.SKU, p.Name, p.PriceCents, p.CostCents,
		p.StockQuantity, p.MinStockLevel, p.IsWeighted, nullString(p.Barcode), nullString(p.CategoryID),
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	return GetProduct(ctx, db, p.ID, p.StoreID)
}

// GetProduct returns a product at a specific store, or nil if absent.
func GetProduct(ctx context.Context, db *sql.DB, id, storeID string) (*model.Product, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ? AND store_id = ?`,
		id, storeID,
	)
	return scanProduct(row)
}

// GetProductBySKU returns a product by its SKU at a specific store.
func GetProductBySKU(ctx context.Context, db *sql.DB, sku, storeID string) (*model.Product, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku = ? AND store_id = ?`,
		sku, storeID,
	)
	return scanProduct(row)
}

// ListProducts returns all products at a store, ordered by name.
func ListProducts(ctx context.Context, db *sql.DB, storeID string) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = ? ORDER BY name`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// LowStockProducts returns products whose on-hand count has fallen below
// their minimum stock level.
func LowStockProducts(ctx context.Context, db *sql.DB, storeID string) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE store_id = ? AND stock_quantity < min_stock_level
		 ORDER BY name`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low-stock products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// PendingProducts returns products at a store whose local changes have not
// been uploaded yet.
func PendingProducts(ctx context.Context, db *sql.DB, storeID string) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE store_id = ? AND sync_status = 'pending'
		 ORDER BY last_modified`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// AdjustStock applies a signed stock delta to a product and flips it back to
// pending so the change is uploaded. If allowNegative is false the adjustment
// is rejected when it would drive the count below zero.
func AdjustStock(ctx context.Context, db *sql.DB, id, storeID string, delta int, allowNegative bool) (*model.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := AdjustStockTx(ctx, tx, id, storeID, delta, allowNegative, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stock adjustment: %w", err)
	}

	return GetProduct(ctx, db, id, storeID)
}

// AdjustStockTx applies a stock delta inside an existing transaction. Callers
// that must change stock atomically with other writes (a sale, a transfer
// transition) go through this.
func AdjustStockTx(ctx context.Context, tx *sql.Tx, id, storeID string, delta int, allowNegative bool, now time.Time) error {
	var current int
	err := tx.QueryRowContext(ctx,
		`SELECT stock_quantity FROM products WHERE id = ? AND store_id = ?`,
		id, storeID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("product %s at store %s: %w", id, storeID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking stock: %w", err)
	}

	if !allowNegative && current+delta < 0 {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, current, -delta)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE products SET stock_quantity = stock_quantity + ?, sync_status = 'pending', last_modified = ?
		 WHERE id = ? AND store_id = ?`,
		delta, now, id, storeID,
	)
	if err != nil {
		return fmt.Errorf("adjusting stock: %w", err)
	}
	return nil
}

// SaveRemoteProduct applies an authoritative catalog record. A new product is
// inserted as synced with the remote stock count; an existing row has only
// its reference fields overwritten, since on-hand stock belongs to the
// inventory reconciliation pass.
func SaveRemoteProduct(ctx context.Context, db *sql.DB, p *model.Product) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO products (id, store_id, remote_id, sku, name, price_cents, cost_cents,
		     stock_quantity, min_stock_level, is_weighted, barcode, category_id,
		     sync_status, last_modified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'synced', ?, ?)
		 ON CONFLICT (id, store_id) DO UPDATE SET
		     remote_id = excluded.remote_id,
		     sku = excluded.sku,
		     name = excluded.name,
		     price_cents = excluded.price_cents,
		     cost_cents = excluded.cost_cents,
		     min_stock_level = excluded.min_stock_level,
		     is_weighted = excluded.is_weighted,
		     barcode = excluded.barcode,
		     category_id = excluded.category_id,
		     sync_status = 'synced',
		     last_modified = excluded.last_modified`,
		p.ID, p.StoreID, nullString(p.RemoteID), p.SKU, p.Name, p.PriceCents, p.CostCents,
		p.StockQuantity, p.MinStockLevel, p.IsWeighted, nullString(p.Barcode), nullString(p.CategoryID),
		p.LastModified, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving remote product: %w", err)
	}
	return nil
}

// MarkProductSynced acknowledges one store's copy of a product after its
// change reached the server. Products are keyed (id, store_id), so the
// update must name both; other stores' copies of the same product keep
// their own sync status. Only a still-pending row is touched.
func MarkProductSynced(ctx context.Context, db *sql.DB, id, storeID, remoteID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET sync_status = 'synced', remote_id = COALESCE(NULLIF(?, ''), remote_id)
		 WHERE id = ? AND store_id = ? AND sync_status = 'pending'`,
		remoteID, id, storeID,
	)
	if err != nil {
		return fmt.Errorf("marking product synced: %w", err)
	}
	return nil
}

// MarkProductConflict tags one store's copy of a product whose upload was
// rejected or exhausted its retries.
func MarkProductConflict(ctx context.Context, db *sql.DB, id, storeID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET sync_status = 'conflict' WHERE id = ? AND store_id = ?`,
		id, storeID,
	)
	if err != nil {
		return fmt.Errorf("marking product conflict: %w", err)
	}
	return nil
}

// SetStockFromRemote overwrites a product's on-hand count with the
// authoritative figure and marks the row synced.
func SetStockFromRemote(ctx context.Context, db *sql.DB, id, storeID string, quantity int, modified time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET stock_quantity = ?, sync_status = 'synced', last_modified = ?
		 WHERE id = ? AND store_id = ?`,
		quantity, modified, id, storeID,
	)
	if err != nil {
		return fmt.Errorf("setting remote stock: %w", err)
	}
	return nil
}

func scanProduct(row *sql.Row) (*model.Product, error) {
	p := &model.Product{}
	var remoteID, barcode, categoryID sql.NullString
	err := row.Scan(&p.ID, &p.StoreID, &remoteID, &p.SKU, &p.Name, &p.PriceCents, &p.CostCents,
		&p.StockQuantity, &p.MinStockLevel, &p.IsWeighted, &barcode, &categoryID,
		&p.SyncStatus, &p.LastModified, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p.RemoteID = remoteID.String
	p.Barcode = barcode.String
	p.CategoryID = categoryID.String
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		var p model.Product
		var remoteID, barcode, categoryID sql.NullString
		if err := rows.Scan(&p.ID, &p.StoreID, &remoteID, &p.SKU, &p.Name, &p.PriceCents, &p.CostCents,
			&p.StockQuantity, &p.MinStockLevel, &p.IsWeighted, &barcode, &categoryID,
			&p.SyncStatus, &p.LastModified, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.RemoteID = remoteID.String
		p.Barcode = barcode.String
		p.CategoryID = categoryID.String
		products = append(products, p)
	}
	return products, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
