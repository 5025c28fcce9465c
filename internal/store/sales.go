package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/blagajna/internal/model"
)

// SaleLine is one requested line of a checkout. Unit price is taken from the
// product catalog at the time of sale.
type SaleLine struct {
	ProductID string
	Quantity  float64
}

// RecordSale commits a sale and its line items in a single transaction,
// decrementing stock per line. Everything lands in pending state; nothing
// here touches the network.
//
// Stock is allowed to go negative on a sale: the item evidently left the
// shelf, so the on-hand count was already wrong and a stock count will
// correct it later. Transfers are stricter (see the transfer package).
func RecordSale(ctx context.Context, db *sql.DB, storeID, customerID, paymentMethod string, lines []SaleLine) (*model.Sale, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", ErrValidation)
	}
	if paymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrValidation)
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	saleID := uuid.NewString()
	var total int64

	type pricedLine struct {
		SaleLine
		unitPrice int64
		lineTotal int64
	}
	priced := make([]pricedLine, 0, len(lines))

	for _, l := range lines {
		var priceCents int64
		var isWeighted bool
		err := tx.QueryRowContext(ctx,
			`SELECT price_cents, is_weighted FROM products WHERE id = ? AND store_id = ?`,
			l.ProductID, storeID,
		).Scan(&priceCents, &isWeighted)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %s: %w", l.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("pricing sale line: %w", err)
		}
		if !isWeighted && l.Quantity != math.Trunc(l.Quantity) {
			return nil, fmt.Errorf("%w: product %s is sold in whole units", ErrValidation, l.ProductID)
		}

		lineTotal := int64(math.Round(float64(priceCents) * l.Quantity))
		total += lineTotal
		priced = append(priced, pricedLine{SaleLine: l, unitPrice: priceCents, lineTotal: lineTotal})
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales (id, store_id, customer_id, total_cents, payment_method,
		     sync_status, last_modified, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`,
		saleID, storeID, nullString(customerID), total, paymentMethod, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("recording sale: %w", err)
	}

	for _, l := range priced {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price_cents,
			     total_cents, sync_status, last_modified)
			 VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)`,
			uuid.NewString(), saleID, l.ProductID, l.Quantity, l.unitPrice, l.lineTotal, now,
		)
		if err != nil {
			return nil, fmt.Errorf("recording sale item: %w", err)
		}

		// Weighted quantities are rounded to the nearest whole unit for the
		// on-hand count.
		delta := -int(math.Round(l.Quantity))
		if delta != 0 {
			if err := AdjustStockTx(ctx, tx, l.ProductID, storeID, delta, true, now); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sale: %w", err)
	}

	return GetSale(ctx, db, saleID)
}

// GetSale returns a sale with its line items, or nil if absent.
func GetSale(ctx context.Context, db *sql.DB, id string) (*model.Sale, error) {
	s := &model.Sale{}
	var remoteID, customerID sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, store_id, remote_id, customer_id, total_cents, payment_method,
		        sync_status, last_modified, created_at
		 FROM sales WHERE id = ?`, id,
	).Scan(&s.ID, &s.StoreID, &remoteID, &customerID, &s.TotalCents, &s.PaymentMethod,
		&s.SyncStatus, &s.LastModified, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale: %w", err)
	}
	s.RemoteID = remoteID.String
	s.CustomerID = customerID.String

	rows, err := db.QueryContext(ctx,
		`SELECT id, sale_id, remote_id, product_id, quantity, unit_price_cents,
		        total_cents, sync_status, last_modified
		 FROM sale_items WHERE sale_id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.SaleItem
		var itemRemoteID sql.NullString
		if err := rows.Scan(&it.ID, &it.SaleID, &itemRemoteID, &it.ProductID, &it.Quantity,
			&it.UnitPriceCents, &it.TotalCents, &it.SyncStatus, &it.LastModified); err != nil {
			return nil, fmt.Errorf("scanning sale item: %w", err)
		}
		it.RemoteID = itemRemoteID.String
		s.Items = append(s.Items, it)
	}
	return s, rows.Err()
}

// MarkSaleItemsSynced flips a sale's line items to synced. Items travel
// nested inside the sale's upload payload, so they are acknowledged together
// with the parent.
func MarkSaleItemsSynced(ctx context.Context, db *sql.DB, saleID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sale_items SET sync_status = 'synced' WHERE sale_id = ? AND sync_status = 'pending'`,
		saleID,
	)
	if err != nil {
		return fmt.Errorf("marking sale items synced: %w", err)
	}
	return nil
}
