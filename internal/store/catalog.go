package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/blagajna/internal/model"
)

// GetCategory returns a category, or nil if absent.
func GetCategory(ctx context.Context, db *sql.DB, id string) (*model.Category, error) {
	c := &model.Category{}
	var remoteID sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, remote_id, name, sync_status, last_modified FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &remoteID, &c.Name, &c.SyncStatus, &c.LastModified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	c.RemoteID = remoteID.String
	return c, nil
}

// SaveRemoteCategory applies an authoritative category record as synced.
func SaveRemoteCategory(ctx context.Context, db *sql.DB, c *model.Category) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (id, remote_id, name, sync_status, last_modified)
		 VALUES (?, ?, ?, 'synced', ?)
		 ON CONFLICT (id) DO UPDATE SET
		     remote_id = excluded.remote_id,
		     name = excluded.name,
		     sync_status = 'synced',
		     last_modified = excluded.last_modified`,
		c.ID, nullString(c.RemoteID), c.Name, c.LastModified,
	)
	if err != nil {
		return fmt.Errorf("saving remote category: %w", err)
	}
	return nil
}

// GetCustomer returns a customer, or nil if absent.
func GetCustomer(ctx context.Context, db *sql.DB, id string) (*model.Customer, error) {
	c := &model.Customer{}
	var remoteID, phone, email sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, remote_id, name, phone, email, sync_status, last_modified
		 FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &remoteID, &c.Name, &phone, &email, &c.SyncStatus, &c.LastModified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	c.RemoteID = remoteID.String
	c.Phone = phone.String
	c.Email = email.String
	return c, nil
}

// CreateCustomer creates a locally-authored customer in pending state.
func CreateCustomer(ctx context.Context, db *sql.DB, name, phone, email string) (*model.Customer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO customers (id, name, phone, email, sync_status, last_modified)
		 VALUES (?, ?, ?, ?, 'pending', ?)`,
		id, name, nullString(phone), nullString(email), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}
	return GetCustomer(ctx, db, id)
}

// SaveRemoteCustomer applies an authoritative customer record as synced.
func SaveRemoteCustomer(ctx context.Context, db *sql.DB, c *model.Customer) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO customers (id, remote_id, name, phone, email, sync_status, last_modified)
		 VALUES (?, ?, ?, ?, ?, 'synced', ?)
		 ON CONFLICT (id) DO UPDATE SET
		     remote_id = excluded.remote_id,
		     name = excluded.name,
		     phone = excluded.phone,
		     email = excluded.email,
		     sync_status = 'synced',
		     last_modified = excluded.last_modified`,
		c.ID, nullString(c.RemoteID), c.Name, nullString(c.Phone), nullString(c.Email), c.LastModified,
	)
	if err != nil {
		return fmt.Errorf("saving remote customer: %w", err)
	}
	return nil
}
