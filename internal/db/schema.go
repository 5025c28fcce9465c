package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Every replicated table carries the
// same bookkeeping columns: a locally-assigned uuid id, the id assigned by
// the central store once acknowledged, a sync status and the timestamp of
// the most recent local write.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id              TEXT NOT NULL,
    store_id        TEXT NOT NULL,
    remote_id       TEXT,
    sku             TEXT NOT NULL,
    name            TEXT NOT NULL,
    price_cents     INTEGER NOT NULL DEFAULT 0,
    cost_cents      INTEGER NOT NULL DEFAULT 0,
    stock_quantity  INTEGER NOT NULL DEFAULT 0,
    min_stock_level INTEGER NOT NULL DEFAULT 0,
    is_weighted     INTEGER NOT NULL DEFAULT 0,
    barcode         TEXT,
    category_id     TEXT,
    sync_status     TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id, store_id)
);

CREATE INDEX IF NOT EXISTS idx_products_sync_status ON products(sync_status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku_store ON products(sku, store_id);

CREATE TABLE IF NOT EXISTS categories (
    id            TEXT PRIMARY KEY,
    remote_id     TEXT,
    name          TEXT NOT NULL,
    sync_status   TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS customers (
    id            TEXT PRIMARY KEY,
    remote_id     TEXT,
    name          TEXT NOT NULL,
    phone         TEXT,
    email         TEXT,
    sync_status   TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sales (
    id             TEXT PRIMARY KEY,
    store_id       TEXT NOT NULL,
    remote_id      TEXT,
    customer_id    TEXT,
    total_cents    INTEGER NOT NULL,
    payment_method TEXT NOT NULL,
    sync_status    TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sales_sync_status ON sales(sync_status);
CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);

CREATE TABLE IF NOT EXISTS sale_items (
    id               TEXT PRIMARY KEY,
    sale_id          TEXT NOT NULL REFERENCES sales(id),
    remote_id        TEXT,
    product_id       TEXT NOT NULL,
    quantity         REAL NOT NULL,
    unit_price_cents INTEGER NOT NULL,
    total_cents      INTEGER NOT NULL,
    sync_status      TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id);

CREATE TABLE IF NOT EXISTS consumptions (
    id            TEXT PRIMARY KEY,
    store_id      TEXT NOT NULL,
    remote_id     TEXT,
    product_id    TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    reason        TEXT,
    sync_status   TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_consumptions_sync_status ON consumptions(sync_status);

CREATE TABLE IF NOT EXISTS transfers (
    id                   TEXT PRIMARY KEY,
    remote_id            TEXT,
    origin_store_id      TEXT NOT NULL,
    destination_store_id TEXT NOT NULL,
    status               TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_transit', 'completed', 'cancelled')),
    notes                TEXT,
    sync_status          TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    shipped_at           DATETIME,
    received_at          DATETIME,
    CHECK (origin_store_id <> destination_store_id)
);

CREATE INDEX IF NOT EXISTS idx_transfers_sync_status ON transfers(sync_status);
CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status);

CREATE TABLE IF NOT EXISTS transfer_items (
    id            TEXT PRIMARY KEY,
    transfer_id   TEXT NOT NULL REFERENCES transfers(id),
    product_id    TEXT NOT NULL,
    qty_requested INTEGER NOT NULL CHECK (qty_requested > 0),
    qty_shipped   INTEGER,
    qty_received  INTEGER
);

CREATE INDEX IF NOT EXISTS idx_transfer_items_transfer ON transfer_items(transfer_id);

CREATE TABLE IF NOT EXISTS shopping_list_items (
    id            TEXT PRIMARY KEY,
    store_id      TEXT NOT NULL,
    remote_id     TEXT,
    product_id    TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    note          TEXT,
    purchased     INTEGER NOT NULL DEFAULT 0,
    sync_status   TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS expenses (
    id            TEXT PRIMARY KEY,
    store_id      TEXT NOT NULL,
    remote_id     TEXT,
    description   TEXT NOT NULL,
    amount_cents  INTEGER NOT NULL,
    incurred_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    sync_status   TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('synced', 'pending', 'conflict')),
    last_modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
    id         INTEGER PRIMARY KEY,
    table_name TEXT NOT NULL,
    record_id  TEXT NOT NULL,
    operation  TEXT NOT NULL CHECK (operation IN ('insert', 'update', 'delete')),
    status     TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'synced', 'failed')),
    error      TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    synced_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sync_log_record ON sync_log(table_name, record_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
