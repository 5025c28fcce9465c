package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/blagajna/internal/model"
)

// AppendSyncLog opens an audit entry for an upload attempt and returns its
// id. The entry starts pending; FinishSyncLog records the outcome.
func AppendSyncLog(ctx context.Context, db *sql.DB, table, recordID, operation string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO sync_log (table_name, record_id, operation, status, created_at)
		 VALUES (?, ?, ?, 'pending', ?)`,
		table, recordID, operation, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("appending sync log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting sync log id: %w", err)
	}
	return id, nil
}

// FinishSyncLog records the outcome of an upload attempt. The audit trail
// only ever records intent and outcome; it never mutates domain state.
func FinishSyncLog(ctx context.Context, db *sql.DB, id int64, status, errMsg string) error {
	var syncedAt any
	if status == model.SyncLogSynced {
		syncedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx,
		`UPDATE sync_log SET status = ?, error = NULLIF(?, ''), synced_at = ? WHERE id = ?`,
		status, errMsg, syncedAt, id,
	)
	if err != nil {
		return fmt.Errorf("finishing sync log: %w", err)
	}
	return nil
}

// ListSyncLog returns recent audit entries, newest first, optionally
// filtered by table.
func ListSyncLog(ctx context.Context, db *sql.DB, table string, limit int) ([]model.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, table_name, record_id, operation, status, error, created_at, synced_at
	          FROM sync_log`
	var args []any
	if table != "" {
		query += ` WHERE table_name = ?`
		args = append(args, table)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sync log: %w", err)
	}
	defer rows.Close()

	var entries []model.SyncLogEntry
	for rows.Next() {
		var e model.SyncLogEntry
		var errMsg sql.NullString
		var syncedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.TableName, &e.RecordID, &e.Operation, &e.Status,
			&errMsg, &e.CreatedAt, &syncedAt); err != nil {
			return nil, fmt.Errorf("scanning sync log entry: %w", err)
		}
		e.Error = errMsg.String
		if syncedAt.Valid {
			e.SyncedAt = &syncedAt.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
