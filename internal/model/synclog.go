package model

import "time"

// Sync log operations and outcomes.
const (
	SyncOpInsert = "insert"
	SyncOpUpdate = "update"
	SyncOpDelete = "delete"

	SyncLogPending = "pending"
	SyncLogSynced  = "synced"
	SyncLogFailed  = "failed"
)

// SyncLogEntry is one line of the append-only sync audit trail. Entries
// record the intent and outcome of upload attempts; they never carry domain
// state of their own.
type SyncLogEntry struct {
	ID        int64      `json:"id"`
	TableName string     `json:"table_name"`
	RecordID  string     `json:"record_id"`
	Operation string     `json:"operation"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
}
