package model

import "time"

// Sync statuses shared by every replicated record.
const (
	SyncStatusSynced   = "synced"
	SyncStatusPending  = "pending"
	SyncStatusConflict = "conflict"
)

// Syncable carries the reconciliation bookkeeping every replicated record
// needs. A record is pending while a local write has not been acknowledged
// by the central store, and conflict when reconciliation could not resolve
// it automatically. Conflict records are surfaced, never deleted.
type Syncable struct {
	ID           string    `json:"id"`
	RemoteID     string    `json:"remote_id,omitempty"`
	SyncStatus   string    `json:"sync_status"`
	LastModified time.Time `json:"last_modified"`
}
