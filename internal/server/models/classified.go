package models

import "time"

// ObjectStatus describes how a remote object relates to file metadata.
type ObjectStatus string

const (
	// StatusSynced: the object exists remotely and has a metadata row.
	StatusSynced ObjectStatus = "synced"
	// StatusOrphaned: the object exists remotely with no metadata row. Billed
	// storage nobody can reach.
	StatusOrphaned ObjectStatus = "orphaned"
	// StatusMissing: a metadata row whose backing object is gone. A broken
	// share link.
	StatusMissing ObjectStatus = "missing"
)

// ClassifiedObject is one reconciliation result: an object name together with
// its classification and whatever metadata is known about it.
type ClassifiedObject struct {
	ObjectName string       `json:"object_name"`
	Status     ObjectStatus `json:"status"`
	SizeBytes  int64        `json:"size_bytes"`
	CreatedAt  time.Time    `json:"created_at"`

	// Set only when a metadata row exists (synced, missing).
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}
