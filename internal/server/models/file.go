// Package models contains the persistent entities of the sharing service.
package models

import "time"

// File is the metadata record of one uploaded payload. The payload bytes
// themselves live in object storage under ObjectName; this row never holds
// them.
type File struct {
	ID               string
	OriginalFilename string
	ObjectName       string
	PinHash          string
	CreatedAt        time.Time
	ExpiryDate       time.Time
	MaxDownloads     int
	DownloadCount    int
	SizeBytes        *int64

	// Optional, owner-supplied metadata.
	OwnerID        *string
	SharingMessage *string
	GeoHint        *string
}

// Expired reports whether the file's expiry date has passed at the given time.
func (f *File) Expired(now time.Time) bool {
	return !f.ExpiryDate.After(now)
}

// Exhausted reports whether the download quota has been used up.
func (f *File) Exhausted() bool {
	return f.DownloadCount >= f.MaxDownloads
}
