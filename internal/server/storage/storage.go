// Package storage defines the ObjectStore capability: time-bounded scoped
// credentials (presigned URLs), multipart upload sessions, and the handful of
// object operations the coordinator, reconciler and cleaner need. Two
// implementations exist: an S3-compatible backend and an in-memory double.
// Which one runs is a configuration decision made at startup.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Name      string
	SizeBytes int64
	CreatedAt time.Time
}

// MultipartPart identifies one uploaded part of a multipart session: its
// sequence number and the integrity tag the store returned for it.
type MultipartPart struct {
	Number int32
	ETag   string
}

// ObjectStore is the boundary to the remote object store.
//
// Head returns an error matching common.ErrObjectMissing when the object does
// not exist. Delete treats a missing object as success.
type ObjectStore interface {
	// PresignPut issues a write credential for the object, valid for ttl.
	PresignPut(ctx context.Context, object string, ttl time.Duration) (string, error)

	// PresignGet issues a read credential for the object, valid for ttl.
	PresignGet(ctx context.Context, object string, ttl time.Duration) (string, error)

	// CreateMultipart opens a multipart session and returns its upload id.
	CreateMultipart(ctx context.Context, object string) (string, error)

	// PresignUploadPart issues a write credential for one part of an open
	// multipart session.
	PresignUploadPart(ctx context.Context, object, uploadID string, partNum int32, ttl time.Duration) (string, error)

	// UploadPart uploads one part's bytes and returns its integrity tag.
	UploadPart(ctx context.Context, object, uploadID string, partNum int32, body io.Reader) (string, error)

	// CompleteMultipart commits an open session from the supplied part list.
	CompleteMultipart(ctx context.Context, object, uploadID string, parts []MultipartPart) error

	// AbortMultipart abandons an open session and discards its parts.
	AbortMultipart(ctx context.Context, object, uploadID string) error

	// Head returns metadata for the object.
	Head(ctx context.Context, object string) (*ObjectInfo, error)

	// List returns up to max objects. The view may be incomplete beyond max.
	List(ctx context.Context, max int) ([]ObjectInfo, error)

	// Delete removes the object. Deleting an absent object is not an error.
	Delete(ctx context.Context, object string) error
}
