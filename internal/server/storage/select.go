package storage

import (
	"context"
	"fmt"

	"github.com/sharenest/sharenest/internal/config"
)

// NewFromConfig selects and builds the ObjectStore named by the configured
// backend. Both the server and the cleanup command go through this, so the
// backend decision lives in exactly one place.
func NewFromConfig(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Store(ctx, S3Options{
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
