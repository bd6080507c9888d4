package files

import (
	"context"
	"time"

	"github.com/sharenest/sharenest/internal/server/models"
)

// Repository is the persistence boundary for file metadata rows.
type Repository interface {
	// Insert creates a new file row. A duplicate object_name yields
	// common.ErrDuplicateFinalize.
	Insert(ctx context.Context, f *models.File) error

	// GetByToken resolves a share token to its file through share_links.
	// Returns common.ErrNotFound when the token is unknown.
	GetByToken(ctx context.Context, token string) (*models.File, error)

	// GetByIDs returns the files with the given ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*models.File, error)

	// TryIncrementDownloads atomically increments download_count if it is
	// still below max_downloads. Reports whether a row changed.
	TryIncrementDownloads(ctx context.Context, id string) (bool, error)

	// SelectSweepBatch returns up to limit files that are expired at now or
	// have exhausted their download quota.
	SelectSweepBatch(ctx context.Context, now time.Time, limit int) ([]*models.File, error)

	// DeleteByIDs removes the given rows in one statement. Share links go
	// with them via the cascade.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// SelectAll returns every file row. Used by reconciliation.
	SelectAll(ctx context.Context) ([]*models.File, error)
}
