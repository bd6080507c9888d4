package sharelinks

import (
	"context"

	"github.com/sharenest/sharenest/internal/server/models"
)

// Repository is the persistence boundary for share link rows. Share links are
// only ever created alongside their file and removed by the cascade; reads go
// through the files repository's token join, so the surface is deliberately
// small.
type Repository interface {
	// Insert creates a new token→file mapping.
	Insert(ctx context.Context, link *models.ShareLink) error
}
