package sharelinks

import (
	"context"
	"fmt"

	"github.com/sharenest/sharenest/internal/dbx"
	"github.com/sharenest/sharenest/internal/server/models"
)

// PostgresRepository implements share link storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, link *models.ShareLink) error {
	query := `INSERT INTO share_links (token, file_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, link.Token, link.FileID)
	if err != nil {
		return fmt.Errorf("insert share link: %w", err)
	}
	return nil
}
