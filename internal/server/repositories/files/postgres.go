package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sharenest/sharenest/internal/common"
	"github.com/sharenest/sharenest/internal/dbx"
	"github.com/sharenest/sharenest/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

func (r *PostgresRepository) Insert(ctx context.Context, f *models.File) error {
	query := `
		INSERT INTO files
			(id, original_filename, object_name, pin_hash, created_at, expiry_date,
			 max_downloads, download_count, size_bytes, owner_id, sharing_message, geo_hint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.OriginalFilename, f.ObjectName, f.PinHash, f.CreatedAt, f.ExpiryDate,
		f.MaxDownloads, f.DownloadCount, f.SizeBytes, f.OwnerID, f.SharingMessage, f.GeoHint)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: object %s", common.ErrDuplicateFinalize, f.ObjectName)
		}
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.File, error) {
	query := `
		SELECT f.id, f.original_filename, f.object_name, f.pin_hash, f.created_at, f.expiry_date,
		       f.max_downloads, f.download_count, f.size_bytes, f.owner_id, f.sharing_message, f.geo_hint
		FROM share_links s
		JOIN files f ON f.id = s.file_id
		WHERE s.token = $1
	`
	row := r.db.QueryRowContext(ctx, query, token)
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: token", common.ErrNotFound)
		}
		return nil, fmt.Errorf("select file by token: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT f.id, f.original_filename, f.object_name, f.pin_hash, f.created_at, f.expiry_date,
		       f.max_downloads, f.download_count, f.size_bytes, f.owner_id, f.sharing_message, f.geo_hint
		FROM files f
		WHERE f.id IN (%s)
	`, placeholders(len(ids), 1))

	rows, err := r.db.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("select files by ids: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

func (r *PostgresRepository) TryIncrementDownloads(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE files
		SET download_count = download_count + 1
		WHERE id = $1 AND download_count < max_downloads
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("increment download count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) SelectSweepBatch(ctx context.Context, now time.Time, limit int) ([]*models.File, error) {
	query := `
		SELECT f.id, f.original_filename, f.object_name, f.pin_hash, f.created_at, f.expiry_date,
		       f.max_downloads, f.download_count, f.size_bytes, f.owner_id, f.sharing_message, f.geo_hint
		FROM files f
		WHERE f.expiry_date < $1 OR f.download_count >= f.max_downloads
		ORDER BY f.expiry_date
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select sweep batch: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

func (r *PostgresRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM files WHERE id IN (%s)`, placeholders(len(ids), 1))
	res, err := r.db.ExecContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return 0, fmt.Errorf("delete files: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.File, error) {
	query := `
		SELECT f.id, f.original_filename, f.object_name, f.pin_hash, f.created_at, f.expiry_date,
		       f.max_downloads, f.download_count, f.size_bytes, f.owner_id, f.sharing_message, f.geo_hint
		FROM files f
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select all files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	var f models.File
	var size sql.NullInt64
	var owner, message, geo sql.NullString

	err := row.Scan(&f.ID, &f.OriginalFilename, &f.ObjectName, &f.PinHash, &f.CreatedAt, &f.ExpiryDate,
		&f.MaxDownloads, &f.DownloadCount, &size, &owner, &message, &geo)
	if err != nil {
		return nil, err
	}

	if size.Valid {
		f.SizeBytes = &size.Int64
	}
	if owner.Valid {
		f.OwnerID = &owner.String
	}
	if message.Valid {
		f.SharingMessage = &message.String
	}
	if geo.Valid {
		f.GeoHint = &geo.String
	}
	return &f, nil
}

func collectFiles(rows *sql.Rows) ([]*models.File, error) {
	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// placeholders renders "$start, $start+1, ..." for n parameters.
func placeholders(n, start int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func toAnySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
