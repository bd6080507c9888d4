package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/sharenest/sharenest/internal/config"
	"github.com/sharenest/sharenest/internal/logging"
	"github.com/sharenest/sharenest/internal/server/models"
	"github.com/sharenest/sharenest/internal/server/repositories/repomanager"
	"github.com/sharenest/sharenest/internal/server/storage"
)

// ReconcileService cross-references the remote object listing against file
// metadata and classifies the drift between them.
type ReconcileService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	store storage.ObjectStore
	cfg   *config.Config
	log   logging.Logger
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, log logging.Logger) *ReconcileService {
	return &ReconcileService{
		db:    db,
		repos: repos,
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Scan lists remote objects (bounded by ReconcileMaxObjects) and all file
// rows, joins them on object name and classifies every entry. Results come
// back most actionable first: missing, then orphaned, then synced, each
// group ordered by creation time descending.
func (s *ReconcileService) Scan(ctx context.Context) ([]models.ClassifiedObject, error) {
	remote, err := s.store.List(ctx, s.cfg.ReconcileMaxObjects)
	if err != nil {
		return nil, fmt.Errorf("list remote objects: %w", err)
	}

	rows, err := s.repos.Files(s.db).SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("select file rows: %w", err)
	}

	tracked := make(map[string]*models.File, len(rows))
	for _, f := range rows {
		tracked[f.ObjectName] = f
	}

	result := make([]models.ClassifiedObject, 0, len(remote)+len(rows))
	seen := make(map[string]struct{}, len(remote))

	for _, obj := range remote {
		seen[obj.Name] = struct{}{}

		if f, ok := tracked[obj.Name]; ok {
			result = append(result, models.ClassifiedObject{
				ObjectName: obj.Name,
				Status:     models.StatusSynced,
				SizeBytes:  obj.SizeBytes,
				CreatedAt:  f.CreatedAt,
				FileID:     f.ID,
				Filename:   f.OriginalFilename,
			})
			continue
		}

		result = append(result, models.ClassifiedObject{
			ObjectName: obj.Name,
			Status:     models.StatusOrphaned,
			SizeBytes:  obj.SizeBytes,
			CreatedAt:  obj.CreatedAt,
		})
	}

	for _, f := range rows {
		if _, ok := seen[f.ObjectName]; ok {
			continue
		}
		co := models.ClassifiedObject{
			ObjectName: f.ObjectName,
			Status:     models.StatusMissing,
			CreatedAt:  f.CreatedAt,
			FileID:     f.ID,
			Filename:   f.OriginalFilename,
		}
		if f.SizeBytes != nil {
			co.SizeBytes = *f.SizeBytes
		}
		result = append(result, co)
	}

	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := statusRank(result[i].Status), statusRank(result[j].Status)
		if ri != rj {
			return ri < rj
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func statusRank(s models.ObjectStatus) int {
	switch s {
	case models.StatusMissing:
		return 0
	case models.StatusOrphaned:
		return 1
	default:
		return 2
	}
}
