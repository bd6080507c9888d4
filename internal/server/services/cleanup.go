package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharenest/sharenest/internal/config"
	"github.com/sharenest/sharenest/internal/dbx"
	"github.com/sharenest/sharenest/internal/logging"
	"github.com/sharenest/sharenest/internal/server/repositories/repomanager"
	"github.com/sharenest/sharenest/internal/server/storage"
)

// SweepReport summarizes one expiry sweep.
type SweepReport struct {
	Deleted         int `json:"deleted"`
	StorageFailures int `json:"storage_failures"`
}

// BulkOutcome reports the per-object result of a bulk deletion. Every object
// lands in exactly one bucket.
type BulkOutcome struct {
	Success    []string `json:"success"`
	FailedDB   []string `json:"failed_db"`
	FailedOCI  []string `json:"failed_oci"`
	FailedBoth []string `json:"failed_both"`
}

// CleanupService removes expired, exhausted and orphaned entries from both
// stores. It is not transactional across stores: a row whose object deletion
// failed is still removed, leaving an orphan for the next reconciliation
// scan to find rather than blocking the sweep.
type CleanupService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	store storage.ObjectStore
	cfg   *config.Config
	log   logging.Logger
	now   func() time.Time
}

// NewCleanupService constructs a CleanupService.
func NewCleanupService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, log logging.Logger) *CleanupService {
	return &CleanupService{
		db:    db,
		repos: repos,
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// SweepExpired repeatedly fetches a bounded batch of expired or exhausted
// files, deletes their objects from the store and their rows (plus cascaded
// share links) in one statement, committing per batch until no rows remain.
func (s *CleanupService) SweepExpired(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}
	now := s.now().UTC()

	for {
		batch, err := s.repos.Files(s.db).SelectSweepBatch(ctx, now, s.cfg.SweepBatchSize)
		if err != nil {
			return report, fmt.Errorf("select sweep batch: %w", err)
		}
		if len(batch) == 0 {
			return report, nil
		}
		s.log.Debug(ctx, "sweeping batch", "size", len(batch))

		ids := make([]string, 0, len(batch))
		for _, f := range batch {
			ids = append(ids, f.ID)

			if err := s.store.Delete(ctx, f.ObjectName); err != nil {
				// The row goes anyway; the remnant object surfaces as
				// orphaned on the next reconciliation scan.
				s.log.Warn(ctx, "object delete failed during sweep", "object", f.ObjectName, "error", err)
				report.StorageFailures++
			}
		}

		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			n, err := s.repos.Files(tx).DeleteByIDs(ctx, ids)
			if err != nil {
				return err
			}
			report.Deleted += int(n)
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("delete sweep batch: %w", err)
		}
	}
}

// bulkItem is one unit of bulk deletion work: an object name plus, for
// tracked files, the metadata row to remove.
type bulkItem struct {
	objectName string
	fileID     string
}

// BulkDelete removes a mixed set of tracked files and orphaned objects.
// Remote deletions and row deletions are independent tasks spread over a
// bounded worker pool; outcomes are merged per object name. The call is not
// transactional across stores, and partial completion under a caller
// timeout is reported per item rather than failing the whole batch.
func (s *CleanupService) BulkDelete(ctx context.Context, fileIDs, objectNames []string) (*BulkOutcome, error) {
	items, err := s.resolveItems(ctx, fileIDs, objectNames)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	dbFailed := make(map[string]bool, len(items))
	storeFailed := make(map[string]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.CleanupWorkers)

	for _, item := range items {
		g.Go(func() error {
			if err := s.store.Delete(gctx, item.objectName); err != nil {
				s.log.Warn(gctx, "bulk object delete failed", "object", item.objectName, "error", err)
				mu.Lock()
				storeFailed[item.objectName] = true
				mu.Unlock()
			}
			return nil
		})

		if item.fileID == "" {
			continue
		}
		g.Go(func() error {
			if _, err := s.repos.Files(s.db).DeleteByIDs(gctx, []string{item.fileID}); err != nil {
				s.log.Warn(gctx, "bulk row delete failed", "file_id", item.fileID, "error", err)
				mu.Lock()
				dbFailed[item.objectName] = true
				mu.Unlock()
			}
			return nil
		})
	}

	// Workers record failures instead of returning errors, so Wait only
	// propagates context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome := &BulkOutcome{
		Success:    []string{},
		FailedDB:   []string{},
		FailedOCI:  []string{},
		FailedBoth: []string{},
	}
	for _, item := range items {
		db, st := dbFailed[item.objectName], storeFailed[item.objectName]
		switch {
		case db && st:
			outcome.FailedBoth = append(outcome.FailedBoth, item.objectName)
		case db:
			outcome.FailedDB = append(outcome.FailedDB, item.objectName)
		case st:
			outcome.FailedOCI = append(outcome.FailedOCI, item.objectName)
		default:
			outcome.Success = append(outcome.Success, item.objectName)
		}
	}
	sort.Strings(outcome.Success)
	sort.Strings(outcome.FailedDB)
	sort.Strings(outcome.FailedOCI)
	sort.Strings(outcome.FailedBoth)

	return outcome, nil
}

// resolveItems turns the id and object-name inputs into a deduplicated work
// list. Unknown file ids are skipped: their rows are already gone.
func (s *CleanupService) resolveItems(ctx context.Context, fileIDs, objectNames []string) ([]bulkItem, error) {
	var items []bulkItem
	covered := make(map[string]struct{})

	if len(fileIDs) > 0 {
		tracked, err := s.repos.Files(s.db).GetByIDs(ctx, fileIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve tracked files: %w", err)
		}
		for _, f := range tracked {
			items = append(items, bulkItem{objectName: f.ObjectName, fileID: f.ID})
			covered[f.ObjectName] = struct{}{}
		}
	}

	for _, name := range objectNames {
		if name == "" {
			continue
		}
		if _, ok := covered[name]; ok {
			continue
		}
		covered[name] = struct{}{}
		items = append(items, bulkItem{objectName: name})
	}

	return items, nil
}
