package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sharenest/sharenest/internal/common"
	"github.com/sharenest/sharenest/internal/config"
	"github.com/sharenest/sharenest/internal/dbx"
	"github.com/sharenest/sharenest/internal/logging"
	"github.com/sharenest/sharenest/internal/server/models"
	"github.com/sharenest/sharenest/internal/server/repositories/files"
	"github.com/sharenest/sharenest/internal/server/repositories/sharelinks"
)

// -------- test fakes --------

type fakeFilesRepo struct {
	mu sync.Mutex

	byToken map[string]*models.File
	byID    map[string]*models.File

	inserted  []*models.File
	insertErr error

	incrementErr error

	sweepBatches [][]*models.File
	sweepCalls   int

	deleted   [][]string
	deleteErr map[string]error

	all    []*models.File
	allErr error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{
		byToken:   make(map[string]*models.File),
		byID:      make(map[string]*models.File),
		deleteErr: make(map[string]error),
	}
}

func (f *fakeFilesRepo) add(token string, file *models.File) {
	f.byToken[token] = file
	f.byID[file.ID] = file
}

func (f *fakeFilesRepo) Insert(ctx context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, file)
	f.byID[file.ID] = file
	return nil
}

func (f *fakeFilesRepo) GetByToken(ctx context.Context, token string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.byToken[token]
	if !ok {
		return nil, fmt.Errorf("%w: token", common.ErrNotFound)
	}
	cp := *file
	return &cp, nil
}

func (f *fakeFilesRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.File
	for _, id := range ids {
		if file, ok := f.byID[id]; ok {
			cp := *file
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFilesRepo) TryIncrementDownloads(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return false, f.incrementErr
	}
	file, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	if file.DownloadCount >= file.MaxDownloads {
		return false, nil
	}
	file.DownloadCount++
	return true, nil
}

func (f *fakeFilesRepo) SelectSweepBatch(ctx context.Context, now time.Time, limit int) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sweepCalls >= len(f.sweepBatches) {
		return nil, nil
	}
	batch := f.sweepBatches[f.sweepCalls]
	f.sweepCalls++
	return batch, nil
}

func (f *fakeFilesRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if err := f.deleteErr[id]; err != nil {
			return 0, err
		}
	}
	f.deleted = append(f.deleted, ids)
	return int64(len(ids)), nil
}

func (f *fakeFilesRepo) SelectAll(ctx context.Context) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all, f.allErr
}

type fakeShareLinksRepo struct {
	mu        sync.Mutex
	inserted  []*models.ShareLink
	insertErr error
}

func (f *fakeShareLinksRepo) Insert(ctx context.Context, link *models.ShareLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, link)
	return nil
}

type fakeRepoManager struct {
	files *fakeFilesRepo
	links *fakeShareLinksRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{files: newFakeFilesRepo(), links: &fakeShareLinksRepo{}}
}

func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository           { return m.files }
func (m *fakeRepoManager) ShareLinks(db dbx.DBTX) sharelinks.Repository { return m.links }

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.PinSalt = "test-salt"
	cfg.BaseURL = "http://share.test"
	return cfg
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
