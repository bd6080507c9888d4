package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharenest/sharenest/internal/server/models"
	"github.com/sharenest/sharenest/internal/server/storage"
)

func newReconcileService(t *testing.T) (*ReconcileService, *fakeRepoManager, *storage.MemoryStore) {
	t.Helper()
	repos := newFakeRepoManager()
	store := storage.NewMemoryStore()
	svc := NewReconcileService(nil, repos, store, testConfig(), testLogger())
	return svc, repos, store
}

func trackedFile(id, objectName string, created time.Time) *models.File {
	size := int64(100)
	return &models.File{
		ID:               id,
		OriginalFilename: "f-" + id,
		ObjectName:       objectName,
		CreatedAt:        created,
		SizeBytes:        &size,
	}
}

func TestScanClassifies(t *testing.T) {
	svc, repos, store := newReconcileService(t)
	now := time.Now().UTC()

	// Remote holds A and B; metadata tracks B and C.
	store.Seed("obj-a", 10, now.Add(-3*time.Hour))
	store.Seed("obj-b", 20, now.Add(-2*time.Hour))
	repos.files.all = []*models.File{
		trackedFile("id-b", "obj-b", now.Add(-2*time.Hour)),
		trackedFile("id-c", "obj-c", now.Add(-time.Hour)),
	}

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 3)

	byName := make(map[string]models.ClassifiedObject, len(result))
	for _, co := range result {
		byName[co.ObjectName] = co
	}

	assert.Equal(t, models.StatusOrphaned, byName["obj-a"].Status)
	assert.Empty(t, byName["obj-a"].FileID)

	assert.Equal(t, models.StatusSynced, byName["obj-b"].Status)
	assert.Equal(t, "id-b", byName["obj-b"].FileID)
	assert.Equal(t, int64(20), byName["obj-b"].SizeBytes)

	assert.Equal(t, models.StatusMissing, byName["obj-c"].Status)
	assert.Equal(t, "id-c", byName["obj-c"].FileID)
}

func TestScanOrdering(t *testing.T) {
	svc, repos, store := newReconcileService(t)
	now := time.Now().UTC()

	store.Seed("orphan-old", 1, now.Add(-4*time.Hour))
	store.Seed("orphan-new", 1, now.Add(-time.Hour))
	store.Seed("synced", 1, now.Add(-2*time.Hour))
	repos.files.all = []*models.File{
		trackedFile("id-s", "synced", now.Add(-2*time.Hour)),
		trackedFile("id-m1", "missing-old", now.Add(-3*time.Hour)),
		trackedFile("id-m2", "missing-new", now.Add(-time.Minute)),
	}

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 5)

	names := make([]string, 0, len(result))
	for _, co := range result {
		names = append(names, co.ObjectName)
	}
	// Missing first, then orphaned, then synced; newest first within a group.
	assert.Equal(t, []string{"missing-new", "missing-old", "orphan-new", "orphan-old", "synced"}, names)
}

func TestScanEmpty(t *testing.T) {
	svc, _, _ := newReconcileService(t)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestScanListFailure(t *testing.T) {
	svc, _, store := newReconcileService(t)
	store.Hook = func(op, object string) error {
		if op == "list" {
			return errors.New("backend down")
		}
		return nil
	}

	_, err := svc.Scan(context.Background())
	assert.Error(t, err)
}

func TestScanMetadataFailure(t *testing.T) {
	svc, repos, _ := newReconcileService(t)
	repos.files.allErr = errors.New("connection reset")

	_, err := svc.Scan(context.Background())
	assert.Error(t, err)
}

func TestScanBoundedListing(t *testing.T) {
	svc, _, store := newReconcileService(t)
	cfg := testConfig()
	cfg.ReconcileMaxObjects = 2
	svc.cfg = cfg

	now := time.Now().UTC()
	store.Seed("a", 1, now)
	store.Seed("b", 1, now)
	store.Seed("c", 1, now)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, result, 2)
}
