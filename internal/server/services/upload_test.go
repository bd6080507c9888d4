package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharenest/sharenest/internal/common"
	"github.com/sharenest/sharenest/internal/server/storage"
)

func newUploadService(t *testing.T) (*UploadService, *fakeRepoManager, *storage.MemoryStore) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectRollback()

	repos := newFakeRepoManager()
	store := storage.NewMemoryStore()
	svc := NewUploadService(db, repos, store, testConfig(), testLogger())
	return svc, repos, store
}

func TestInitiateDirect(t *testing.T) {
	svc, _, _ := newUploadService(t)

	plan, err := svc.Initiate(context.Background(), "report.pdf", 1024)
	require.NoError(t, err)

	assert.Equal(t, StrategyDirect, plan.Strategy)
	assert.NotEmpty(t, plan.CredentialURL)
	assert.Empty(t, plan.UploadID)
	assert.True(t, strings.HasSuffix(plan.ObjectName, "_report.pdf"))
}

func TestInitiateSanitizesFilename(t *testing.T) {
	svc, _, _ := newUploadService(t)

	plan, err := svc.Initiate(context.Background(), "../../etc/passwd", 1)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(plan.ObjectName, "_....etcpasswd"))
}

func TestInitiateMultipartAboveThreshold(t *testing.T) {
	svc, _, store := newUploadService(t)

	plan, err := svc.Initiate(context.Background(), "big.iso", 500*1024*1024)
	require.NoError(t, err)

	assert.Equal(t, StrategyMultipart, plan.Strategy)
	assert.NotEmpty(t, plan.UploadID)
	assert.NotEmpty(t, plan.CredentialURL)
	assert.Equal(t, int64(16*1024*1024), plan.PartSize)
	assert.Equal(t, 1, store.OpenUploads())
}

func TestInitiateMultipartAbortsOnCredentialFailure(t *testing.T) {
	svc, _, store := newUploadService(t)
	store.Hook = func(op, object string) error {
		if op == "presign-part" {
			return errors.New("backend down")
		}
		return nil
	}

	_, err := svc.Initiate(context.Background(), "big.iso", 500*1024*1024)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Equal(t, 0, store.OpenUploads(), "failed credential must not leave a session open")
}

func TestInitiateDirectStorageUnavailable(t *testing.T) {
	svc, _, store := newUploadService(t)
	store.Hook = func(op, object string) error {
		if op == "presign-put" {
			return errors.New("backend down")
		}
		return nil
	}

	_, err := svc.Initiate(context.Background(), "report.pdf", 1)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestFinalizeDirect(t *testing.T) {
	svc, repos, store := newUploadService(t)
	store.Seed("aabbccdd00112233_report.pdf", 2048, time.Now())

	rec, err := svc.Finalize(context.Background(), &FinalizeRequest{
		ObjectName:       "aabbccdd00112233_report.pdf",
		Pin:              "1234",
		OriginalFilename: "report.pdf",
		SizeBytes:        2048,
	})
	require.NoError(t, err)

	require.Len(t, repos.files.inserted, 1)
	require.Len(t, repos.links.inserted, 1)

	f := repos.files.inserted[0]
	assert.Equal(t, "report.pdf", f.OriginalFilename)
	assert.Equal(t, 0, f.DownloadCount)
	assert.Equal(t, 5, f.MaxDownloads)
	assert.Equal(t, f.CreatedAt.Add(7*24*time.Hour), f.ExpiryDate)
	require.NotNil(t, f.SizeBytes)
	assert.Equal(t, int64(2048), *f.SizeBytes)
	assert.NotEqual(t, "1234", f.PinHash)

	link := repos.links.inserted[0]
	assert.Equal(t, f.ID, link.FileID)
	assert.Equal(t, "http://share.test/share/"+link.Token, rec.ShareURL)
	assert.Equal(t, "report.pdf", rec.Filename)
	assert.Equal(t, f.ExpiryDate, rec.Expiry)
}

func TestFinalizeRejectsShortPin(t *testing.T) {
	svc, repos, _ := newUploadService(t)

	_, err := svc.Finalize(context.Background(), &FinalizeRequest{
		ObjectName:       "obj",
		Pin:              "123",
		OriginalFilename: "a",
		SizeBytes:        1,
	})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, repos.files.inserted)
}

func TestFinalizeRejectsNegativeSize(t *testing.T) {
	svc, _, _ := newUploadService(t)

	_, err := svc.Finalize(context.Background(), &FinalizeRequest{
		ObjectName: "obj",
		Pin:        "1234",
		SizeBytes:  -1,
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestFinalizeObjectMissing(t *testing.T) {
	svc, repos, _ := newUploadService(t)

	_, err := svc.Finalize(context.Background(), &FinalizeRequest{
		ObjectName:       "never-uploaded",
		Pin:              "1234",
		OriginalFilename: "a",
		SizeBytes:        1,
	})
	assert.ErrorIs(t, err, common.ErrObjectMissing)
	assert.Empty(t, repos.files.inserted)
}

func TestFinalizeSizeMismatch(t *testing.T) {
	svc, _, store := newUploadService(t)
	store.Seed("obj", 100, time.Now())

	_, err := svc.Finalize(context.Background(), &FinalizeRequest{
		ObjectName:       "obj",
		Pin:              "1234",
		OriginalFilename: "a",
		SizeBytes:        50,
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestFinalizeDuplicate(t *testing.T) {
	svc, repos, store := newUploadService(t)
	store.Seed("obj", 10, time.Now())
	repos.files.insertErr = common.ErrDuplicateFinalize

	_, err := svc.Finalize(context.Background(), &FinalizeRequest{
		ObjectName:       "obj",
		Pin:              "1234",
		OriginalFilename: "a",
		SizeBytes:        10,
	})
	assert.ErrorIs(t, err, common.ErrDuplicateFinalize)
	assert.Empty(t, repos.links.inserted, "no share link for a duplicate")
}

func TestFinalizeMultipart(t *testing.T) {
	svc, repos, store := newUploadService(t)
	ctx := context.Background()

	uploadID, err := store.CreateMultipart(ctx, "obj")
	require.NoError(t, err)
	etag, err := store.UploadPart(ctx, "obj", uploadID, 1, strings.NewReader("payload"))
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, &FinalizeRequest{
		ObjectName:       "obj",
		UploadID:         uploadID,
		Parts:            []storage.MultipartPart{{Number: 1, ETag: etag}},
		Pin:              "1234",
		OriginalFilename: "big.iso",
		SizeBytes:        int64(len("payload")),
	})
	require.NoError(t, err)
	require.Len(t, repos.files.inserted, 1)
	assert.Equal(t, 0, store.OpenUploads())
}

func TestFinalizeMultipartWithoutParts(t *testing.T) {
	svc, _, _ := newUploadService(t)

	_, err := svc.Finalize(context.Background(), &FinalizeRequest{
		ObjectName: "obj",
		UploadID:   "up1",
		Pin:        "1234",
		SizeBytes:  1,
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestFinalizeMultipartCommitFailureAborts(t *testing.T) {
	svc, repos, store := newUploadService(t)
	ctx := context.Background()

	uploadID, err := store.CreateMultipart(ctx, "obj")
	require.NoError(t, err)
	_, err = store.UploadPart(ctx, "obj", uploadID, 1, strings.NewReader("payload"))
	require.NoError(t, err)

	store.Hook = func(op, object string) error {
		if op == "complete-multipart" {
			return errors.New("commit refused")
		}
		return nil
	}

	_, err = svc.Finalize(ctx, &FinalizeRequest{
		ObjectName: "obj",
		UploadID:   uploadID,
		Parts:      []storage.MultipartPart{{Number: 1, ETag: "x"}},
		Pin:        "1234",
		SizeBytes:  1,
	})
	assert.ErrorIs(t, err, common.ErrCommitFailed)
	assert.Equal(t, 0, store.OpenUploads(), "failed commit must abort the session")
	assert.Empty(t, repos.files.inserted)
}

func TestUploadPartProxies(t *testing.T) {
	svc, _, store := newUploadService(t)
	ctx := context.Background()

	uploadID, err := store.CreateMultipart(ctx, "obj")
	require.NoError(t, err)

	etag, err := svc.UploadPart(ctx, "obj", uploadID, 1, strings.NewReader("chunk"))
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
}

func TestUploadPartValidation(t *testing.T) {
	svc, _, _ := newUploadService(t)

	_, err := svc.UploadPart(context.Background(), "obj", "", 1, strings.NewReader(""))
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.UploadPart(context.Background(), "obj", "up", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAbortMultipart(t *testing.T) {
	svc, _, store := newUploadService(t)
	ctx := context.Background()

	uploadID, err := store.CreateMultipart(ctx, "obj")
	require.NoError(t, err)

	require.NoError(t, svc.Abort(ctx, "obj", uploadID))
	assert.Equal(t, 0, store.OpenUploads())
}

func TestAbortDirectIsNoOp(t *testing.T) {
	svc, _, _ := newUploadService(t)
	assert.NoError(t, svc.Abort(context.Background(), "obj", ""))
}
