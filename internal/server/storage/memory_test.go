package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharenest/sharenest/internal/common"
)

func TestMemoryStorePutRegistersObject(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	url, err := s.PresignPut(ctx, "abcd_report.pdf", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://mock.store/par-write/abcd_report.pdf"))

	info, err := s.Head(ctx, "abcd_report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "abcd_report.pdf", info.Name)
}

func TestMemoryStoreHeadMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Head(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrObjectMissing)
}

func TestMemoryStoreMultipartLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uploadID, err := s.CreateMultipart(ctx, "obj")
	require.NoError(t, err)
	assert.Equal(t, 1, s.OpenUploads())

	etag1, err := s.UploadPart(ctx, "obj", uploadID, 1, strings.NewReader("hello "))
	require.NoError(t, err)
	etag2, err := s.UploadPart(ctx, "obj", uploadID, 2, strings.NewReader("world"))
	require.NoError(t, err)

	err = s.CompleteMultipart(ctx, "obj", uploadID, []MultipartPart{
		{Number: 1, ETag: etag1},
		{Number: 2, ETag: etag2},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.OpenUploads())

	info, err := s.Head(ctx, "obj")
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello world")), info.SizeBytes)
}

func TestMemoryStoreCompleteRejectsBadETag(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uploadID, err := s.CreateMultipart(ctx, "obj")
	require.NoError(t, err)
	_, err = s.UploadPart(ctx, "obj", uploadID, 1, strings.NewReader("data"))
	require.NoError(t, err)

	err = s.CompleteMultipart(ctx, "obj", uploadID, []MultipartPart{{Number: 1, ETag: "bogus"}})
	assert.Error(t, err)
}

func TestMemoryStoreAbortDiscardsSession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uploadID, err := s.CreateMultipart(ctx, "obj")
	require.NoError(t, err)

	require.NoError(t, s.AbortMultipart(ctx, "obj", uploadID))
	assert.Equal(t, 0, s.OpenUploads())

	_, err = s.UploadPart(ctx, "obj", uploadID, 1, strings.NewReader("late"))
	assert.Error(t, err)
}

func TestMemoryStoreDeleteMissingIsSuccess(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Delete(context.Background(), "never-existed"))
}

func TestMemoryStoreListCapped(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.Seed("a", 1, now)
	s.Seed("b", 2, now)
	s.Seed("c", 3, now)

	infos, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestMemoryStoreHookInjectsFailures(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("boom")
	s.Hook = func(op, object string) error {
		if op == "presign-get" {
			return boom
		}
		return nil
	}

	_, err := s.PresignGet(context.Background(), "x", time.Minute)
	assert.ErrorIs(t, err, boom)
}
