package storage

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sharenest/sharenest/internal/common"
)

// MemoryStore is the in-memory ObjectStore used for development and tests.
// Credentials are fake URLs; an object issued a write credential is considered
// uploaded with unknown size, matching the dev-mode behaviour of an absent
// backend.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]ObjectInfo
	uploads map[string]*memUpload

	// Hook, when set, runs before every operation and can inject a failure.
	Hook func(op, object string) error

	now func() time.Time
}

type memUpload struct {
	object string
	parts  map[int32]memPart
}

type memPart struct {
	etag string
	size int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]ObjectInfo),
		uploads: make(map[string]*memUpload),
		now:     time.Now,
	}
}

// Seed registers an object directly, bypassing the upload protocol. Test use.
func (m *MemoryStore) Seed(object string, size int64, created time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[object] = ObjectInfo{Name: object, SizeBytes: size, CreatedAt: created}
}

func (m *MemoryStore) hook(op, object string) error {
	if m.Hook != nil {
		return m.Hook(op, object)
	}
	return nil
}

func (m *MemoryStore) PresignPut(ctx context.Context, object string, ttl time.Duration) (string, error) {
	if err := m.hook("presign-put", object); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[object]; !ok {
		m.objects[object] = ObjectInfo{Name: object, CreatedAt: m.now()}
	}
	return "https://mock.store/par-write/" + object + "-" + randomHex(6), nil
}

func (m *MemoryStore) PresignGet(ctx context.Context, object string, ttl time.Duration) (string, error) {
	if err := m.hook("presign-get", object); err != nil {
		return "", err
	}
	return "https://mock.store/par/" + object + "-" + randomHex(6), nil
}

func (m *MemoryStore) CreateMultipart(ctx context.Context, object string) (string, error) {
	if err := m.hook("create-multipart", object); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	uploadID := randomHex(12)
	m.uploads[uploadID] = &memUpload{object: object, parts: make(map[int32]memPart)}
	return uploadID, nil
}

func (m *MemoryStore) PresignUploadPart(ctx context.Context, object, uploadID string, partNum int32, ttl time.Duration) (string, error) {
	if err := m.hook("presign-part", object); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.uploads[uploadID]; !ok {
		return "", fmt.Errorf("unknown upload id %s", uploadID)
	}
	return fmt.Sprintf("https://mock.store/par-part/%s/%s/%d", object, uploadID, partNum), nil
}

func (m *MemoryStore) UploadPart(ctx context.Context, object, uploadID string, partNum int32, body io.Reader) (string, error) {
	if err := m.hook("upload-part", object); err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.uploads[uploadID]
	if !ok || up.object != object {
		return "", fmt.Errorf("unknown upload id %s for object %s", uploadID, object)
	}

	sum := md5.Sum(data)
	etag := hex.EncodeToString(sum[:])
	up.parts[partNum] = memPart{etag: etag, size: int64(len(data))}
	return etag, nil
}

func (m *MemoryStore) CompleteMultipart(ctx context.Context, object, uploadID string, parts []MultipartPart) error {
	if err := m.hook("complete-multipart", object); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.uploads[uploadID]
	if !ok || up.object != object {
		return fmt.Errorf("unknown upload id %s for object %s", uploadID, object)
	}

	var total int64
	for _, p := range parts {
		stored, ok := up.parts[p.Number]
		if !ok {
			return fmt.Errorf("part %d was never uploaded", p.Number)
		}
		if stored.etag != p.ETag {
			return fmt.Errorf("part %d etag mismatch", p.Number)
		}
		total += stored.size
	}

	m.objects[object] = ObjectInfo{Name: object, SizeBytes: total, CreatedAt: m.now()}
	delete(m.uploads, uploadID)
	return nil
}

func (m *MemoryStore) AbortMultipart(ctx context.Context, object, uploadID string) error {
	if err := m.hook("abort-multipart", object); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.uploads, uploadID)
	return nil
}

func (m *MemoryStore) Head(ctx context.Context, object string) (*ObjectInfo, error) {
	if err := m.hook("head", object); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.objects[object]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrObjectMissing, object)
	}
	return &info, nil
}

func (m *MemoryStore) List(ctx context.Context, max int) ([]ObjectInfo, error) {
	if err := m.hook("list", ""); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]ObjectInfo, 0, len(m.objects))
	for _, info := range m.objects {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	if len(infos) > max {
		infos = infos[:max]
	}
	return infos, nil
}

func (m *MemoryStore) Delete(ctx context.Context, object string) error {
	if err := m.hook("delete", object); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, object)
	return nil
}

// OpenUploads reports the number of open multipart sessions. Test use.
func (m *MemoryStore) OpenUploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
