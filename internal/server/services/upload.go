package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sharenest/sharenest/internal/common"
	"github.com/sharenest/sharenest/internal/config"
	"github.com/sharenest/sharenest/internal/dbx"
	"github.com/sharenest/sharenest/internal/logging"
	"github.com/sharenest/sharenest/internal/server/models"
	"github.com/sharenest/sharenest/internal/server/repositories/repomanager"
	"github.com/sharenest/sharenest/internal/server/storage"
)

// Upload strategies returned in an UploadPlan.
const (
	StrategyDirect    = "direct"
	StrategyMultipart = "multipart"
)

// MinPinLength is the shortest accepted PIN.
const MinPinLength = 4

// UploadPlan tells the client how to move its bytes to the object store.
// Direct plans carry a single write credential; multipart plans carry the
// session id, the advertised part size and a credential for the first part.
type UploadPlan struct {
	Strategy      string `json:"strategy"`
	ObjectName    string `json:"object_name"`
	CredentialURL string `json:"credential_url,omitempty"`
	UploadID      string `json:"upload_id,omitempty"`
	PartSize      int64  `json:"part_size,omitempty"`
}

// FinalizeRequest is the client's claim that an upload completed.
type FinalizeRequest struct {
	ObjectName       string
	UploadID         string
	Parts            []storage.MultipartPart
	Pin              string
	OriginalFilename string
	SizeBytes        int64

	OwnerID        *string
	SharingMessage *string
	GeoHint        *string
}

// ShareRecord is the result of a successful finalize: the public share URL
// and enough metadata to show a confirmation.
type ShareRecord struct {
	ShareURL     string    `json:"share_url"`
	Filename     string    `json:"filename"`
	Expiry       time.Time `json:"expiry"`
	ExpiryPretty string    `json:"expiry_pretty"`
}

// UploadService coordinates the upload lifecycle: it decides the strategy,
// issues write credentials, and turns completed uploads into durable metadata.
// Byte transfer happens directly between the client and the object store.
type UploadService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	store storage.ObjectStore
	cfg   *config.Config
	log   logging.Logger
	now   func() time.Time
}

// NewUploadService constructs an UploadService.
func NewUploadService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, log logging.Logger) *UploadService {
	return &UploadService{
		db:    db,
		repos: repos,
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Initiate sanitizes the filename, picks an upload strategy from the size
// hint and issues the matching write credential.
func (s *UploadService) Initiate(ctx context.Context, filename string, sizeHint int64) (*UploadPlan, error) {
	sanitized := SanitizeFilename(filename)
	objectName := newObjectName(sanitized)

	if sizeHint > s.cfg.MultipartThreshold {
		return s.initiateMultipart(ctx, objectName)
	}

	url, err := presignWithRetry(ctx, func(ctx context.Context) (string, error) {
		return s.store.PresignPut(ctx, objectName, s.cfg.WriteCredentialTTL())
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	return &UploadPlan{
		Strategy:      StrategyDirect,
		ObjectName:    objectName,
		CredentialURL: url,
	}, nil
}

func (s *UploadService) initiateMultipart(ctx context.Context, objectName string) (*UploadPlan, error) {
	uploadID, err := s.store.CreateMultipart(ctx, objectName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	url, err := presignWithRetry(ctx, func(ctx context.Context) (string, error) {
		return s.store.PresignUploadPart(ctx, objectName, uploadID, 1, s.cfg.WriteCredentialTTL())
	})
	if err != nil {
		// No orphaned sessions: the session just opened must not outlive a
		// failed credential.
		if abortErr := s.store.AbortMultipart(ctx, objectName, uploadID); abortErr != nil {
			s.log.Warn(ctx, "abort after failed part credential", "object", objectName, "error", abortErr)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	return &UploadPlan{
		Strategy:      StrategyMultipart,
		ObjectName:    objectName,
		UploadID:      uploadID,
		PartSize:      s.cfg.PartSize,
		CredentialURL: url,
	}, nil
}

// UploadPart proxies one part of a multipart session to the object store and
// returns the store's integrity tag for it.
func (s *UploadService) UploadPart(ctx context.Context, objectName, uploadID string, partNum int32, body io.Reader) (string, error) {
	if objectName == "" || uploadID == "" || partNum < 1 {
		return "", fmt.Errorf("%w: object_name, upload_id and part_num are required", common.ErrValidation)
	}

	etag, err := s.store.UploadPart(ctx, objectName, uploadID, partNum, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return etag, nil
}

// Finalize commits a completed upload into metadata: it closes an indicated
// multipart session, verifies the object actually landed in the store, and
// inserts the File and its ShareLink in one transaction. A repeated finalize
// for the same object reports ErrDuplicateFinalize and never creates a
// second row.
func (s *UploadService) Finalize(ctx context.Context, req *FinalizeRequest) (*ShareRecord, error) {
	if len(req.Pin) < MinPinLength {
		return nil, fmt.Errorf("%w: pin must be at least %d characters", common.ErrValidation, MinPinLength)
	}
	if req.SizeBytes < 0 {
		return nil, fmt.Errorf("%w: negative size", common.ErrValidation)
	}
	if req.ObjectName == "" {
		return nil, fmt.Errorf("%w: object_name is required", common.ErrValidation)
	}

	if req.UploadID != "" {
		if len(req.Parts) == 0 {
			return nil, fmt.Errorf("%w: multipart finalize needs a part list", common.ErrValidation)
		}
		if err := s.store.CompleteMultipart(ctx, req.ObjectName, req.UploadID, req.Parts); err != nil {
			if abortErr := s.store.AbortMultipart(ctx, req.ObjectName, req.UploadID); abortErr != nil {
				s.log.Warn(ctx, "abort after failed commit", "object", req.ObjectName, "error", abortErr)
			}
			return nil, fmt.Errorf("%w: %v", common.ErrCommitFailed, err)
		}
	}

	// The client's word alone is not enough: the object must exist before
	// metadata becomes durable.
	info, err := s.store.Head(ctx, req.ObjectName)
	if err != nil {
		if errors.Is(err, common.ErrObjectMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	size := req.SizeBytes
	if info.SizeBytes > 0 {
		if req.SizeBytes > 0 && req.SizeBytes != info.SizeBytes {
			return nil, fmt.Errorf("%w: reported size %d does not match stored size %d",
				common.ErrValidation, req.SizeBytes, info.SizeBytes)
		}
		size = info.SizeBytes
	}

	now := s.now().UTC()
	file := &models.File{
		ID:               uuid.NewString(),
		OriginalFilename: SanitizeFilename(req.OriginalFilename),
		ObjectName:       req.ObjectName,
		PinHash:          hashPin(req.Pin, s.cfg.PinSalt),
		CreatedAt:        now,
		ExpiryDate:       now.Add(s.cfg.FileRetention),
		MaxDownloads:     s.cfg.MaxDownloads,
		DownloadCount:    0,
		SizeBytes:        &size,
		OwnerID:          req.OwnerID,
		SharingMessage:   req.SharingMessage,
		GeoHint:          req.GeoHint,
	}
	token := newShareToken()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Files(tx).Insert(ctx, file); err != nil {
			return err
		}
		return s.repos.ShareLinks(tx).Insert(ctx, &models.ShareLink{Token: token, FileID: file.ID})
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateFinalize) {
			s.log.Warn(ctx, "duplicate finalize", "object", req.ObjectName)
			return nil, err
		}
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	return &ShareRecord{
		ShareURL:     s.shareURL(token),
		Filename:     file.OriginalFilename,
		Expiry:       file.ExpiryDate,
		ExpiryPretty: prettyRemaining(file.ExpiryDate, now),
	}, nil
}

// Abort abandons an upload. Multipart sessions are aborted with the store;
// for direct uploads there is nothing to revoke, so the call succeeds as a
// no-op to keep the protocol symmetric.
func (s *UploadService) Abort(ctx context.Context, objectName, uploadID string) error {
	if uploadID == "" {
		return nil
	}
	if err := s.store.AbortMultipart(ctx, objectName, uploadID); err != nil {
		s.log.Warn(ctx, "abort multipart", "object", objectName, "upload_id", uploadID, "error", err)
	}
	return nil
}

func (s *UploadService) shareURL(token string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/share/" + token
}
