package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sharenest/sharenest/internal/common"
	"github.com/sharenest/sharenest/internal/config"
	"github.com/sharenest/sharenest/internal/logging"
	"github.com/sharenest/sharenest/internal/server/repositories/repomanager"
	"github.com/sharenest/sharenest/internal/server/storage"
)

// GateView holds what a status page may see about a share link. It never
// carries the PIN hash or the raw object identity.
type GateView struct {
	Token          string    `json:"token"`
	Filename       string    `json:"filename"`
	SizeBytes      *int64    `json:"size_bytes,omitempty"`
	Expiry         time.Time `json:"expiry"`
	ExpiryPretty   string    `json:"expiry_pretty"`
	DownloadCount  int       `json:"download_count"`
	MaxDownloads   int       `json:"max_downloads"`
	Expired        bool      `json:"expired"`
	Exhausted      bool      `json:"exhausted"`
	SharingMessage *string   `json:"sharing_message,omitempty"`
}

// GateService guards downloads behind the share token, the PIN, the expiry
// date and the download quota. Every request re-reads the metadata row; no
// gate state is cached between calls.
type GateService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	store storage.ObjectStore
	cfg   *config.Config
	log   logging.Logger
	now   func() time.Time
}

// NewGateService constructs a GateService.
func NewGateService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, log logging.Logger) *GateService {
	return &GateService{
		db:    db,
		repos: repos,
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Resolve looks a token up and reports the link's current state.
func (s *GateService) Resolve(ctx context.Context, token string) (*GateView, error) {
	f, err := s.repos.Files(s.db).GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return &GateView{
		Token:          token,
		Filename:       f.OriginalFilename,
		SizeBytes:      f.SizeBytes,
		Expiry:         f.ExpiryDate,
		ExpiryPretty:   prettyRemaining(f.ExpiryDate, now),
		DownloadCount:  f.DownloadCount,
		MaxDownloads:   f.MaxDownloads,
		Expired:        f.Expired(now),
		Exhausted:      f.Exhausted(),
		SharingMessage: f.SharingMessage,
	}, nil
}

// Consume authorizes one download: it re-resolves the token, checks expiry
// and quota before the PIN, issues a read credential and claims one download
// slot with an atomic conditional increment. A claim that finds the quota
// already spent fails with ErrLinkUnavailable even though the credential was
// issued; a claim that fails on a store error is logged and the credential is
// still returned, accepting an under-count over denying an authorized
// download.
func (s *GateService) Consume(ctx context.Context, token, pin string) (string, error) {
	f, err := s.repos.Files(s.db).GetByToken(ctx, token)
	if err != nil {
		return "", err
	}

	// Expiry and quota come first so PIN probing cannot reveal link state.
	now := s.now().UTC()
	if f.Expired(now) || f.Exhausted() {
		return "", fmt.Errorf("%w: token %s", common.ErrLinkUnavailable, token)
	}

	if !pinMatches(pin, s.cfg.PinSalt, f.PinHash) {
		return "", common.ErrInvalidPin
	}

	url, err := presignWithRetry(ctx, func(ctx context.Context) (string, error) {
		return s.store.PresignGet(ctx, f.ObjectName, s.cfg.ReadCredentialTTL)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCredentialIssue, err)
	}

	claimed, err := s.repos.Files(s.db).TryIncrementDownloads(ctx, f.ID)
	if err != nil {
		s.log.Warn(ctx, "download counter update failed", "file_id", f.ID, "error", err)
		return url, nil
	}
	if !claimed {
		// A concurrent download took the last slot between the check above
		// and the claim.
		return "", fmt.Errorf("%w: quota exhausted", common.ErrLinkUnavailable)
	}

	return url, nil
}
