package httpapi

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharenest/sharenest/internal/config"
	"github.com/sharenest/sharenest/internal/logging"
	"github.com/sharenest/sharenest/internal/server/auth"
	"github.com/sharenest/sharenest/internal/server/models"
	"github.com/sharenest/sharenest/internal/server/services"
	"github.com/sharenest/sharenest/internal/server/storage"
)

// Uploader is the upload lifecycle surface the handlers need.
type Uploader interface {
	Initiate(ctx context.Context, filename string, sizeHint int64) (*services.UploadPlan, error)
	UploadPart(ctx context.Context, objectName, uploadID string, partNum int32, body io.Reader) (string, error)
	Finalize(ctx context.Context, req *services.FinalizeRequest) (*services.ShareRecord, error)
	Abort(ctx context.Context, objectName, uploadID string) error
}

// Gate is the download gating surface the handlers need.
type Gate interface {
	Resolve(ctx context.Context, token string) (*services.GateView, error)
	Consume(ctx context.Context, token, pin string) (string, error)
}

// Reconciler reports drift between the object store and metadata.
type Reconciler interface {
	Scan(ctx context.Context) ([]models.ClassifiedObject, error)
}

// Cleaner removes expired and orphaned entries.
type Cleaner interface {
	SweepExpired(ctx context.Context) (*services.SweepReport, error)
	BulkDelete(ctx context.Context, fileIDs, objectNames []string) (*services.BulkOutcome, error)
}

// Handler wires the services into gin routes.
type Handler struct {
	uploads   Uploader
	gate      Gate
	reconcile Reconciler
	cleanup   Cleaner
	cfg       *config.Config
	log       logging.Logger
}

// NewHandler constructs a Handler.
func NewHandler(uploads Uploader, gate Gate, reconcile Reconciler, cleanup Cleaner, cfg *config.Config, log logging.Logger) *Handler {
	return &Handler{
		uploads:   uploads,
		gate:      gate,
		reconcile: reconcile,
		cleanup:   cleanup,
		cfg:       cfg,
		log:       log,
	}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", h.Health)

	r.POST("/api/initiate-upload", h.InitiateUpload)
	r.POST("/api/upload-part", h.UploadPart)
	r.POST("/api/finalize-upload", h.FinalizeUpload)
	r.POST("/api/abort-upload", h.AbortUpload)

	r.GET("/share/:token", h.ShareStatus)
	r.POST("/download/:token", h.Download)

	r.POST("/api/admin/login", h.AdminLogin)

	admin := r.Group("/api/admin", AdminAuth([]byte(h.cfg.SecretKey)))
	admin.GET("/files", h.AdminFiles)
	admin.POST("/cleanup", h.AdminCleanup)
	admin.POST("/sweep", h.AdminSweep)

	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type initiateUploadRequest struct {
	Filename string `json:"filename" binding:"required"`
	SizeHint int64  `json:"size_hint"`
}

func (h *Handler) InitiateUpload(c *gin.Context) {
	var req initiateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	plan, err := h.uploads.Initiate(c.Request.Context(), req.Filename, req.SizeHint)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, plan)
}

func (h *Handler) UploadPart(c *gin.Context) {
	objectName := c.Query("object_name")
	uploadID := c.Query("upload_id")

	partNum, err := strconv.ParseInt(c.Query("part_num"), 10, 32)
	if err != nil || partNum < 1 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "part_num must be a positive integer")
		return
	}

	etag, err := h.uploads.UploadPart(c.Request.Context(), objectName, uploadID, int32(partNum), c.Request.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"etag": etag})
}

type finalizeUploadRequest struct {
	ObjectName       string         `json:"object_name" binding:"required"`
	UploadID         string         `json:"upload_id"`
	Parts            []finalizePart `json:"parts"`
	Pin              string         `json:"pin" binding:"required"`
	OriginalFilename string         `json:"original_filename"`
	SizeBytes        int64          `json:"size_bytes"`
	OwnerID          *string        `json:"owner_id"`
	SharingMessage   *string        `json:"sharing_message"`
	GeoHint          *string        `json:"geo_hint"`
}

type finalizePart struct {
	PartNum int32  `json:"part_num"`
	ETag    string `json:"etag"`
}

func (h *Handler) FinalizeUpload(c *gin.Context) {
	var req finalizeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	freq := &services.FinalizeRequest{
		ObjectName:       req.ObjectName,
		UploadID:         req.UploadID,
		Pin:              req.Pin,
		OriginalFilename: req.OriginalFilename,
		SizeBytes:        req.SizeBytes,
		OwnerID:          req.OwnerID,
		SharingMessage:   req.SharingMessage,
		GeoHint:          req.GeoHint,
	}
	for _, p := range req.Parts {
		freq.Parts = append(freq.Parts, storage.MultipartPart{Number: p.PartNum, ETag: p.ETag})
	}

	rec, err := h.uploads.Finalize(c.Request.Context(), freq)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, rec)
}

type abortUploadRequest struct {
	ObjectName string `json:"object_name" binding:"required"`
	UploadID   string `json:"upload_id"`
}

func (h *Handler) AbortUpload(c *gin.Context) {
	var req abortUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.uploads.Abort(c.Request.Context(), req.ObjectName, req.UploadID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"status": "aborted"})
}

func (h *Handler) ShareStatus(c *gin.Context) {
	view, err := h.gate.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Expired and exhausted links still render their state; only unknown
	// tokens 404.
	respondSuccess(c, http.StatusOK, view)
}

type downloadRequest struct {
	Pin string `json:"pin" binding:"required"`
}

func (h *Handler) Download(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "PIN is required")
		return
	}

	url, err := h.gate.Consume(c.Request.Context(), c.Param("token"), req.Pin)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}

type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Password is required")
		return
	}

	if h.cfg.AdminPasswordHash == "" {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Admin login is not configured")
		return
	}
	if err := auth.CheckPassword(req.Password, h.cfg.AdminPasswordHash); err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := auth.GenerateToken(auth.RoleAdmin, []byte(h.cfg.SecretKey), h.cfg.AdminTokenTTL)
	if err != nil {
		h.log.Error(c.Request.Context(), "mint admin token", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"token": token})
}

func (h *Handler) AdminFiles(c *gin.Context) {
	result, err := h.reconcile.Scan(c.Request.Context())
	if err != nil {
		h.log.Error(c.Request.Context(), "reconciliation scan", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Reconciliation scan failed")
		return
	}

	respondSuccess(c, http.StatusOK, result)
}

type adminCleanupRequest struct {
	FileIDs     []string `json:"file_ids"`
	ObjectNames []string `json:"object_names"`
}

func (h *Handler) AdminCleanup(c *gin.Context) {
	var req adminCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	outcome, err := h.cleanup.BulkDelete(c.Request.Context(), req.FileIDs, req.ObjectNames)
	if err != nil {
		h.log.Error(c.Request.Context(), "bulk delete", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Bulk delete failed")
		return
	}

	// Per-item failures live inside the outcome; the call itself is a 200.
	respondSuccess(c, http.StatusOK, outcome)
}

func (h *Handler) AdminSweep(c *gin.Context) {
	report, err := h.cleanup.SweepExpired(c.Request.Context())
	if err != nil {
		h.log.Error(c.Request.Context(), "sweep", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Sweep failed")
		return
	}

	respondSuccess(c, http.StatusOK, report)
}
