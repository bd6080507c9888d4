package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharenest/sharenest/internal/common"
)

func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message; the detail stays in the log.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, common.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Unknown share token")
	case errors.Is(err, common.ErrObjectMissing):
		respondError(c, http.StatusNotFound, "OBJECT_MISSING", "Uploaded object not found in storage")
	case errors.Is(err, common.ErrInvalidPin):
		respondError(c, http.StatusForbidden, "INVALID_PIN", "Incorrect PIN")
	case errors.Is(err, common.ErrDuplicateFinalize):
		respondError(c, http.StatusConflict, "ALREADY_FINALIZED", "Upload already finalized")
	case errors.Is(err, common.ErrLinkUnavailable):
		respondError(c, http.StatusGone, "LINK_UNAVAILABLE", "Link expired or download limit reached")
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, common.ErrCommitFailed):
		respondError(c, http.StatusInternalServerError, "COMMIT_FAILED", "Failed to commit upload")
	case errors.Is(err, common.ErrStorageUnavailable), errors.Is(err, common.ErrCredentialIssue):
		respondError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Object storage unavailable")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}
