package api

import (
	"errors"
	"net/http"

	"gym360/backend/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// respondError maps service error kinds to status codes. Store failures
// are logged and reported without detail.
func respondError(c *gin.Context, logger *log.Logger, err error) {
	// Field-level validation carries extra detail for the client
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body := gin.H{"error": verr.Error(), "field": verr.Field}
		if len(verr.InvalidIDs) > 0 {
			body["invalidIds"] = verr.InvalidIDs // Unknown client IDs
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
		return
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		// Unexpected: log it, don't leak it
		logger.Error("request failed",
			"path", c.FullPath(),
			"requestId", c.GetString(ContextRequestIDKey),
			"err", err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindError reports a malformed request body.
func bindError(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
}
