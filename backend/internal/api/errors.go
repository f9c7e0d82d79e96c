package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "conduit/backend/pkg/errors"
)

// renderError maps a service error onto a status and an errors envelope.
func renderError(err error) (int, gin.H) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		var verr *apperrors.ErrValidation
		if errors.As(err, &verr) {
			return http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields}
		}
	case apperrors.ErrorTypeNotFound:
		var nf *apperrors.ErrNotFound
		if errors.As(err, &nf) {
			return http.StatusNotFound, gin.H{"errors": gin.H{nf.Entity: nf.Message}}
		}
	case apperrors.ErrorTypeConflict:
		var conflict *apperrors.ErrConflict
		if errors.As(err, &conflict) {
			return http.StatusConflict, gin.H{"errors": gin.H{conflict.Field: []string{conflict.Message}}}
		}
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized, detail(err)
	case apperrors.ErrorTypeForbidden:
		return http.StatusForbidden, detail(err)
	}
	return http.StatusInternalServerError, gin.H{"errors": gin.H{"detail": "Internal server error."}}
}

func detail(err error) gin.H {
	var base *apperrors.BaseError
	if errors.As(err, &base) {
		return gin.H{"errors": gin.H{"detail": base.Message}}
	}
	return gin.H{"errors": gin.H{"detail": err.Error()}}
}

// fail aborts the request with the rendered error.
func (h *Handler) fail(c *gin.Context, err error) {
	status, body := renderError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Basic realm="conduit"`)
	}
	c.AbortWithStatusJSON(status, body)
}

// bind decodes the JSON body into dst, failing the request on malformed input.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": gin.H{"body": []string{err.Error()}}})
		return false
	}
	return true
}
