package api

import (
	"errors"
	"net/http"

	"course-service/internal/apperr"
	"course-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:            http.StatusNotFound,
	apperr.KindForbidden:           http.StatusForbidden,
	apperr.KindUnauthorized:        http.StatusUnauthorized,
	apperr.KindConflict:            http.StatusConflict,
	apperr.KindUpstreamUnavailable: http.StatusBadGateway,
	apperr.KindBadRequest:          http.StatusBadRequest,
}

// respondError maps a service error to a fixed status and a stable
// machine-readable body. Untagged errors surface as an opaque 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status, ok := kindStatus[appErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error":   appErr.Kind.String(),
			"message": appErr.Message,
		})
		return
	}

	util.GetLogger().Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal",
		"message": "internal server error",
	})
}
