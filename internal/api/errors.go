package api

import (
	"net/http"

	"GameCatalog/internal/errs"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusOf 错误类别 → HTTP 状态码
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一错误响应；5xx 记 Error，其余记 Warn
func respondError(c *gin.Context, logger *logrus.Logger, err error, action string) {
	status := statusOf(err)
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error(action + " failed")
	} else {
		entry.Warn(action + " failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
