package storage

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"go-taskhub/internal/middleware"
	"go-taskhub/internal/shared/apperror"
	"go-taskhub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DownloadHandler struct {
	store  BlobStore
	logger *zap.Logger
}

func NewDownloadHandler(store BlobStore, logger ...*zap.Logger) *DownloadHandler {
	l := zap.L().Named("storage.download")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("storage.download")
	}
	return &DownloadHandler{store: store, logger: l}
}

// Download proxies a blob to the client. The object key's tenant prefix
// must match the actor's company unless the actor is superadmin.
func (h *DownloadHandler) Download(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	key := c.Query("path")
	if key == "" {
		httpErr := apperror.ToHTTP(apperror.RequiredField("path"))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	if !actor.IsSuperadmin() && KeyCompanyPrefix(key) != actor.CompanyID.String() {
		// Indistinguishable from a missing object.
		httpErr := apperror.ToHTTP(errObjectNotFound)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	rc, size, err := h.store.Download(c.Request.Context(), key)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("download failed",
			zap.Int("status", httpErr.Status),
			zap.String("code", httpErr.Code),
		)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}
	defer rc.Close()

	filename := filepath.Base(key)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/octet-stream")
	if size > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", size))
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("download stream interrupted", zap.Error(err))
	}
}

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *DownloadHandler,
	authn gin.HandlerFunc,
) {
	r.GET("/download",
		authn,
		middleware.RateLimitByUser(5, 20),
		handler.Download,
	)
}
