package task

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go-taskhub/internal/middleware"
	"go-taskhub/internal/shared/apperror"
	"go-taskhub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyCacheTTL = 10 * time.Minute

type Handler struct {
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("task.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("task.handler")
	}
	return &Handler{service: service, logger: l}
}

// NewHandlerWithRedis additionally fills the idempotency replay cache
// after successful creates.
func NewHandlerWithRedis(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, logger...)
	h.rdb = rdb
	return h
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("task request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
	h.releaseIdempotencyLock(c)
}

func (h *Handler) Create(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req CreateTaskRequest
	var files []Upload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
		opened, closers, err := h.openUploads(c)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		defer closers()
		files = opened
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := h.service.Create(c.Request.Context(), actor, req, files)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.fillIdempotencyCache(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var q ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, meta, err := h.service.List(c.Request.Context(), actor, q)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, meta)
}

func (h *Handler) MyTasks(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var q ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, meta, err := h.service.MyTasks(c.Request.Context(), actor, q)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, meta)
}

func (h *Handler) Get(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	resp, err := h.service.Get(c.Request.Context(), actor, c.Param("taskId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), actor, c.Param("taskId"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("taskId")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Task deleted"}, nil)
}

func (h *Handler) AddComment(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.AddComment(c.Request.Context(), actor, c.Param("taskId"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) AddAttachment(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.writeServiceError(c, apperror.RequiredField("file"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer f.Close()

	resp, err := h.service.AddAttachment(c.Request.Context(), actor, c.Param("taskId"), uploadFromHeader(fileHeader, f))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) DeleteAttachment(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	err := h.service.DeleteAttachment(c.Request.Context(), actor, c.Param("taskId"), c.Param("attachmentId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Attachment deleted"}, nil)
}

func (h *Handler) openUploads(c *gin.Context) ([]Upload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, apperror.InvalidField("attachments")
	}

	var uploads []Upload
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, fh := range form.File["attachments"] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		uploads = append(uploads, uploadFromHeader(fh, f))
	}

	return uploads, closeAll, nil
}

func uploadFromHeader(fh *multipart.FileHeader, f multipart.File) Upload {
	return Upload{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Reader:   f,
	}
}

// fillIdempotencyCache stores the successful create response so a
// retried Idempotency-Key replays it instead of creating a second task.
func (h *Handler) fillIdempotencyCache(c *gin.Context, resp TaskResponse) {
	if h.rdb == nil {
		return
	}

	cacheKey := c.GetString("idempotency_cache_key")
	if cacheKey == "" {
		return
	}

	payload, err := json.Marshal(resp)
	if err == nil {
		if err := h.rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyCacheTTL).Err(); err != nil {
			h.logger.Warn("idempotency cache fill failed", zap.Error(err))
		}
	}

	if lockKey := c.GetString("idempotency_lock_key"); lockKey != "" {
		if err := h.rdb.Del(c.Request.Context(), lockKey).Err(); err != nil {
			h.logger.Warn("idempotency lock release failed", zap.Error(err))
		}
	}
}

func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	if h.rdb == nil {
		return
	}
	if lockKey := c.GetString("idempotency_lock_key"); lockKey != "" {
		if err := h.rdb.Del(c.Request.Context(), lockKey).Err(); err != nil {
			h.logger.Warn("idempotency lock release failed", zap.Error(err))
		}
	}
}
