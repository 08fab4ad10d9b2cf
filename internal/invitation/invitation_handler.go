package invitation

import (
	"net/http"

	"go-taskhub/internal/middleware"
	"go-taskhub/internal/session"
	"go-taskhub/internal/shared/apperror"
	"go-taskhub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("invitation.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("invitation.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("invitation request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Generate(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req GenerateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Validate(c *gin.Context) {
	resp, err := h.service.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Register(c *gin.Context) {
	var req ConsumeInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Consume(c.Request.Context(), req.Token, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if id, err := uuid.Parse(resp.User.ID); err == nil {
		if token, terr := session.CreateToken(id); terr == nil {
			session.SetCookie(c, token)
		} else {
			h.logger.Error("session token issue failed", zap.Error(terr))
		}
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	resp, err := h.service.ListByCompany(c.Request.Context(), actor, c.Query("companyId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Revoke(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	resp, err := h.service.Revoke(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
