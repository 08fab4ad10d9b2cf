package notification

import (
	"go-taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authn gin.HandlerFunc,
) {
	routes := r.Group("/notification")
	routes.Use(authn)
	{
		routes.GET("",
			middleware.RateLimitByUser(5, 20),
			handler.List,
		)

		routes.PATCH("/:id/read",
			middleware.RateLimitByUser(5, 20),
			handler.MarkRead,
		)

		routes.PATCH("/read-all",
			middleware.RateLimitByUser(3, 10),
			handler.MarkAllRead,
		)
	}
}
