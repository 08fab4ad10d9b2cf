package user

import (
	"go-taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authn gin.HandlerFunc,
) {
	users := r.Group("/user")
	users.Use(authn)
	{
		users.GET("/get-users",
			middleware.RateLimitByUser(3, 10),
			handler.GetAll,
		)

		users.GET("/get-users/:id",
			middleware.RateLimitByUser(3, 10),
			handler.GetById,
		)
	}
}
