package auth

import (
	"go-taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authn gin.HandlerFunc,
) {
	routes := r.Group("/auth")
	{
		routes.POST("/register",
			middleware.RateLimitByIP(1, 5),
			handler.Register,
		)

		routes.POST("/login",
			middleware.RateLimitByIP(1, 5),
			handler.Login,
		)

		routes.POST("/logout", handler.Logout)

		routes.GET("/me",
			authn,
			middleware.RateLimitByUser(3, 10),
			handler.Me,
		)

		routes.PUT("/profile",
			authn,
			middleware.RateLimitByUser(3, 10),
			handler.UpdateProfile,
		)
	}
}
