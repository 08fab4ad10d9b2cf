package invitation

import (
	"go-taskhub/internal/access"
	"go-taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authn gin.HandlerFunc,
) {
	routes := r.Group("/invitation")
	{
		routes.POST("/generate",
			authn,
			middleware.RequireRoles(access.RoleAdmin, access.RoleSuperadmin),
			middleware.RateLimitByUser(1, 5),
			handler.Generate,
		)

		routes.GET("/validate/:token",
			middleware.RateLimitByIP(3, 10),
			handler.Validate,
		)

		routes.POST("/register",
			middleware.RateLimitByIP(1, 5),
			handler.Register,
		)

		routes.GET("",
			authn,
			middleware.RequireRoles(access.RoleAdmin, access.RoleSuperadmin),
			middleware.RateLimitByUser(3, 10),
			handler.List,
		)

		routes.POST("/:id/revoke",
			authn,
			middleware.RequireRoles(access.RoleAdmin, access.RoleSuperadmin),
			middleware.RateLimitByUser(1, 5),
			handler.Revoke,
		)
	}
}
