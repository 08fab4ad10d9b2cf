package dashboard

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
	routes := r.Group("/dashboard")
	routes.Use(authn)
	{
		routes.GET("/boss",
			middleware.RequireRoles(access.RoleAdmin, access.RoleManager, access.RoleSuperadmin),
			middleware.RateLimitByUser(3, 10),
			handler.Boss,
		)

		routes.GET("/employee",
			middleware.RateLimitByUser(3, 10),
			handler.Employee,
		)
	}
}
