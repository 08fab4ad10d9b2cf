package company

import (
	"go-taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authn gin.HandlerFunc,
) {
	companies := r.Group("/company")
	{
		companies.POST("/register/company",
			middleware.RateLimitByIP(1, 5),
			handler.Register,
		)

		companies.GET("/:id",
			authn,
			middleware.RateLimitByUser(3, 10),
			handler.GetById,
		)
	}
}
