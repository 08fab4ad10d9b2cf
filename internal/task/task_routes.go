package task

import (
	"go-taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authn gin.HandlerFunc,
	idempotency gin.HandlerFunc,
) {
	tasks := r.Group("/task")
	tasks.Use(authn)
	{
		tasks.GET("",
			middleware.RateLimitByUser(5, 20),
			handler.List,
		)

		tasks.GET("/my-tasks",
			middleware.RateLimitByUser(5, 20),
			handler.MyTasks,
		)

		tasks.POST("/createTask",
			middleware.RateLimitByUser(2, 10),
			idempotency,
			handler.Create,
		)

		tasks.GET("/:taskId",
			middleware.RateLimitByUser(5, 20),
			handler.Get,
		)

		tasks.PUT("/:taskId",
			middleware.RateLimitByUser(2, 10),
			handler.Update,
		)

		tasks.DELETE("/:taskId",
			middleware.RateLimitByUser(2, 10),
			handler.Delete,
		)

		tasks.POST("/:taskId/comments",
			middleware.RateLimitByUser(2, 10),
			handler.AddComment,
		)

		tasks.POST("/:taskId/attachments",
			middleware.RateLimitByUser(1, 5),
			handler.AddAttachment,
		)

		tasks.DELETE("/:taskId/attachments/:attachmentId",
			middleware.RateLimitByUser(1, 5),
			handler.DeleteAttachment,
		)
	}
}
