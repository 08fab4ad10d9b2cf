package app

import (
	"database/sql"
	"os"

	"go-taskhub/internal/auth"
	"go-taskhub/internal/company"
	"go-taskhub/internal/dashboard"
	"go-taskhub/internal/invitation"
	"go-taskhub/internal/messaging/kafka"
	"go-taskhub/internal/middleware"
	"go-taskhub/internal/notification"
	"go-taskhub/internal/storage"
	"go-taskhub/internal/task"
	"go-taskhub/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	companyRepo := company.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)
	invitationRepo := invitation.NewRepository(gormDB)
	taskRepo := task.NewRepository(gormDB)
	notificationRepo := notification.NewRepository(gormDB)
	dashboardRepo := dashboard.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	blobStore, err := storage.NewLocalStore(os.Getenv("UPLOAD_DIR"))
	if err != nil {
		return err
	}

	// --- Services ---
	authService := auth.NewService(userRepo, companyRepo)
	companyService := company.NewService(db, companyRepo, userRepo)
	invitationService := invitation.NewService(db, invitationRepo, userRepo, companyRepo)
	userService := user.NewService(userRepo)
	notificationService := notification.NewService(notificationRepo)
	taskService := task.NewService(db, taskRepo, userRepo, notificationService, outboxRepo, blobStore)
	dashboardService := dashboard.NewService(dashboardRepo, rdb)

	// Session tokens only carry the user id; authority is re-resolved
	// from the store on every request.
	authn := middleware.SessionAuth(authService)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	companyHandler := company.NewHandler(companyService)
	invitationHandler := invitation.NewHandler(invitationService)
	userHandler := user.NewHandler(userService)
	notificationHandler := notification.NewHandler(notificationService)
	taskHandler := task.NewHandlerWithRedis(taskService, rdb)
	dashboardHandler := dashboard.NewHandler(dashboardService)
	downloadHandler := storage.NewDownloadHandler(blobStore)

	// --- Routes Registration ---
	api := router.Group("/api")
	{
		auth.RegisterRoutes(api, authHandler, authn)
		company.RegisterRoutes(api, companyHandler, authn)
		invitation.RegisterRoutes(api, invitationHandler, authn)
		user.RegisterRoutes(api, userHandler, authn)
		task.RegisterRoutes(api, taskHandler, authn, middleware.Idempotency(rdb))
		notification.RegisterRoutes(api, notificationHandler, authn)
		dashboard.RegisterRoutes(api, dashboardHandler, authn)
		storage.RegisterRoutes(api, downloadHandler, authn)
	}

	return nil
}
