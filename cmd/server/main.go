package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/closehq/close-api/internal/config"
	"github.com/closehq/close-api/internal/handler"
	"github.com/closehq/close-api/internal/middleware"
	"github.com/closehq/close-api/internal/model"
	"github.com/closehq/close-api/internal/repository"
	"github.com/closehq/close-api/internal/service"
	"github.com/closehq/close-api/internal/ws"
	"github.com/closehq/close-api/migrations"
	"github.com/closehq/close-api/pkg/auth"
	"github.com/closehq/close-api/pkg/notification"
	"github.com/closehq/close-api/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           CLOSE API
// @version         1.0
// @description     Real-time companion API for two paired users sharing photos, moods and pings in a private room.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("[server] starting CLOSE API [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("[server] failed to connect to database: %v", err)
	}
	log.Println("[server] connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("[server] migration warning: %v, falling back to AutoMigrate", err)
		if err := db.AutoMigrate(
			&model.User{},
			&model.Room{},
			&model.RoomMember{},
			&model.Ping{},
			&model.Photo{},
			&model.Notification{},
		); err != nil {
			log.Fatalf("[server] failed to migrate database: %v", err)
		}
	}
	log.Println("[server] database migrated")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("[server] failed to connect to Redis: %v", err)
	}
	log.Println("[server] connected to Redis")

	// ==================== Object Storage (MinIO) ====================
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Fatalf("[server] failed to connect to MinIO: %v", err)
	}
	log.Println("[server] connected to MinIO")

	// ==================== Push Messaging (FCM) ====================
	fcmSender := notification.NewFCMSender(cfg.Firebase.CredentialsFile)

	// ==================== Initialize Layers ====================
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// WebSocket hub (Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager, rdb)
	dispatcher := service.NewNotificationDispatcher(fcmSender, notifRepo, hub)
	roomService := service.NewRoomService(roomRepo, hub, dispatcher)
	photoService := service.NewPhotoService(photoRepo, minioStorage, roomService, hub)

	// Janitor: server-side photo expiry + relay notification sweeps
	janitor := service.NewJanitor(photoService, notifRepo)
	go janitor.Run(hubCtx)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	roomHandler := handler.NewRoomHandler(roomService)
	photoHandler := handler.NewPhotoHandler(photoService)
	notifHandler := handler.NewNotificationHandler(fcmSender)
	wsHandler := handler.NewWSHandler(hub, roomService, notifRepo, jwtManager)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "close-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Push-delivery endpoint, kept at its historical path
	router.POST("/api/send-notification", notifHandler.SendNotification)

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Public config for web clients (VAPID key for push subscription)
		api.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"vapid_key": cfg.Firebase.VAPIDKey})
		})

		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/guest", authHandler.GuestLogin)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Public room preview for the share-URL join form
		api.GET("/rooms/:id", roomHandler.GetRoomPreview)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Auth
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Rooms
			protected.POST("/rooms", roomHandler.CreateRoom)
			protected.POST("/rooms/:id/join", roomHandler.JoinRoom)
			protected.POST("/rooms/:id/leave", roomHandler.LeaveRoom)
			protected.PUT("/rooms/:id/emoji", roomHandler.UpdateEmoji)
			protected.PUT("/rooms/:id/photo", roomHandler.UpdatePhoto)
			protected.POST("/rooms/:id/ping", roomHandler.SendPing)
			protected.PUT("/rooms/:id/token", roomHandler.SetToken)

			// Photos
			protected.POST("/rooms/:id/photos", photoHandler.UploadPhoto)
			protected.GET("/rooms/:id/photos", photoHandler.ListPhotos)
			protected.DELETE("/rooms/:id/photos/:photo_id", photoHandler.DeletePhoto)
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] server failed: %v", err)
		}
	}()

	log.Printf("[server] CLOSE API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("[server] WebSocket: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[server] shutting down...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("[server] forced to shutdown: %v", err)
	}

	hubCancel()
	log.Println("[server] exited gracefully")
}
