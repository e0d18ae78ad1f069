package app

import (
	"fmt"

	"circle_backend/database"
	"circle_backend/internal/config"
	"circle_backend/internal/handlers"
	"circle_backend/internal/logger"
	"circle_backend/internal/middleware"
	"circle_backend/internal/repositories"
	repoChat "circle_backend/internal/repositories/chat"
	"circle_backend/internal/routes"
	chatsvc "circle_backend/internal/services/chat"
	"circle_backend/internal/services/identity"
	"circle_backend/internal/storage"
	"circle_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает весь граф зависимостей и возвращает готовый роутер.
// Вынесен отдельно, чтобы тесты могли поднимать сервер поверх httptest.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		UseSSL:     cfg.Storage.UseSSL,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	// Репозитории (Message Store Adapter)
	userRepo := repositories.NewUserRepository(gormDB)
	roomRepo := repoChat.NewRoomRepository(gormDB)
	participantRepo := repoChat.NewParticipantRepository(gormDB)
	messageRepo := repoChat.NewMessageRepository(gormDB)
	attachmentRepo := repoChat.NewAttachmentRepository(gormDB)
	reactionRepo := repoChat.NewReactionRepository(gormDB)

	// Сервисы
	resolver := identity.NewResolver(userRepo, participantRepo)
	messageService := chatsvc.NewMessageService(roomRepo, participantRepo, messageRepo)
	unreadService := chatsvc.NewUnreadService(participantRepo, messageRepo)
	readMarkerService := chatsvc.NewReadMarkerService(participantRepo, messageRepo)
	reactionService := chatsvc.NewReactionService(participantRepo, messageRepo, reactionRepo)
	attachmentService := chatsvc.NewAttachmentService(
		roomRepo,
		participantRepo,
		messageRepo,
		attachmentRepo,
		storageInstance,
		cfg.MaxUploadSize(),
		cfg.Upload.AllowedTypes,
	)

	// WebSocket: hub и presence создаются при старте процесса и живут
	// столько же, сколько он сам
	hub := ws.NewRoomHub()
	presence := ws.NewPresenceTracker()
	wsHandler := ws.NewWebSocketHandler(
		hub,
		presence,
		resolver,
		messageService,
		readMarkerService,
		reactionService,
		cfg,
	)

	appHandlers := &routes.AppHandlers{
		ChatHandler: handlers.NewChatHandler(
			messageService,
			unreadService,
			readMarkerService,
			reactionService,
		),
		AttachmentHandler: handlers.NewAttachmentHandler(attachmentService),
	}

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestLogger())

	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return ginRouter
}
