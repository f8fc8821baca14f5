package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/campuslink-app/backend/internal/handlers"
	"github.com/campuslink-app/backend/internal/middleware"
	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/internal/notify"
	"github.com/campuslink-app/backend/internal/realtime"
	"github.com/campuslink-app/backend/internal/repositories"
	"github.com/campuslink-app/backend/pkg/config"
	"github.com/campuslink-app/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, hub *realtime.Hub, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	mongoDB := db.Mongo.Database(cfg.MongoDBName)
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	pollRepo := repositories.NewMongoPollRepository(mongoDB)

	// --- Storage backend ---
	store, err := storage.NewStorage(storage.Config{
		Type:      cfg.StorageType,
		BasePath:  cfg.StorageBasePath,
		BaseURL:   cfg.StorageBaseURL,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	if cfg.StorageType == "local" {
		e.Static(cfg.StorageBaseURL, cfg.StorageBasePath)
	}
	log.Printf("Storage backend configured (%s).", cfg.StorageType)

	// --- Notification fan-out ---
	fanOut := notify.NewEngine(userRepo, notificationRepo, hub)

	// --- Realtime websocket endpoint ---
	wsHandler := realtime.NewHandler(hub, cfg.JWTSecret, cfg.WSAllowedOrigin)
	e.GET("/ws", wsHandler.ServeWS)
	log.Println("Realtime websocket endpoint configured.")

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient, cfg.JWTSecret, cfg.CampusEmailDomain)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	authHandler.RegisterMeRoute(api)

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, store)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, userRepo, notificationRepo, fanOut, store)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Poll routes
	pollHandler := handlers.NewPollHandler(pollRepo, userRepo, notificationRepo, fanOut)
	pollHandler.RegisterPollRoutes(api)
	log.Println("Poll routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, postRepo, pollRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
