package main

import (
  "fmt"
  "os"

  "github.com/joho/godotenv"
  "github.com/redis/go-redis/v9"

  "github.com/wayfarer-org/wayfarer-backend/internal/db"
  "github.com/wayfarer-org/wayfarer-backend/internal/handlers"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/middleware"
  "github.com/wayfarer-org/wayfarer-backend/internal/repos"
  "github.com/wayfarer-org/wayfarer-backend/internal/server"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

func main() {
  // Env + Logger Setup
  _ = godotenv.Load()
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("DB init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()
  log.Info("Postgres Setup From Main Successful :)")

  // Redis Setup (optional geocode cache)
  var redisClient *redis.Client
  if redisAddress := utils.GetEnv("REDIS_ADDRESS", "", log); redisAddress != "" {
    redisClient = redis.NewClient(&redis.Options{
      Addr:     redisAddress,
      Password: utils.GetEnv("REDIS_PASSWORD", "", log),
    })
    log.Info("Redis cache configured", "address", redisAddress)
  } else {
    log.Warn("REDIS_ADDRESS is not set, geocode caching is disabled")
  }

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  authSessionRepo := repos.NewAuthSessionRepo(thePG, log)
  chatRepo := repos.NewChatRepo(thePG, log)
  chatMessageRepo := repos.NewChatMessageRepo(thePG, log)
  tripProfileRepo := repos.NewTripProfileRepo(thePG, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Services Setup
  log.Info("Setting up Services from Main now...")
  bucketService, err := services.NewBucketService(log)
  if err != nil {
    log.Warn("Could not init BucketService", "error", err)
  }
  avatarService, err := services.NewAvatarService(log, bucketService)
  if err != nil {
    log.Warn("Could not init AvatarService, avatars are disabled", "error", err)
  }
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService, welcome emails are disabled", "error", err)
  }
  authService := services.NewAuthService(thePG, log, userRepo, authSessionRepo, avatarService, emailService)
  settingsService := services.NewSettingsService(log, userRepo, authSessionRepo)
  openAIService := services.NewOpenAIService(log)
  documentService := services.NewDocumentService(log)
  chatService := services.NewChatService(thePG, log, chatRepo, chatMessageRepo, tripProfileRepo, openAIService, documentService, bucketService)
  tripProfileService := services.NewTripProfileService(log, chatRepo, tripProfileRepo)
  geocodeService := services.NewGeocodeService(log, redisClient)
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(log, authService)
  chatHandler := handlers.NewChatHandler(log, chatService)
  uploadHandler := handlers.NewUploadHandler(log, chatService)
  tripProfileHandler := handlers.NewTripProfileHandler(tripProfileService)
  geocodeHandler := handlers.NewGeocodeHandler(geocodeService)
  dashboardHandler := handlers.NewDashboardHandler(chatService)
  settingsHandler := handlers.NewSettingsHandler(settingsService)
  log.Info("Handlers Set Up From Main Successful :)")

  // MiddleWare Setup
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    AuthMiddleware:     authMiddleware,
    AuthHandler:        authHandler,
    ChatHandler:        chatHandler,
    UploadHandler:      uploadHandler,
    TripProfileHandler: tripProfileHandler,
    GeocodeHandler:     geocodeHandler,
    DashboardHandler:   dashboardHandler,
    SettingsHandler:    settingsHandler,
    AllowedOrigins:     utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log),
  })
  log.Info("Router Set Up From Main Successful :)")

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
