package server

import (
  "strings"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/handlers"
  "github.com/wayfarer-org/wayfarer-backend/internal/middleware"
)

type RouterConfig struct {
  AuthMiddleware     *middleware.AuthMiddleware
  AuthHandler        *handlers.AuthHandler
  ChatHandler        *handlers.ChatHandler
  UploadHandler      *handlers.UploadHandler
  TripProfileHandler *handlers.TripProfileHandler
  GeocodeHandler     *handlers.GeocodeHandler
  DashboardHandler   *handlers.DashboardHandler
  SettingsHandler    *handlers.SettingsHandler
  AllowedOrigins     string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  origins := []string{"http://localhost:3000"}
  if cfg.AllowedOrigins != "" {
    origins = origins[:0]
    for _, origin := range strings.Split(cfg.AllowedOrigins, ",") {
      if trimmed := strings.TrimSpace(origin); trimmed != "" {
        origins = append(origins, trimmed)
      }
    }
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  // Every route sees the caller identity when a token resolves; guards below
  // decide what anonymous callers may reach.
  router.Use(cfg.AuthMiddleware.AttachUser())

  //-----------------------------------------
  // Guest-Only Routes
  //-----------------------------------------
  guest := router.Group("/")
  guest.Use(cfg.AuthMiddleware.RequireGuest())
  guest.POST("/register", cfg.AuthHandler.Register)
  guest.POST("/login", cfg.AuthHandler.Login)

  //-----------------------------------------
  // Session Routes
  //-----------------------------------------
  authed := router.Group("/")
  authed.Use(cfg.AuthMiddleware.RequireAuth())
  authed.POST("/logout", cfg.AuthHandler.Logout)

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := router.Group("/api")
  protected.Use(cfg.AuthMiddleware.RequireAuth())

  //Dashboard
  protected.GET("/dashboard", cfg.DashboardHandler.Dashboard)

  //Chat
  protected.POST("/chat", cfg.ChatHandler.SendMessage)
  protected.POST("/chat/stream", cfg.ChatHandler.StreamMessage)
  protected.POST("/chat/edit-latest", cfg.ChatHandler.EditLatest)
  protected.POST("/chat/regenerate", cfg.ChatHandler.Regenerate)
  protected.GET("/chat/:id/messages", cfg.ChatHandler.Messages)
  protected.DELETE("/chat/:id", cfg.ChatHandler.DeleteChat)

  //Uploads
  protected.POST("/chat/upload-ticket", cfg.UploadHandler.UploadTicket)
  protected.POST("/chat/upload-accommodation", cfg.UploadHandler.UploadAccommodation)
  protected.POST("/chat/upload-document", cfg.UploadHandler.UploadDocument)

  //Trip Profile
  protected.GET("/chat/:id/profile", cfg.TripProfileHandler.Get)
  protected.POST("/chat/:id/profile", cfg.TripProfileHandler.Save)

  //Geocoding
  protected.POST("/geocode", cfg.GeocodeHandler.Geocode)

  //Settings
  protected.GET("/settings/profile", cfg.SettingsHandler.GetProfile)
  protected.POST("/settings/profile", cfg.SettingsHandler.UpdateProfile)
  protected.POST("/settings/password", cfg.SettingsHandler.UpdatePassword)

  return router
}
