package middleware

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLogger := log.With("Middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// AttachUser resolves the caller from the bearer header or session cookie
// when one is present. Requests without a usable token continue anonymously;
// RequireAuth decides which routes need more.
func (am *AuthMiddleware) AttachUser() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := am.extractToken(c)
    if tokenString == "" {
      c.Next()
      return
    }
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      am.log.Debug("Token did not resolve to an active session, continuing anonymously", "error", err)
      c.Next()
      return
    }
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil || rd.UserID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required."})
      return
    }
    c.Next()
  }
}

// RequireGuest keeps already-authenticated callers off the login and
// register routes.
func (am *AuthMiddleware) RequireGuest() gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd != nil && rd.UserID != uuid.Nil {
      c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Already signed in."})
      return
    }
    c.Next()
  }
}

func (am *AuthMiddleware) extractToken(c *gin.Context) string {
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  if cookie, err := c.Cookie(am.authService.CookieName()); err == nil && cookie != "" {
    return cookie
  }
  return ""
}
