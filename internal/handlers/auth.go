package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
)

type AuthHandler struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
  return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var req struct {
    Email     string `json:"email"`
    Password  string `json:"password"`
    FirstName string `json:"firstName"`
    LastName  string `json:"lastName"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  user, token, err := ah.authService.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
  if err != nil {
    respondError(c, err)
    return
  }
  ah.setSessionCookie(c, token)
  c.JSON(http.StatusCreated, gin.H{
    "message":      "Account created.",
    "userId":       user.ID,
    "sessionToken": token,
  })
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  user, token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    respondError(c, err)
    return
  }
  ah.setSessionCookie(c, token)
  c.JSON(http.StatusOK, gin.H{
    "message":      "Signed in.",
    "userId":       user.ID,
    "sessionToken": token,
  })
}

// Logout revokes the session best effort: the cookie is cleared and the
// caller ends up signed out even when revocation fails server side.
func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.Logout(c.Request.Context()); err != nil {
    ah.log.Warn("Failed to revoke session during logout, clearing cookie anyway", "error", err)
  }
  c.SetCookie(ah.authService.CookieName(), "", -1, "/", "", false, true)
  c.JSON(http.StatusOK, gin.H{"message": "Signed out."})
}

func (ah *AuthHandler) setSessionCookie(c *gin.Context, token string) {
  maxAge := int(ah.authService.SessionTTL().Seconds())
  c.SetCookie(ah.authService.CookieName(), token, maxAge, "/", "", false, true)
}
