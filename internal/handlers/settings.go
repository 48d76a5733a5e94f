package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
)

type SettingsHandler struct {
  settingsService services.SettingsService
}

func NewSettingsHandler(settingsService services.SettingsService) *SettingsHandler {
  return &SettingsHandler{settingsService: settingsService}
}

func (sh *SettingsHandler) GetProfile(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  user, err := sh.settingsService.GetProfile(c.Request.Context(), rd.UserID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, user)
}

func (sh *SettingsHandler) UpdateProfile(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    FirstName string `json:"firstName"`
    LastName  string `json:"lastName"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  user, err := sh.settingsService.UpdateProfile(c.Request.Context(), rd.UserID, req.FirstName, req.LastName)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, user)
}

func (sh *SettingsHandler) UpdatePassword(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    CurrentPassword string `json:"currentPassword"`
    NewPassword     string `json:"newPassword"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  if err := sh.settingsService.UpdatePassword(c.Request.Context(), rd.UserID, req.CurrentPassword, req.NewPassword); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}
