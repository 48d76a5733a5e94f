package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
)

// respondError maps service errors to HTTP statuses and keeps internal
// detail out of the body.
func respondError(c *gin.Context, err error) {
  c.JSON(apperr.Status(err), gin.H{"error": apperr.UserMessage(err)})
}
