package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
)

type GeocodeHandler struct {
  geocodeService services.GeocodeService
}

func NewGeocodeHandler(geocodeService services.GeocodeService) *GeocodeHandler {
  return &GeocodeHandler{geocodeService: geocodeService}
}

func (gh *GeocodeHandler) Geocode(c *gin.Context) {
  var req struct {
    Locations []string `json:"locations"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  results, err := gh.geocodeService.Geocode(c.Request.Context(), req.Locations)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"results": results})
}
