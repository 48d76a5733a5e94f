package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
)

type TripProfileHandler struct {
  tripProfileService services.TripProfileService
}

func NewTripProfileHandler(tripProfileService services.TripProfileService) *TripProfileHandler {
  return &TripProfileHandler{tripProfileService: tripProfileService}
}

func (th *TripProfileHandler) Get(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  chatID, ok := parseChatID(c)
  if !ok {
    return
  }
  profile, err := th.tripProfileService.Get(c.Request.Context(), rd.UserID, chatID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, profile)
}

func (th *TripProfileHandler) Save(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  chatID, ok := parseChatID(c)
  if !ok {
    return
  }
  var input services.TripProfileInput
  if err := c.ShouldBindJSON(&input); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  profile, err := th.tripProfileService.Save(c.Request.Context(), rd.UserID, chatID, input)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, profile)
}
