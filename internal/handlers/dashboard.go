package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
)

type DashboardHandler struct {
  chatService services.ChatService
}

func NewDashboardHandler(chatService services.ChatService) *DashboardHandler {
  return &DashboardHandler{chatService: chatService}
}

func (dh *DashboardHandler) Dashboard(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  data, err := dh.chatService.Dashboard(c.Request.Context(), rd.UserID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, data)
}
