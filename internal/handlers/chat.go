package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
  "github.com/wayfarer-org/wayfarer-backend/internal/sse"
)

type ChatHandler struct {
  log         *logger.Logger
  chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
  return &ChatHandler{log: log.With("handler", "ChatHandler"), chatService: chatService}
}

type chatRequest struct {
  ChatID  *uint64 `json:"chatId"`
  Message string  `json:"message"`
}

func (ch *ChatHandler) SendMessage(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req chatRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  exchange, err := ch.chatService.SendMessage(c.Request.Context(), rd.UserID, req.ChatID, req.Message)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, exchange)
}

// StreamMessage answers over SSE. Validation and chat resolution run before
// the stream opens, so those failures map to plain JSON statuses; once the
// meta event is out, failures travel as stream events.
func (ch *ChatHandler) StreamMessage(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req chatRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  pending, err := ch.chatService.BeginStream(c.Request.Context(), rd.UserID, req.ChatID, req.Message)
  if err != nil {
    respondError(c, err)
    return
  }
  stream := sse.NewStream(c, ch.log)
  ch.chatService.StreamReply(pending, stream)
}

func (ch *ChatHandler) EditLatest(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    ChatID    uint64 `json:"chatId"`
    MessageID uint64 `json:"messageId"`
    Message   string `json:"message"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  update, err := ch.chatService.EditLatest(c.Request.Context(), rd.UserID, req.ChatID, req.MessageID, req.Message)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, update)
}

func (ch *ChatHandler) Regenerate(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    ChatID uint64 `json:"chatId"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    respondError(c, apperr.Validation("Invalid request body."))
    return
  }
  update, err := ch.chatService.Regenerate(c.Request.Context(), rd.UserID, req.ChatID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, update)
}

func (ch *ChatHandler) Messages(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  chatID, ok := parseChatID(c)
  if !ok {
    return
  }
  messages, err := ch.chatService.Messages(c.Request.Context(), rd.UserID, chatID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (ch *ChatHandler) DeleteChat(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  chatID, ok := parseChatID(c)
  if !ok {
    return
  }
  if err := ch.chatService.DeleteChat(c.Request.Context(), rd.UserID, chatID); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func parseChatID(c *gin.Context) (uint64, bool) {
  chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
  if err != nil {
    respondError(c, apperr.NotFound("Chat not found."))
    return 0, false
  }
  return chatID, true
}
