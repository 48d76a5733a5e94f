package handlers

import (
  "io"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/services"
)

type UploadHandler struct {
  log         *logger.Logger
  chatService services.ChatService
}

func NewUploadHandler(log *logger.Logger, chatService services.ChatService) *UploadHandler {
  return &UploadHandler{log: log.With("handler", "UploadHandler"), chatService: chatService}
}

func (uh *UploadHandler) UploadTicket(c *gin.Context) {
  uh.analyze(c, services.DocumentKindTicket)
}

func (uh *UploadHandler) UploadAccommodation(c *gin.Context) {
  uh.analyze(c, services.DocumentKindAccommodation)
}

func (uh *UploadHandler) UploadDocument(c *gin.Context) {
  uh.analyze(c, services.DocumentKindOther)
}

func (uh *UploadHandler) analyze(c *gin.Context, kind services.DocumentKind) {
  rd := requestdata.GetRequestData(c.Request.Context())

  var chatID *uint64
  if raw := c.PostForm("chatId"); raw != "" {
    parsed, err := strconv.ParseUint(raw, 10, 64)
    if err != nil {
      respondError(c, apperr.NotFound("Chat not found."))
      return
    }
    chatID = &parsed
  }

  file, err := uh.readFile(c)
  if err != nil {
    respondError(c, err)
    return
  }

  exchange, aErr := uh.chatService.AnalyzeUpload(c.Request.Context(), rd.UserID, chatID, kind, file)
  if aErr != nil {
    respondError(c, aErr)
    return
  }
  c.JSON(http.StatusOK, exchange)
}

func (uh *UploadHandler) readFile(c *gin.Context) (*services.UploadedFile, error) {
  header, err := c.FormFile("file")
  if err != nil {
    return nil, apperr.Validation("A file is required.")
  }
  f, err := header.Open()
  if err != nil {
    uh.log.Warn("Failed to open uploaded file", "error", err)
    return nil, apperr.Validation("Could not read the uploaded file.")
  }
  defer f.Close()
  data, err := io.ReadAll(f)
  if err != nil {
    uh.log.Warn("Failed to read uploaded file", "error", err)
    return nil, apperr.Validation("Could not read the uploaded file.")
  }
  return &services.UploadedFile{
    Name:        header.Filename,
    ContentType: header.Header.Get("Content-Type"),
    Data:        data,
  }, nil
}
