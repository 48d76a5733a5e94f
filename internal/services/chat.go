package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/repos"
  "github.com/wayfarer-org/wayfarer-backend/internal/sse"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

// MessageDTO is the wire shape of one chat message. Assistant content is
// fence stripped before it leaves the server.
type MessageDTO struct {
  ID                uint64          `json:"id"`
  Role              string          `json:"role"`
  Content           string          `json:"content"`
  Timestamp         string          `json:"timestamp"`
  Itinerary         json.RawMessage `json:"itinerary,omitempty"`
  StreamingFallback bool            `json:"streamingFallback,omitempty"`
}

// ChatExchange answers a send or upload: the resolved chat plus the new
// user/assistant message pair.
type ChatExchange struct {
  ChatID    uint64       `json:"chatId"`
  ChatTitle string       `json:"chatTitle"`
  Message   *MessageDTO  `json:"message,omitempty"`
  Messages  []MessageDTO `json:"messages"`
}

// ChatUpdate answers an edit or regenerate with the full rebuilt transcript.
type ChatUpdate struct {
  ChatID   uint64       `json:"chatId"`
  Messages []MessageDTO `json:"messages"`
}

type ChatSummary struct {
  ID       uint64 `json:"id"`
  Title    string `json:"title"`
  Subtitle string `json:"subtitle"`
}

type DashboardData struct {
  PreviousRecommendations []ChatSummary `json:"previousRecommendations"`
  ChatMessages            []MessageDTO  `json:"chatMessages"`
}

// StreamSender is the slice of sse.Stream the chat service pushes events
// through.
type StreamSender interface {
  Send(event string, payload interface{})
  Close()
}

type ChatService interface {
  SendMessage(ctx context.Context, userID uuid.UUID, chatID *uint64, message string) (*ChatExchange, error)
  BeginStream(ctx context.Context, userID uuid.UUID, chatID *uint64, message string) (*PendingReply, error)
  StreamReply(pending *PendingReply, stream StreamSender)
  AnalyzeUpload(ctx context.Context, userID uuid.UUID, chatID *uint64, kind DocumentKind, file *UploadedFile) (*ChatExchange, error)
  EditLatest(ctx context.Context, userID uuid.UUID, chatID, messageID uint64, message string) (*ChatUpdate, error)
  Regenerate(ctx context.Context, userID uuid.UUID, chatID uint64) (*ChatUpdate, error)
  Messages(ctx context.Context, userID uuid.UUID, chatID uint64) ([]MessageDTO, error)
  DeleteChat(ctx context.Context, userID uuid.UUID, chatID uint64) error
  Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardData, error)
}

type chatService struct {
  db              *gorm.DB
  log             *logger.Logger
  chatRepo        repos.ChatRepo
  chatMessageRepo repos.ChatMessageRepo
  tripProfileRepo repos.TripProfileRepo
  ai              OpenAIService
  documents       DocumentService
  bucket          BucketService
}

func NewChatService(
  db *gorm.DB,
  baseLog *logger.Logger,
  chatRepo repos.ChatRepo,
  chatMessageRepo repos.ChatMessageRepo,
  tripProfileRepo repos.TripProfileRepo,
  ai OpenAIService,
  documents DocumentService,
  bucket BucketService,
) ChatService {
  return &chatService{
    db:              db,
    log:             baseLog.With("service", "ChatService"),
    chatRepo:        chatRepo,
    chatMessageRepo: chatMessageRepo,
    tripProfileRepo: tripProfileRepo,
    ai:              ai,
    documents:       documents,
    bucket:          bucket,
  }
}

// resolveChat loads the caller's chat, or creates a fresh untitled one when
// no id was supplied.
func (cs *chatService) resolveChat(ctx context.Context, userID uuid.UUID, chatID *uint64) (*types.Chat, bool, error) {
  if chatID == nil {
    chat, err := cs.chatRepo.Create(ctx, nil, &types.Chat{UserID: userID})
    if err != nil {
      return nil, false, fmt.Errorf("failed to create chat: %w", err)
    }
    return chat, true, nil
  }
  chat, err := cs.chatRepo.GetByIDForUser(ctx, nil, *chatID, userID)
  if err != nil {
    return nil, false, fmt.Errorf("failed to load chat: %w", err)
  }
  if chat == nil {
    return nil, false, apperr.NotFound("Chat not found.")
  }
  return chat, false, nil
}

func (cs *chatService) SendMessage(ctx context.Context, userID uuid.UUID, chatID *uint64, message string) (*ChatExchange, error) {
  text := strings.TrimSpace(message)
  if text == "" {
    return nil, apperr.Validation("Message is required.")
  }

  chat, isNew, err := cs.resolveChat(ctx, userID, chatID)
  if err != nil {
    return nil, err
  }

  userMessage, err := cs.chatMessageRepo.Create(ctx, nil, &types.ChatMessage{
    ChatID:  chat.ID,
    Role:    types.MessageRoleUser,
    Content: text,
  })
  if err != nil {
    return nil, fmt.Errorf("failed to persist user message: %w", err)
  }

  history, err := cs.chatMessageRepo.GetByChat(ctx, nil, chat.ID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat history: %w", err)
  }
  profile, err := cs.tripProfileRepo.GetByChat(ctx, nil, chat.ID)
  if err != nil {
    return nil, fmt.Errorf("failed to load trip profile: %w", err)
  }

  rawReply, err := cs.ai.Chat(ctx, history, profile)
  if err != nil {
    return nil, err
  }
  reply := stripCodeFences(rawReply)

  assistantMessage, err := cs.persistAssistantReply(ctx, chat.ID, reply, cs.ai.ExtractItineraryJSON(ctx, reply))
  if err != nil {
    return nil, err
  }

  if isNew {
    cs.assignTitle(ctx, chat, text, reply)
  }

  userDTO := messageDTO(userMessage)
  assistantDTO := messageDTO(assistantMessage)
  return &ChatExchange{
    ChatID:    chat.ID,
    ChatTitle: chatTitle(chat),
    Message:   &assistantDTO,
    Messages:  []MessageDTO{userDTO, assistantDTO},
  }, nil
}

// PendingReply carries the state persisted ahead of a stream: the resolved
// chat and the stored user message.
type PendingReply struct {
  chat        *types.Chat
  userMessage *types.ChatMessage
  isNew       bool
}

// BeginStream validates the request and persists the user message before any
// bytes hit the wire, so these failures still answer as plain JSON statuses.
func (cs *chatService) BeginStream(ctx context.Context, userID uuid.UUID, chatID *uint64, message string) (*PendingReply, error) {
  text := strings.TrimSpace(message)
  if text == "" {
    return nil, apperr.Validation("Message is required.")
  }

  chat, isNew, err := cs.resolveChat(ctx, userID, chatID)
  if err != nil {
    return nil, err
  }

  userMessage, err := cs.chatMessageRepo.Create(ctx, nil, &types.ChatMessage{
    ChatID:  chat.ID,
    Role:    types.MessageRoleUser,
    Content: text,
  })
  if err != nil {
    return nil, fmt.Errorf("failed to persist user message: %w", err)
  }
  return &PendingReply{chat: chat, userMessage: userMessage, isNew: isNew}, nil
}

// StreamReply emits the meta event, then runs the generation task against
// the stream. From here on failures travel as SSE events and the stream
// always closes.
func (cs *chatService) StreamReply(pending *PendingReply, stream StreamSender) {
  stream.Send(sse.EventMeta, map[string]interface{}{
    "chatId":      pending.chat.ID,
    "chatTitle":   chatTitle(pending.chat),
    "userMessage": messageDTO(pending.userMessage),
  })

  // The generation task runs detached from the request context: a client
  // that hangs up must not cancel persistence of the reply.
  done := make(chan struct{})
  go func() {
    defer close(done)
    cs.streamAssistantReply(stream, pending.chat, pending.userMessage.Content, pending.isNew)
  }()
  <-done
  stream.Close()
}

func (cs *chatService) streamAssistantReply(stream StreamSender, chat *types.Chat, userMessageText string, isNew bool) {
  ctx := context.Background()

  history, err := cs.chatMessageRepo.GetByChat(ctx, nil, chat.ID)
  if err != nil {
    stream.Send(sse.EventError, map[string]interface{}{"error": "Failed to load chat history."})
    return
  }
  profile, err := cs.tripProfileRepo.GetByChat(ctx, nil, chat.ID)
  if err != nil {
    stream.Send(sse.EventError, map[string]interface{}{"error": "Failed to load trip profile."})
    return
  }

  usedStreamingFallback := false
  rawReply, err := cs.ai.StreamChat(ctx, history, profile, func(chunk string) {
    if strings.TrimSpace(chunk) == "" {
      return
    }
    stream.Send(sse.EventDelta, map[string]interface{}{"content": chunk})
  })
  if err != nil {
    if apperr.Is(err, apperr.CodeNotConfigured) {
      stream.Send(sse.EventError, map[string]interface{}{"error": "OpenAI API key is not configured on the server."})
      return
    }
    cs.log.Warn("streaming failed, retrying without stream", "chatID", chat.ID, "error", err)
    warning := map[string]interface{}{"warning": "Streaming unavailable, falling back to full response."}
    if msg := err.Error(); msg != "" {
      warning["reason"] = msg
    }
    stream.Send(sse.EventStreamWarning, warning)
    usedStreamingFallback = true

    rawReply, err = cs.ai.Chat(ctx, history, profile)
    if err != nil {
      if apperr.Is(err, apperr.CodeNotConfigured) {
        stream.Send(sse.EventError, map[string]interface{}{"error": "OpenAI API key is not configured on the server."})
      } else {
        stream.Send(sse.EventError, map[string]interface{}{"error": "Failed to contact the recommendation engine."})
      }
      return
    }
  }

  reply := stripCodeFences(rawReply)
  if strings.TrimSpace(reply) == "" {
    reply = DefaultAssistantReply
  }

  assistantMessage, err := cs.persistAssistantReply(ctx, chat.ID, reply, cs.ai.ExtractItineraryJSON(ctx, reply))
  if err != nil {
    cs.log.Error("failed to persist streamed assistant reply", "chatID", chat.ID, "error", err)
    stream.Send(sse.EventError, map[string]interface{}{"error": "Failed to save the recommendation."})
    return
  }

  if isNew {
    cs.assignTitle(ctx, chat, userMessageText, reply)
  }

  assistantDTO := messageDTO(assistantMessage)
  assistantDTO.StreamingFallback = usedStreamingFallback
  stream.Send(sse.EventDone, map[string]interface{}{
    "chatId":    chat.ID,
    "chatTitle": chatTitle(chat),
    "message":   assistantDTO,
  })
}

func (cs *chatService) AnalyzeUpload(ctx context.Context, userID uuid.UUID, chatID *uint64, kind DocumentKind, file *UploadedFile) (*ChatExchange, error) {
  if err := cs.documents.Validate(file, kind); err != nil {
    return nil, err
  }

  chat, isNew, err := cs.resolveChat(ctx, userID, chatID)
  if err != nil {
    return nil, err
  }

  fileName := cs.documents.FileName(file, kind)
  markerText := cs.documents.MarkerText(kind, fileName)
  userMessage, err := cs.chatMessageRepo.Create(ctx, nil, &types.ChatMessage{
    ChatID:  chat.ID,
    Role:    types.MessageRoleUser,
    Content: markerText,
  })
  if err != nil {
    return nil, fmt.Errorf("failed to persist upload marker: %w", err)
  }

  history, err := cs.chatMessageRepo.GetByChat(ctx, nil, chat.ID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat history: %w", err)
  }

  rawReply, err := cs.ai.AnalyzeDocument(ctx, history, cs.documents.AnalysisRequest(file, kind, fileName))
  if err != nil {
    return nil, err
  }
  reply := stripCodeFences(rawReply)

  assistantMessage, err := cs.chatMessageRepo.Create(ctx, nil, &types.ChatMessage{
    ChatID:  chat.ID,
    Role:    types.MessageRoleAssistant,
    Content: reply,
  })
  if err != nil {
    return nil, fmt.Errorf("failed to persist analysis reply: %w", err)
  }

  if isNew {
    cs.assignTitle(ctx, chat, markerText, rawReply)
  }

  cs.archiveUpload(userID, chat.ID, fileName, file)

  userDTO := messageDTO(userMessage)
  assistantDTO := messageDTO(assistantMessage)
  return &ChatExchange{
    ChatID:    chat.ID,
    ChatTitle: chatTitle(chat),
    Messages:  []MessageDTO{userDTO, assistantDTO},
  }, nil
}

// archiveUpload stores the raw file in the bucket for the user's records.
// Runs detached and best effort; the analysis result never depends on it.
func (cs *chatService) archiveUpload(userID uuid.UUID, chatID uint64, fileName string, file *UploadedFile) {
  if cs.bucket == nil || !cs.bucket.Enabled() {
    return
  }
  key := fmt.Sprintf("uploads/%s/%d/%s-%s", userID, chatID, uuid.New(), fileName)
  data := file.Data
  contentType := file.ContentType
  go func() {
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    if err := cs.bucket.Archive(ctx, key, data, contentType); err != nil {
      cs.log.Warn("failed to archive uploaded document", "key", key, "error", err)
    }
  }()
}

func (cs *chatService) EditLatest(ctx context.Context, userID uuid.UUID, chatID, messageID uint64, message string) (*ChatUpdate, error) {
  text := strings.TrimSpace(message)
  if text == "" {
    return nil, apperr.Validation("Message content is required.")
  }

  chat, err := cs.chatRepo.GetByIDForUser(ctx, nil, chatID, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat: %w", err)
  }
  if chat == nil {
    return nil, apperr.NotFound("Chat not found.")
  }

  var regenHistory []*types.ChatMessage
  err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    history, err := cs.chatMessageRepo.GetByChat(ctx, tx, chat.ID)
    if err != nil {
      return fmt.Errorf("failed to load chat history: %w", err)
    }
    lastUser := lastUserMessage(history)
    if lastUser == nil {
      return apperr.Validation("No user message found to edit.")
    }
    if lastUser.ID != messageID {
      return apperr.Validation("Only the latest user message can be edited.")
    }
    if IsUploadMarker(lastUser.Content) {
      return apperr.Validation("Editing uploaded documents is not supported.")
    }

    lastUser.Content = text
    if _, err := cs.chatMessageRepo.Update(ctx, tx, lastUser); err != nil {
      return fmt.Errorf("failed to update message: %w", err)
    }
    if err := cs.chatMessageRepo.DeleteAfter(ctx, tx, chat.ID, lastUser.ID); err != nil {
      return fmt.Errorf("failed to delete trailing messages: %w", err)
    }

    for _, m := range history {
      regenHistory = append(regenHistory, m)
      if m.ID == lastUser.ID {
        break
      }
    }
    return nil
  })
  if err != nil {
    return nil, err
  }

  if err := cs.regenerateReply(ctx, chat.ID, regenHistory); err != nil {
    return nil, err
  }
  return cs.chatUpdate(ctx, chat.ID)
}

func (cs *chatService) Regenerate(ctx context.Context, userID uuid.UUID, chatID uint64) (*ChatUpdate, error) {
  chat, err := cs.chatRepo.GetByIDForUser(ctx, nil, chatID, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat: %w", err)
  }
  if chat == nil {
    return nil, apperr.NotFound("Chat not found.")
  }

  var regenHistory []*types.ChatMessage
  err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    history, err := cs.chatMessageRepo.GetByChat(ctx, tx, chat.ID)
    if err != nil {
      return fmt.Errorf("failed to load chat history: %w", err)
    }
    lastUser := lastUserMessage(history)
    if lastUser == nil {
      return apperr.Validation("No user message found to regenerate.")
    }
    if IsUploadMarker(lastUser.Content) {
      return apperr.Validation("Regeneration is not available for uploaded documents.")
    }
    if err := cs.chatMessageRepo.DeleteAfter(ctx, tx, chat.ID, lastUser.ID); err != nil {
      return fmt.Errorf("failed to delete trailing messages: %w", err)
    }
    for _, m := range history {
      regenHistory = append(regenHistory, m)
      if m.ID == lastUser.ID {
        break
      }
    }
    return nil
  })
  if err != nil {
    return nil, err
  }

  if err := cs.regenerateReply(ctx, chat.ID, regenHistory); err != nil {
    return nil, err
  }
  return cs.chatUpdate(ctx, chat.ID)
}

// regenerateReply produces and persists a fresh assistant reply for the
// truncated history.
func (cs *chatService) regenerateReply(ctx context.Context, chatID uint64, history []*types.ChatMessage) error {
  profile, err := cs.tripProfileRepo.GetByChat(ctx, nil, chatID)
  if err != nil {
    return fmt.Errorf("failed to load trip profile: %w", err)
  }
  rawReply, err := cs.ai.Chat(ctx, history, profile)
  if err != nil {
    return err
  }
  reply := stripCodeFences(rawReply)
  if _, err := cs.persistAssistantReply(ctx, chatID, reply, cs.ai.ExtractItineraryJSON(ctx, reply)); err != nil {
    return err
  }
  return nil
}

func (cs *chatService) chatUpdate(ctx context.Context, chatID uint64) (*ChatUpdate, error) {
  updated, err := cs.chatMessageRepo.GetByChat(ctx, nil, chatID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat history: %w", err)
  }
  return &ChatUpdate{ChatID: chatID, Messages: messageDTOs(updated)}, nil
}

func (cs *chatService) Messages(ctx context.Context, userID uuid.UUID, chatID uint64) ([]MessageDTO, error) {
  chat, err := cs.chatRepo.GetByIDForUser(ctx, nil, chatID, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat: %w", err)
  }
  if chat == nil {
    return nil, apperr.NotFound("Chat not found.")
  }
  messages, err := cs.chatMessageRepo.GetByChat(ctx, nil, chatID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat history: %w", err)
  }
  return messageDTOs(messages), nil
}

// DeleteChat removes the chat together with its profile and messages in one
// transaction.
func (cs *chatService) DeleteChat(ctx context.Context, userID uuid.UUID, chatID uint64) error {
  chat, err := cs.chatRepo.GetByIDForUser(ctx, nil, chatID, userID)
  if err != nil {
    return fmt.Errorf("failed to load chat: %w", err)
  }
  if chat == nil {
    return apperr.NotFound("Chat not found.")
  }
  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if err := cs.tripProfileRepo.DeleteByChat(ctx, tx, chatID); err != nil {
      return fmt.Errorf("failed to delete trip profile: %w", err)
    }
    if err := cs.chatMessageRepo.DeleteByChat(ctx, tx, chatID); err != nil {
      return fmt.Errorf("failed to delete chat messages: %w", err)
    }
    if err := cs.chatRepo.Delete(ctx, tx, chatID); err != nil {
      return fmt.Errorf("failed to delete chat: %w", err)
    }
    return nil
  })
}

func (cs *chatService) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardData, error) {
  chats, err := cs.chatRepo.GetByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chats: %w", err)
  }

  data := &DashboardData{
    PreviousRecommendations: make([]ChatSummary, 0, len(chats)),
    ChatMessages:            []MessageDTO{},
  }
  for _, chat := range chats {
    title := chatTitle(chat)
    if strings.TrimSpace(title) == "" {
      title = "Untitled chat"
    }
    data.PreviousRecommendations = append(data.PreviousRecommendations, ChatSummary{
      ID:       chat.ID,
      Title:    title,
      Subtitle: "AI travel recommendations",
    })
  }
  if len(chats) > 0 {
    messages, err := cs.chatMessageRepo.GetByChat(ctx, nil, chats[0].ID)
    if err != nil {
      return nil, fmt.Errorf("failed to load latest chat history: %w", err)
    }
    data.ChatMessages = messageDTOs(messages)
  }
  return data, nil
}

// persistAssistantReply stores the reply, keeping the single-itinerary
// invariant: older messages lose their blobs before the new one lands.
func (cs *chatService) persistAssistantReply(ctx context.Context, chatID uint64, reply string, itinerary []byte) (*types.ChatMessage, error) {
  var created *types.ChatMessage
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if len(itinerary) > 0 {
      if err := cs.chatMessageRepo.ClearItinerariesForChat(ctx, tx, chatID); err != nil {
        return err
      }
    }
    var err error
    created, err = cs.chatMessageRepo.Create(ctx, tx, &types.ChatMessage{
      ChatID:        chatID,
      Role:          types.MessageRoleAssistant,
      Content:       reply,
      ItineraryJSON: itinerary,
    })
    return err
  })
  if err != nil {
    return nil, fmt.Errorf("failed to persist assistant reply: %w", err)
  }
  return created, nil
}

// assignTitle runs the one-shot title generation for a brand new chat.
// Failures fall back to the placeholder; they never surface to the caller.
func (cs *chatService) assignTitle(ctx context.Context, chat *types.Chat, firstUserMessage, reply string) {
  title := DefaultChatTitle
  if generated, err := cs.ai.GenerateTitle(ctx, firstUserMessage, reply); err == nil {
    title = generated
  } else {
    cs.log.Debug("title generation failed, using placeholder", "chatID", chat.ID, "error", err)
  }
  if err := cs.chatRepo.UpdateTitle(ctx, nil, chat.ID, title); err != nil {
    cs.log.Warn("failed to store chat title", "chatID", chat.ID, "error", err)
    return
  }
  chat.Title = &title
}

func chatTitle(chat *types.Chat) string {
  if chat == nil || chat.Title == nil {
    return ""
  }
  return *chat.Title
}

func lastUserMessage(history []*types.ChatMessage) *types.ChatMessage {
  for i := len(history) - 1; i >= 0; i-- {
    if history[i] != nil && history[i].Role == types.MessageRoleUser {
      return history[i]
    }
  }
  return nil
}

func messageDTO(m *types.ChatMessage) MessageDTO {
  content := m.Content
  if m.Role == types.MessageRoleAssistant {
    content = stripCodeFences(content)
  }
  dto := MessageDTO{
    ID:        m.ID,
    Role:      m.Role,
    Content:   content,
    Timestamp: m.CreatedAt.Format(time.RFC3339),
  }
  if len(m.ItineraryJSON) > 0 {
    dto.Itinerary = json.RawMessage(m.ItineraryJSON)
  }
  return dto
}

func messageDTOs(messages []*types.ChatMessage) []MessageDTO {
  dtos := make([]MessageDTO, 0, len(messages))
  for _, m := range messages {
    dtos = append(dtos, messageDTO(m))
  }
  return dtos
}
