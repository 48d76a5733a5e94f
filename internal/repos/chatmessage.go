package repos

import (
  "context"

  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

type ChatMessageRepo interface {
  Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error)
  GetByChat(ctx context.Context, tx *gorm.DB, chatID uint64) ([]*types.ChatMessage, error)
  Update(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error)
  DeleteAfter(ctx context.Context, tx *gorm.DB, chatID, messageID uint64) error
  DeleteByChat(ctx context.Context, tx *gorm.DB, chatID uint64) error
  ClearItinerariesForChat(ctx context.Context, tx *gorm.DB, chatID uint64) error
}

type chatMessageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
  return &chatMessageRepo{
    db:  db,
    log: baseLog.With("repo", "ChatMessageRepo"),
  }
}

func (cmr *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
  if tx == nil {
    tx = cmr.db
  }
  if err := tx.WithContext(ctx).Create(message).Error; err != nil {
    cmr.log.Error("failed to create chat message", "error", err)
    return nil, err
  }
  return message, nil
}

// GetByChat returns the transcript in insertion order; this exact ordering
// is what gets replayed to the model.
func (cmr *chatMessageRepo) GetByChat(ctx context.Context, tx *gorm.DB, chatID uint64) ([]*types.ChatMessage, error) {
  if tx == nil {
    tx = cmr.db
  }
  var messages []*types.ChatMessage
  if err := tx.WithContext(ctx).
    Where("chat_id = ?", chatID).
    Order("id ASC").
    Find(&messages).Error; err != nil {
    return nil, err
  }
  return messages, nil
}

func (cmr *chatMessageRepo) Update(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
  if tx == nil {
    tx = cmr.db
  }
  if err := tx.WithContext(ctx).Save(message).Error; err != nil {
    cmr.log.Error("failed to update chat message", "error", err, "messageID", message.ID)
    return nil, err
  }
  return message, nil
}

func (cmr *chatMessageRepo) DeleteAfter(ctx context.Context, tx *gorm.DB, chatID, messageID uint64) error {
  if tx == nil {
    tx = cmr.db
  }
  if err := tx.WithContext(ctx).
    Where("chat_id = ? AND id > ?", chatID, messageID).
    Delete(&types.ChatMessage{}).Error; err != nil {
    cmr.log.Error("failed to delete trailing chat messages", "error", err, "chatID", chatID, "afterID", messageID)
    return err
  }
  return nil
}

func (cmr *chatMessageRepo) DeleteByChat(ctx context.Context, tx *gorm.DB, chatID uint64) error {
  if tx == nil {
    tx = cmr.db
  }
  if err := tx.WithContext(ctx).
    Where("chat_id = ?", chatID).
    Delete(&types.ChatMessage{}).Error; err != nil {
    cmr.log.Error("failed to delete chat messages", "error", err, "chatID", chatID)
    return err
  }
  return nil
}

// ClearItinerariesForChat blanks older itinerary blobs so only the newest
// assistant message carries one.
func (cmr *chatMessageRepo) ClearItinerariesForChat(ctx context.Context, tx *gorm.DB, chatID uint64) error {
  if tx == nil {
    tx = cmr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.ChatMessage{}).
    Where("chat_id = ? AND itinerary_json IS NOT NULL", chatID).
    Update("itinerary_json", nil).Error; err != nil {
    cmr.log.Error("failed to clear itineraries", "error", err, "chatID", chatID)
    return err
  }
  return nil
}
