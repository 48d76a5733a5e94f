package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

type ChatRepo interface {
  Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error)
  GetByIDForUser(ctx context.Context, tx *gorm.DB, id uint64, userID uuid.UUID) (*types.Chat, error)
  GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chat, error)
  UpdateTitle(ctx context.Context, tx *gorm.DB, id uint64, title string) error
  Delete(ctx context.Context, tx *gorm.DB, id uint64) error
}

type chatRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
  return &chatRepo{
    db:  db,
    log: baseLog.With("repo", "ChatRepo"),
  }
}

func (cr *chatRepo) Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).Create(chat).Error; err != nil {
    cr.log.Error("failed to create chat", "error", err)
    return nil, err
  }
  return chat, nil
}

// GetByIDForUser scopes the lookup to the owning user: a chat that exists
// but belongs to someone else is indistinguishable from one that does not
// exist.
func (cr *chatRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id uint64, userID uuid.UUID) (*types.Chat, error) {
  if tx == nil {
    tx = cr.db
  }
  var c types.Chat
  if err := tx.WithContext(ctx).
    Where("id = ? AND user_id = ?", id, userID).
    First(&c).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &c, nil
}

func (cr *chatRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chat, error) {
  if tx == nil {
    tx = cr.db
  }
  var chats []*types.Chat
  if err := tx.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("id DESC").
    Find(&chats).Error; err != nil {
    return nil, err
  }
  return chats, nil
}

func (cr *chatRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, id uint64, title string) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.Chat{}).
    Where("id = ?", id).
    Update("title", title).Error; err != nil {
    cr.log.Error("failed to update chat title", "error", err, "chatID", id)
    return err
  }
  return nil
}

func (cr *chatRepo) Delete(ctx context.Context, tx *gorm.DB, id uint64) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Where("id = ?", id).
    Delete(&types.Chat{}).Error; err != nil {
    cr.log.Error("failed to delete chat", "error", err, "chatID", id)
    return err
  }
  return nil
}
