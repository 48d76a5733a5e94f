package repos

import (
  "context"
  "errors"

  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

type TripProfileRepo interface {
  GetByChat(ctx context.Context, tx *gorm.DB, chatID uint64) (*types.TripProfile, error)
  Save(ctx context.Context, tx *gorm.DB, profile *types.TripProfile) (*types.TripProfile, error)
  DeleteByChat(ctx context.Context, tx *gorm.DB, chatID uint64) error
}

type tripProfileRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTripProfileRepo(db *gorm.DB, baseLog *logger.Logger) TripProfileRepo {
  return &tripProfileRepo{
    db:  db,
    log: baseLog.With("repo", "TripProfileRepo"),
  }
}

func (tpr *tripProfileRepo) GetByChat(ctx context.Context, tx *gorm.DB, chatID uint64) (*types.TripProfile, error) {
  if tx == nil {
    tx = tpr.db
  }
  var p types.TripProfile
  if err := tx.WithContext(ctx).
    Where("chat_id = ?", chatID).
    First(&p).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &p, nil
}

func (tpr *tripProfileRepo) Save(ctx context.Context, tx *gorm.DB, profile *types.TripProfile) (*types.TripProfile, error) {
  if tx == nil {
    tx = tpr.db
  }
  if err := tx.WithContext(ctx).Save(profile).Error; err != nil {
    tpr.log.Error("failed to save trip profile", "error", err, "chatID", profile.ChatID)
    return nil, err
  }
  return profile, nil
}

func (tpr *tripProfileRepo) DeleteByChat(ctx context.Context, tx *gorm.DB, chatID uint64) error {
  if tx == nil {
    tx = tpr.db
  }
  if err := tx.WithContext(ctx).
    Where("chat_id = ?", chatID).
    Delete(&types.TripProfile{}).Error; err != nil {
    tpr.log.Error("failed to delete trip profile", "error", err, "chatID", chatID)
    return err
  }
  return nil
}
