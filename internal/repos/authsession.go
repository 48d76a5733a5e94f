package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

type AuthSessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, session *types.AuthSession) (*types.AuthSession, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AuthSession, error)
  Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
  RevokeAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type authSessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAuthSessionRepo(db *gorm.DB, baseLog *logger.Logger) AuthSessionRepo {
  return &authSessionRepo{
    db:  db,
    log: baseLog.With("repo", "AuthSessionRepo"),
  }
}

func (asr *authSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.AuthSession) (*types.AuthSession, error) {
  if tx == nil {
    tx = asr.db
  }
  if session.ID == uuid.Nil {
    session.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(session).Error; err != nil {
    asr.log.Error("failed to create auth session", "error", err)
    return nil, err
  }
  return session, nil
}

func (asr *authSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AuthSession, error) {
  if tx == nil {
    tx = asr.db
  }
  var s types.AuthSession
  if err := tx.WithContext(ctx).
    Where("id = ?", id).
    First(&s).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &s, nil
}

func (asr *authSessionRepo) Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  if tx == nil {
    tx = asr.db
  }
  now := time.Now()
  if err := tx.WithContext(ctx).
    Model(&types.AuthSession{}).
    Where("id = ? AND revoked_at IS NULL", id).
    Update("revoked_at", &now).Error; err != nil {
    asr.log.Error("failed to revoke auth session", "error", err, "sessionID", id)
    return err
  }
  return nil
}

func (asr *authSessionRepo) RevokeAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
  if tx == nil {
    tx = asr.db
  }
  now := time.Now()
  if err := tx.WithContext(ctx).
    Model(&types.AuthSession{}).
    Where("user_id = ? AND revoked_at IS NULL", userID).
    Update("revoked_at", &now).Error; err != nil {
    asr.log.Error("failed to revoke user auth sessions", "error", err, "userID", userID)
    return err
  }
  return nil
}
