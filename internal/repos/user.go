package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

type UserRepo interface {
  Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
  GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
  EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
  Update(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  return &userRepo{
    db:  db,
    log: baseLog.With("repo", "UserRepo"),
  }
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
  if tx == nil {
    tx = ur.db
  }
  if user.ID == uuid.Nil {
    user.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(user).Error; err != nil {
    ur.log.Error("failed to create user", "error", err)
    return nil, err
  }
  return user, nil
}

// GetByID returns (nil, nil) when no row exists, so callers can pick their
// own error shape for a missing user.
func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
  if tx == nil {
    tx = ur.db
  }
  var u types.User
  if err := tx.WithContext(ctx).
    Where("id = ?", id).
    First(&u).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &u, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
  if tx == nil {
    tx = ur.db
  }
  var u types.User
  if err := tx.WithContext(ctx).
    Where("email = ?", email).
    First(&u).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &u, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
  if tx == nil {
    tx = ur.db
  }
  var count int64
  if err := tx.WithContext(ctx).
    Model(&types.User{}).
    Where("email = ?", email).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (ur *userRepo) Update(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
  if tx == nil {
    tx = ur.db
  }
  if err := tx.WithContext(ctx).Save(user).Error; err != nil {
    ur.log.Error("failed to update user", "error", err)
    return nil, err
  }
  return user, nil
}
