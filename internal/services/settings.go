package services

import (
  "context"
  "fmt"
  "unicode/utf8"

  "github.com/google/uuid"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/normalization"
  "github.com/wayfarer-org/wayfarer-backend/internal/repos"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

type SettingsService interface {
  GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error)
  UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*types.User, error)
  UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

type settingsService struct {
  log             *logger.Logger
  userRepo        repos.UserRepo
  authSessionRepo repos.AuthSessionRepo
}

func NewSettingsService(baseLog *logger.Logger, userRepo repos.UserRepo, authSessionRepo repos.AuthSessionRepo) SettingsService {
  return &settingsService{
    log:             baseLog.With("service", "SettingsService"),
    userRepo:        userRepo,
    authSessionRepo: authSessionRepo,
  }
}

func (ss *settingsService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
  user, err := ss.userRepo.GetByID(ctx, nil, userID)
  if err != nil {
    ss.log.Warn("Failure to load user, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("error loading user: %w", err)
  }
  if user == nil {
    return nil, apperr.NotFound("User not found.")
  }
  return user, nil
}

func (ss *settingsService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*types.User, error) {
  //1) Normalize + Validate Input
  first := normalization.ParseInputStringPtr(firstName)
  last := normalization.ParseInputStringPtr(lastName)
  if first != nil && utf8.RuneCountInString(*first) > maxNameLength {
    return nil, apperr.Validation("First name is too long.")
  }
  if last != nil && utf8.RuneCountInString(*last) > maxNameLength {
    return nil, apperr.Validation("Last name is too long.")
  }

  //2) Load + Update
  user, err := ss.GetProfile(ctx, userID)
  if err != nil {
    return nil, err
  }
  user.FirstName = first
  user.LastName = last
  if _, uErr := ss.userRepo.Update(ctx, nil, user); uErr != nil {
    ss.log.Warn("Failure to update user profile, Cannot proceed. Returning error.", "error", uErr)
    return nil, fmt.Errorf("error updating user: %w", uErr)
  }
  return user, nil
}

func (ss *settingsService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
  current := normalization.ParseInputString(currentPassword)
  next := normalization.ParseInputString(newPassword)
  if len(next) < 8 {
    return apperr.Validation("Password must be at least 8 characters long.")
  }

  user, err := ss.GetProfile(ctx, userID)
  if err != nil {
    return err
  }
  if !utils.CheckPassword(user.Password, current) {
    return apperr.Validation("Current password is incorrect.")
  }
  hashed, hErr := utils.HashPassword(next)
  if hErr != nil {
    ss.log.Warn("Failure to hash password, Cannot proceed. Returning error.", "error", hErr)
    return fmt.Errorf("error hashing password: %w", hErr)
  }
  user.Password = hashed
  if _, uErr := ss.userRepo.Update(ctx, nil, user); uErr != nil {
    ss.log.Warn("Failure to update user password, Cannot proceed. Returning error.", "error", uErr)
    return fmt.Errorf("error updating user: %w", uErr)
  }

  // A changed password invalidates every open session; the caller has to
  // sign in again with the new credential.
  if rErr := ss.authSessionRepo.RevokeAllForUser(ctx, nil, userID); rErr != nil {
    ss.log.Warn("Failure to revoke sessions after password change, Cannot proceed. Returning error.", "error", rErr)
    return fmt.Errorf("error revoking sessions: %w", rErr)
  }
  ss.log.Info("User password updated", "userId", userID)
  return nil
}
