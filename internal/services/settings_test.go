package services

import (
  "context"
  "strings"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

type fakeUserRepo struct {
  users map[uuid.UUID]*types.User
}

func newFakeUserRepo() *fakeUserRepo {
  return &fakeUserRepo{users: map[uuid.UUID]*types.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
  if user.ID == uuid.Nil {
    user.ID = uuid.New()
  }
  r.users[user.ID] = user
  return user, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
  return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
  for _, user := range r.users {
    if user.Email == email {
      return user, nil
    }
  }
  return nil, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
  user, _ := r.GetByEmail(ctx, tx, email)
  return user != nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
  r.users[user.ID] = user
  return user, nil
}

type settingsFixture struct {
  service  SettingsService
  users    *fakeUserRepo
  sessions *fakeAuthSessionRepo
}

func newSettingsFixture(t *testing.T) *settingsFixture {
  t.Helper()
  users := newFakeUserRepo()
  sessions := newFakeAuthSessionRepo()
  return &settingsFixture{
    service:  NewSettingsService(testLogger(t), users, sessions),
    users:    users,
    sessions: sessions,
  }
}

func seedUser(t *testing.T, users *fakeUserRepo, password string) *types.User {
  t.Helper()
  hash, err := utils.HashPassword(password)
  require.NoError(t, err)
  user, err := users.Create(context.Background(), nil, &types.User{
    Email:    "traveler@example.com",
    Password: hash,
  })
  require.NoError(t, err)
  return user
}

func TestUpdateProfileTrimsNames(t *testing.T) {
  f := newSettingsFixture(t)
  user := seedUser(t, f.users, "correct horse")

  updated, err := f.service.UpdateProfile(context.Background(), user.ID, "  Ada  ", "   ")
  require.NoError(t, err)
  require.NotNil(t, updated.FirstName)
  assert.Equal(t, "Ada", *updated.FirstName)
  assert.Nil(t, updated.LastName)
}

func TestUpdateProfileNameTooLong(t *testing.T) {
  f := newSettingsFixture(t)
  user := seedUser(t, f.users, "correct horse")

  _, err := f.service.UpdateProfile(context.Background(), user.ID, strings.Repeat("a", 81), "")
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestUpdateProfileCountsRunesNotBytes(t *testing.T) {
  f := newSettingsFixture(t)
  user := seedUser(t, f.users, "correct horse")

  name := strings.Repeat("é", 80)
  updated, err := f.service.UpdateProfile(context.Background(), user.ID, name, "")
  require.NoError(t, err)
  require.NotNil(t, updated.FirstName)
  assert.Equal(t, name, *updated.FirstName)

  _, err = f.service.UpdateProfile(context.Background(), user.ID, strings.Repeat("é", 81), "")
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestUpdateProfileUnknownUser(t *testing.T) {
  f := newSettingsFixture(t)

  _, err := f.service.UpdateProfile(context.Background(), uuid.New(), "Ada", "Lovelace")
  assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestUpdatePassword(t *testing.T) {
  f := newSettingsFixture(t)
  user := seedUser(t, f.users, "old password")

  require.NoError(t, f.service.UpdatePassword(context.Background(), user.ID, "old password", "new password"))

  stored, err := f.users.GetByID(context.Background(), nil, user.ID)
  require.NoError(t, err)
  assert.True(t, utils.CheckPassword(stored.Password, "new password"))
}

func TestUpdatePasswordRevokesSessions(t *testing.T) {
  f := newSettingsFixture(t)
  user := seedUser(t, f.users, "old password")
  session, err := f.sessions.Create(context.Background(), nil, &types.AuthSession{UserID: user.ID})
  require.NoError(t, err)

  require.NoError(t, f.service.UpdatePassword(context.Background(), user.ID, "old password", "new password"))

  stored, err := f.sessions.GetByID(context.Background(), nil, session.ID)
  require.NoError(t, err)
  assert.NotNil(t, stored.RevokedAt, "open sessions must be revoked after a password change")
}

func TestUpdatePasswordRequiresCurrent(t *testing.T) {
  f := newSettingsFixture(t)
  user := seedUser(t, f.users, "old password")

  err := f.service.UpdatePassword(context.Background(), user.ID, "wrong guess", "new password")
  require.Error(t, err)
  assert.Equal(t, "Current password is incorrect.", apperr.UserMessage(err))
}

func TestUpdatePasswordMinLength(t *testing.T) {
  f := newSettingsFixture(t)
  user := seedUser(t, f.users, "old password")

  err := f.service.UpdatePassword(context.Background(), user.ID, "old password", "short")
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
