package services

import (
  "context"
  "testing"
  "time"

  "github.com/google/uuid"
  gocache "github.com/patrickmn/go-cache"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

type fakeAuthSessionRepo struct {
  sessions map[uuid.UUID]*types.AuthSession
}

func newFakeAuthSessionRepo() *fakeAuthSessionRepo {
  return &fakeAuthSessionRepo{sessions: map[uuid.UUID]*types.AuthSession{}}
}

func (r *fakeAuthSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.AuthSession) (*types.AuthSession, error) {
  if session.ID == uuid.Nil {
    session.ID = uuid.New()
  }
  r.sessions[session.ID] = session
  return session, nil
}

func (r *fakeAuthSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AuthSession, error) {
  return r.sessions[id], nil
}

func (r *fakeAuthSessionRepo) Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  if session, ok := r.sessions[id]; ok && session.RevokedAt == nil {
    now := time.Now()
    session.RevokedAt = &now
  }
  return nil
}

func (r *fakeAuthSessionRepo) RevokeAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
  for _, session := range r.sessions {
    if session.UserID == userID && session.RevokedAt == nil {
      now := time.Now()
      session.RevokedAt = &now
    }
  }
  return nil
}

func newAuthServiceForTest(t *testing.T, sessions *fakeAuthSessionRepo) *authService {
  t.Helper()
  return &authService{
    log:             testLogger(t).With("service", "AuthService"),
    authSessionRepo: sessions,
    sessionCache:    gocache.New(30*time.Second, time.Minute),
    jwtSecretKey:    "test-secret",
    jwtIssuer:       "wayfarer-backend",
    sessionTTL:      time.Hour,
    cookieName:      "AUTH_TOKEN",
  }
}

func TestTokenRoundTrip(t *testing.T) {
  sessions := newFakeAuthSessionRepo()
  as := newAuthServiceForTest(t, sessions)

  user := &types.User{ID: uuid.New(), Email: "traveler@example.com"}
  token, err := as.openSession(context.Background(), nil, user)
  require.NoError(t, err)
  require.NotEmpty(t, token)

  ctx, err := as.SetContextFromToken(context.Background(), token)
  require.NoError(t, err)
  rd := requestdata.GetRequestData(ctx)
  require.NotNil(t, rd)
  assert.Equal(t, user.ID, rd.UserID)
  assert.Equal(t, token, rd.TokenString)
  assert.NotEqual(t, uuid.Nil, rd.SessionID)
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
  as := newAuthServiceForTest(t, newFakeAuthSessionRepo())

  _, err := as.SetContextFromToken(context.Background(), "not-a-jwt")
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeAuthRequired))
}

func TestSetContextFromTokenRejectsWrongSecret(t *testing.T) {
  sessions := newFakeAuthSessionRepo()
  as := newAuthServiceForTest(t, sessions)

  user := &types.User{ID: uuid.New(), Email: "traveler@example.com"}
  token, err := as.openSession(context.Background(), nil, user)
  require.NoError(t, err)

  other := newAuthServiceForTest(t, sessions)
  other.jwtSecretKey = "different-secret"
  _, err = other.SetContextFromToken(context.Background(), token)
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeAuthRequired))
}

func TestSetContextFromTokenRejectsRevokedSession(t *testing.T) {
  sessions := newFakeAuthSessionRepo()
  as := newAuthServiceForTest(t, sessions)

  user := &types.User{ID: uuid.New(), Email: "traveler@example.com"}
  token, err := as.openSession(context.Background(), nil, user)
  require.NoError(t, err)

  for id := range sessions.sessions {
    require.NoError(t, sessions.Revoke(context.Background(), nil, id))
  }

  _, err = as.SetContextFromToken(context.Background(), token)
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeAuthRequired))
}

func TestSetContextFromTokenRejectsExpiredSession(t *testing.T) {
  sessions := newFakeAuthSessionRepo()
  as := newAuthServiceForTest(t, sessions)
  as.sessionTTL = -time.Minute

  user := &types.User{ID: uuid.New(), Email: "traveler@example.com"}
  token, err := as.openSession(context.Background(), nil, user)
  require.NoError(t, err)

  _, err = as.SetContextFromToken(context.Background(), token)
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeAuthRequired))
}

func TestLogoutRevokesSession(t *testing.T) {
  sessions := newFakeAuthSessionRepo()
  as := newAuthServiceForTest(t, sessions)

  user := &types.User{ID: uuid.New(), Email: "traveler@example.com"}
  token, err := as.openSession(context.Background(), nil, user)
  require.NoError(t, err)

  ctx, err := as.SetContextFromToken(context.Background(), token)
  require.NoError(t, err)
  require.NoError(t, as.Logout(ctx))

  _, err = as.SetContextFromToken(context.Background(), token)
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeAuthRequired))
}

func TestPasswordHashRoundTrip(t *testing.T) {
  hash, err := utils.HashPassword("hunter2hunter2")
  require.NoError(t, err)
  assert.True(t, utils.CheckPassword(hash, "hunter2hunter2"))
  assert.False(t, utils.CheckPassword(hash, "wrong-password"))
}
