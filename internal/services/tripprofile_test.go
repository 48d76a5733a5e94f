package services

import (
  "context"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

func newTripProfileFixture(t *testing.T) (TripProfileService, *fakeChatRepo, *fakeTripProfileRepo, uuid.UUID) {
  t.Helper()
  chats := newFakeChatRepo()
  profiles := newFakeTripProfileRepo()
  return NewTripProfileService(testLogger(t), chats, profiles), chats, profiles, uuid.New()
}

func TestTripProfileSaveTrimsBlanksToNull(t *testing.T) {
  service, chats, _, userID := newTripProfileFixture(t)
  chat, err := chats.Create(context.Background(), nil, &types.Chat{UserID: userID})
  require.NoError(t, err)

  profile, err := service.Save(context.Background(), userID, chat.ID, TripProfileInput{
    Destination: "  Kyoto  ",
    StartDate:   "2026-09-10",
    Budget:      "   ",
    Interests:   "temples, food",
  })
  require.NoError(t, err)

  require.NotNil(t, profile.Destination)
  assert.Equal(t, "Kyoto", *profile.Destination)
  require.NotNil(t, profile.StartDate)
  assert.Equal(t, "2026-09-10", *profile.StartDate)
  assert.Nil(t, profile.Budget)
  assert.Nil(t, profile.EndDate)
  require.NotNil(t, profile.Interests)
  assert.Equal(t, "temples, food", *profile.Interests)
}

func TestTripProfileSaveOverwrites(t *testing.T) {
  service, chats, _, userID := newTripProfileFixture(t)
  chat, err := chats.Create(context.Background(), nil, &types.Chat{UserID: userID})
  require.NoError(t, err)

  _, err = service.Save(context.Background(), userID, chat.ID, TripProfileInput{Destination: "Kyoto", Budget: "2000 EUR"})
  require.NoError(t, err)
  updated, err := service.Save(context.Background(), userID, chat.ID, TripProfileInput{Destination: "Osaka"})
  require.NoError(t, err)

  require.NotNil(t, updated.Destination)
  assert.Equal(t, "Osaka", *updated.Destination)
  assert.Nil(t, updated.Budget, "fields omitted on rewrite go back to null")
}

func TestTripProfileOwnerScoped(t *testing.T) {
  service, chats, _, userID := newTripProfileFixture(t)
  chat, err := chats.Create(context.Background(), nil, &types.Chat{UserID: userID})
  require.NoError(t, err)

  _, err = service.Get(context.Background(), uuid.New(), chat.ID)
  assert.True(t, apperr.Is(err, apperr.CodeNotFound))

  _, err = service.Save(context.Background(), uuid.New(), chat.ID, TripProfileInput{Destination: "Kyoto"})
  assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestTripProfileGetReturnsEmptyProfile(t *testing.T) {
  service, chats, _, userID := newTripProfileFixture(t)
  chat, err := chats.Create(context.Background(), nil, &types.Chat{UserID: userID})
  require.NoError(t, err)

  profile, err := service.Get(context.Background(), userID, chat.ID)
  require.NoError(t, err)
  assert.Equal(t, chat.ID, profile.ChatID)
  assert.Nil(t, profile.Destination)
}
