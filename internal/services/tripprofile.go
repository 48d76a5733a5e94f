package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/repos"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
  "github.com/wayfarer-org/wayfarer-backend/internal/normalization"
)

// TripProfileInput carries the user-entered planning fields. Every field is
// free text; blank strings are stored as NULL.
type TripProfileInput struct {
  Destination string `json:"destination"`
  StartDate   string `json:"startDate"`
  EndDate     string `json:"endDate"`
  Budget      string `json:"budget"`
  Travelers   string `json:"travelers"`
  Interests   string `json:"interests"`
  Constraints string `json:"constraints"`
}

type TripProfileService interface {
  Get(ctx context.Context, userID uuid.UUID, chatID uint64) (*types.TripProfile, error)
  Save(ctx context.Context, userID uuid.UUID, chatID uint64, input TripProfileInput) (*types.TripProfile, error)
}

type tripProfileService struct {
  log             *logger.Logger
  chatRepo        repos.ChatRepo
  tripProfileRepo repos.TripProfileRepo
}

func NewTripProfileService(baseLog *logger.Logger, chatRepo repos.ChatRepo, tripProfileRepo repos.TripProfileRepo) TripProfileService {
  return &tripProfileService{
    log:             baseLog.With("service", "TripProfileService"),
    chatRepo:        chatRepo,
    tripProfileRepo: tripProfileRepo,
  }
}

func (ts *tripProfileService) Get(ctx context.Context, userID uuid.UUID, chatID uint64) (*types.TripProfile, error) {
  if _, err := ts.requireChat(ctx, userID, chatID); err != nil {
    return nil, err
  }
  profile, err := ts.tripProfileRepo.GetByChat(ctx, nil, chatID)
  if err != nil {
    ts.log.Warn("Failure to load trip profile, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("error loading trip profile: %w", err)
  }
  if profile == nil {
    profile = &types.TripProfile{ChatID: chatID}
  }
  return profile, nil
}

func (ts *tripProfileService) Save(ctx context.Context, userID uuid.UUID, chatID uint64, input TripProfileInput) (*types.TripProfile, error) {
  if _, err := ts.requireChat(ctx, userID, chatID); err != nil {
    return nil, err
  }
  profile, err := ts.tripProfileRepo.GetByChat(ctx, nil, chatID)
  if err != nil {
    ts.log.Warn("Failure to load trip profile, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("error loading trip profile: %w", err)
  }
  if profile == nil {
    profile = &types.TripProfile{ChatID: chatID}
  }
  profile.Destination = normalization.ParseInputStringPtr(input.Destination)
  profile.StartDate = normalization.ParseInputStringPtr(input.StartDate)
  profile.EndDate = normalization.ParseInputStringPtr(input.EndDate)
  profile.Budget = normalization.ParseInputStringPtr(input.Budget)
  profile.Travelers = normalization.ParseInputStringPtr(input.Travelers)
  profile.Interests = normalization.ParseInputStringPtr(input.Interests)
  profile.Constraints = normalization.ParseInputStringPtr(input.Constraints)
  saved, sErr := ts.tripProfileRepo.Save(ctx, nil, profile)
  if sErr != nil {
    ts.log.Warn("Failure to save trip profile, Cannot proceed. Returning error.", "error", sErr)
    return nil, fmt.Errorf("error saving trip profile: %w", sErr)
  }
  profile = saved
  ts.log.Info("Trip profile saved", "chatId", chatID)
  return profile, nil
}

func (ts *tripProfileService) requireChat(ctx context.Context, userID uuid.UUID, chatID uint64) (*types.Chat, error) {
  chat, err := ts.chatRepo.GetByIDForUser(ctx, nil, chatID, userID)
  if err != nil {
    ts.log.Warn("Failure to load chat, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("error loading chat: %w", err)
  }
  if chat == nil {
    return nil, apperr.NotFound("Chat not found.")
  }
  return chat, nil
}
