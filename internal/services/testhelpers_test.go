package services

import (
  "context"
  "database/sql"
  "sort"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("failed to build logger: %v", err)
  }
  return log
}

// fakeConnPool satisfies gorm's transaction plumbing without a database.
// Every statement goes through the fake repos instead, so the pool only has
// to hand out committable transactions.
type fakeConnPool struct{}

func (fakeConnPool) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
  return nil, nil
}

func (fakeConnPool) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
  return nil, nil
}

func (fakeConnPool) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
  return nil, nil
}

func (fakeConnPool) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
  return nil
}

func (fakeConnPool) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
  return &fakeTx{}, nil
}

type fakeTx struct {
  fakeConnPool
}

func (*fakeTx) Commit() error   { return nil }
func (*fakeTx) Rollback() error { return nil }

func testDB(t *testing.T) *gorm.DB {
  t.Helper()
  db, err := gorm.Open(postgres.New(postgres.Config{Conn: fakeConnPool{}}), &gorm.Config{})
  if err != nil {
    t.Fatalf("failed to build test db: %v", err)
  }
  return db
}

type fakeChatRepo struct {
  mu     sync.Mutex
  nextID uint64
  chats  map[uint64]*types.Chat
}

func newFakeChatRepo() *fakeChatRepo {
  return &fakeChatRepo{chats: map[uint64]*types.Chat{}}
}

func (r *fakeChatRepo) Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  r.nextID++
  chat.ID = r.nextID
  chat.CreatedAt = time.Now()
  chat.UpdatedAt = chat.CreatedAt
  r.chats[chat.ID] = chat
  return chat, nil
}

func (r *fakeChatRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id uint64, userID uuid.UUID) (*types.Chat, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  chat, ok := r.chats[id]
  if !ok || chat.UserID != userID {
    return nil, nil
  }
  return chat, nil
}

func (r *fakeChatRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chat, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  var chats []*types.Chat
  for _, chat := range r.chats {
    if chat.UserID == userID {
      chats = append(chats, chat)
    }
  }
  sort.Slice(chats, func(i, j int) bool { return chats[i].ID > chats[j].ID })
  return chats, nil
}

func (r *fakeChatRepo) UpdateTitle(ctx context.Context, tx *gorm.DB, id uint64, title string) error {
  r.mu.Lock()
  defer r.mu.Unlock()
  if chat, ok := r.chats[id]; ok {
    chat.Title = &title
  }
  return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, tx *gorm.DB, id uint64) error {
  r.mu.Lock()
  defer r.mu.Unlock()
  delete(r.chats, id)
  return nil
}

type fakeChatMessageRepo struct {
  mu       sync.Mutex
  nextID   uint64
  messages []*types.ChatMessage
}

func newFakeChatMessageRepo() *fakeChatMessageRepo {
  return &fakeChatMessageRepo{}
}

func (r *fakeChatMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  r.nextID++
  message.ID = r.nextID
  message.CreatedAt = time.Now()
  message.UpdatedAt = message.CreatedAt
  r.messages = append(r.messages, message)
  return message, nil
}

func (r *fakeChatMessageRepo) GetByChat(ctx context.Context, tx *gorm.DB, chatID uint64) ([]*types.ChatMessage, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  var out []*types.ChatMessage
  for _, m := range r.messages {
    if m.ChatID == chatID {
      out = append(out, m)
    }
  }
  sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
  return out, nil
}

func (r *fakeChatMessageRepo) Update(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  for i, m := range r.messages {
    if m.ID == message.ID {
      r.messages[i] = message
    }
  }
  return message, nil
}

func (r *fakeChatMessageRepo) DeleteAfter(ctx context.Context, tx *gorm.DB, chatID, messageID uint64) error {
  r.mu.Lock()
  defer r.mu.Unlock()
  kept := r.messages[:0]
  for _, m := range r.messages {
    if m.ChatID == chatID && m.ID > messageID {
      continue
    }
    kept = append(kept, m)
  }
  r.messages = kept
  return nil
}

func (r *fakeChatMessageRepo) DeleteByChat(ctx context.Context, tx *gorm.DB, chatID uint64) error {
  r.mu.Lock()
  defer r.mu.Unlock()
  kept := r.messages[:0]
  for _, m := range r.messages {
    if m.ChatID != chatID {
      kept = append(kept, m)
    }
  }
  r.messages = kept
  return nil
}

func (r *fakeChatMessageRepo) ClearItinerariesForChat(ctx context.Context, tx *gorm.DB, chatID uint64) error {
  r.mu.Lock()
  defer r.mu.Unlock()
  for _, m := range r.messages {
    if m.ChatID == chatID {
      m.ItineraryJSON = nil
    }
  }
  return nil
}

type fakeTripProfileRepo struct {
  mu       sync.Mutex
  profiles map[uint64]*types.TripProfile
}

func newFakeTripProfileRepo() *fakeTripProfileRepo {
  return &fakeTripProfileRepo{profiles: map[uint64]*types.TripProfile{}}
}

func (r *fakeTripProfileRepo) GetByChat(ctx context.Context, tx *gorm.DB, chatID uint64) (*types.TripProfile, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  return r.profiles[chatID], nil
}

func (r *fakeTripProfileRepo) Save(ctx context.Context, tx *gorm.DB, profile *types.TripProfile) (*types.TripProfile, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  if profile.ID == 0 {
    profile.ID = uint64(len(r.profiles) + 1)
  }
  r.profiles[profile.ChatID] = profile
  return profile, nil
}

func (r *fakeTripProfileRepo) DeleteByChat(ctx context.Context, tx *gorm.DB, chatID uint64) error {
  r.mu.Lock()
  defer r.mu.Unlock()
  delete(r.profiles, chatID)
  return nil
}

// fakeAI answers with canned replies so tests control the gateway.
type fakeAI struct {
  configured    bool
  chatReply     string
  chatErr       error
  streamChunks  []string
  streamErr     error
  title         string
  titleErr      error
  itinerary     datatypes.JSON
  analysisReply string
  analysisErr   error
}

func (f *fakeAI) Configured() bool { return f.configured }

func (f *fakeAI) Chat(ctx context.Context, history []*types.ChatMessage, profile *types.TripProfile) (string, error) {
  return f.chatReply, f.chatErr
}

func (f *fakeAI) StreamChat(ctx context.Context, history []*types.ChatMessage, profile *types.TripProfile, onDelta func(chunk string)) (string, error) {
  if f.streamErr != nil {
    return "", f.streamErr
  }
  full := ""
  for _, chunk := range f.streamChunks {
    onDelta(chunk)
    full += chunk
  }
  return full, nil
}

func (f *fakeAI) GenerateTitle(ctx context.Context, firstUserMessage, assistantReply string) (string, error) {
  if f.titleErr != nil {
    return "", f.titleErr
  }
  return f.title, nil
}

func (f *fakeAI) ExtractItineraryJSON(ctx context.Context, assistantReply string) datatypes.JSON {
  return f.itinerary
}

func (f *fakeAI) AnalyzeDocument(ctx context.Context, history []*types.ChatMessage, req DocumentAnalysisRequest) (string, error) {
  return f.analysisReply, f.analysisErr
}

type sentEvent struct {
  Event   string
  Payload interface{}
}

type fakeStream struct {
  mu     sync.Mutex
  events []sentEvent
  closed bool
}

func (f *fakeStream) Send(event string, payload interface{}) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.events = append(f.events, sentEvent{Event: event, Payload: payload})
}

func (f *fakeStream) Close() {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.closed = true
}

func (f *fakeStream) eventNames() []string {
  f.mu.Lock()
  defer f.mu.Unlock()
  names := make([]string, 0, len(f.events))
  for _, e := range f.events {
    names = append(names, e.Event)
  }
  return names
}
