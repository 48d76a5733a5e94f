package sse

import (
  "encoding/json"
  "fmt"
  "net/http"
  "sync"

  "github.com/gin-gonic/gin"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
)

// Event names pushed over a chat stream, in the order a client can expect
// them: one meta, zero or more deltas, then done (possibly preceded by a
// stream-warning or an error).
const (
  EventMeta          = "meta"
  EventDelta         = "delta"
  EventStreamWarning = "stream-warning"
  EventError         = "error"
  EventDone          = "done"
)

// Stream wraps one live SSE response. Sends are best effort: once a write
// fails the stream is marked dead and later sends become no-ops, because a
// gone client must never abort the work that feeds it.
type Stream struct {
  mu      sync.Mutex
  writer  gin.ResponseWriter
  flusher http.Flusher
  log     *logger.Logger
  dead    bool
  closed  bool
}

// NewStream sets the SSE response headers on c and returns a writer bound to
// its connection.
func NewStream(c *gin.Context, baseLog *logger.Logger) *Stream {
  c.Writer.Header().Set("Content-Type", "text/event-stream")
  c.Writer.Header().Set("Cache-Control", "no-cache")
  c.Writer.Header().Set("Connection", "keep-alive")
  c.Writer.Header().Set("X-Accel-Buffering", "no")
  c.Writer.WriteHeader(http.StatusOK)
  c.Writer.Flush()

  flusher, _ := c.Writer.(http.Flusher)
  return &Stream{
    writer:  c.Writer,
    flusher: flusher,
    log:     baseLog.With("component", "SSEStream"),
  }
}

// Send marshals payload as JSON and writes one named event. Failures are
// swallowed after being logged.
func (s *Stream) Send(event string, payload interface{}) {
  s.mu.Lock()
  defer s.mu.Unlock()
  if s.dead || s.closed {
    return
  }
  data, err := json.Marshal(payload)
  if err != nil {
    s.log.Warn("failed to marshal SSE payload", "event", event, "error", err)
    return
  }
  if _, err := fmt.Fprintf(s.writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
    s.log.Debug("SSE write failed, marking stream dead", "event", event, "error", err)
    s.dead = true
    return
  }
  if s.flusher != nil {
    s.flusher.Flush()
  }
}

// Close marks the stream finished. The underlying connection is owned by the
// HTTP layer; Close only stops further sends.
func (s *Stream) Close() {
  s.mu.Lock()
  defer s.mu.Unlock()
  s.closed = true
}
