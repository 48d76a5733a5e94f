package sse

import (
  "net/http/httptest"
  "testing"

  "github.com/gin-gonic/gin"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
)

func newTestStream(t *testing.T) (*Stream, *httptest.ResponseRecorder) {
  t.Helper()
  gin.SetMode(gin.TestMode)
  recorder := httptest.NewRecorder()
  c, _ := gin.CreateTestContext(recorder)
  log, err := logger.New("development")
  require.NoError(t, err)
  return NewStream(c, log), recorder
}

func TestNewStreamSetsHeaders(t *testing.T) {
  _, recorder := newTestStream(t)

  assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
  assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
  assert.Equal(t, "no", recorder.Header().Get("X-Accel-Buffering"))
  assert.Equal(t, 200, recorder.Code)
}

func TestSendWritesNamedEvent(t *testing.T) {
  stream, recorder := newTestStream(t)

  stream.Send(EventMeta, map[string]interface{}{"chatId": 7})
  stream.Send(EventDelta, map[string]interface{}{"content": "Hello"})

  body := recorder.Body.String()
  assert.Contains(t, body, "event: meta\ndata: {\"chatId\":7}\n\n")
  assert.Contains(t, body, "event: delta\ndata: {\"content\":\"Hello\"}\n\n")
}

func TestSendAfterCloseIsNoOp(t *testing.T) {
  stream, recorder := newTestStream(t)

  stream.Close()
  stream.Send(EventDone, map[string]interface{}{"chatId": 7})

  assert.Empty(t, recorder.Body.String())
}

func TestSendSkipsUnmarshalablePayload(t *testing.T) {
  stream, recorder := newTestStream(t)

  stream.Send(EventMeta, map[string]interface{}{"bad": func() {}})
  stream.Send(EventDelta, map[string]interface{}{"content": "still alive"})

  body := recorder.Body.String()
  assert.NotContains(t, body, "event: meta")
  assert.Contains(t, body, "still alive")
}
