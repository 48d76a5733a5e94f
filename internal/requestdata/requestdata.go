package requestdata

import (
  "context"

  "github.com/google/uuid"
)

type key struct{}

var requestDataKey key

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

// RequestData identifies the authenticated caller for the lifetime of a
// request. SessionID doubles as the token's jti.
type RequestData struct {
  TokenString string
  SessionID   uuid.UUID
  UserID      uuid.UUID
}
