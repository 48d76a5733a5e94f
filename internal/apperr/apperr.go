package apperr

import (
  "errors"
  "net/http"
)

// Code classifies a failure so the HTTP layer can pick a status without
// string matching. Services return these; handlers map them with Status.
type Code int

const (
  CodeValidation Code = iota + 1
  CodeAuthRequired
  CodeNotFound
  CodeConflict
  CodeNotConfigured
  CodeUpstream
)

type Error struct {
  Code    Code
  Message string
  Err     error
}

func (e *Error) Error() string {
  if e.Err != nil {
    return e.Message + ": " + e.Err.Error()
  }
  return e.Message
}

func (e *Error) Unwrap() error {
  return e.Err
}

func Validation(msg string) *Error {
  return &Error{Code: CodeValidation, Message: msg}
}

func AuthRequired(msg string) *Error {
  return &Error{Code: CodeAuthRequired, Message: msg}
}

func NotFound(msg string) *Error {
  return &Error{Code: CodeNotFound, Message: msg}
}

func Conflict(msg string) *Error {
  return &Error{Code: CodeConflict, Message: msg}
}

func NotConfigured(msg string) *Error {
  return &Error{Code: CodeNotConfigured, Message: msg}
}

func Upstream(msg string, err error) *Error {
  return &Error{Code: CodeUpstream, Message: msg, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Code == code
  }
  return false
}

// Status maps an error to the HTTP status a handler should answer with.
// Anything untyped is an internal error.
func Status(err error) int {
  var ae *Error
  if !errors.As(err, &ae) {
    return http.StatusInternalServerError
  }
  switch ae.Code {
  case CodeValidation:
    return http.StatusBadRequest
  case CodeAuthRequired:
    return http.StatusUnauthorized
  case CodeNotFound:
    return http.StatusNotFound
  case CodeConflict:
    return http.StatusConflict
  case CodeNotConfigured:
    return http.StatusInternalServerError
  case CodeUpstream:
    return http.StatusBadGateway
  default:
    return http.StatusInternalServerError
  }
}

// UserMessage extracts the message safe to show a caller. Untyped errors
// collapse to a generic message so internals never leak over the wire.
func UserMessage(err error) string {
  var ae *Error
  if errors.As(err, &ae) && ae.Message != "" {
    return ae.Message
  }
  return "Something went wrong. Please try again."
}
