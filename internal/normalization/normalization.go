package normalization

import (
  "strings"
)

// ParseInputString trims surrounding whitespace from user supplied input.
func ParseInputString(s string) string {
  return strings.TrimSpace(s)
}

// ParseInputStringPtr trims the input and returns nil when nothing is left,
// so optional fields land as NULL instead of empty strings.
func ParseInputStringPtr(s string) *string {
  trimmed := strings.TrimSpace(s)
  if trimmed == "" {
    return nil
  }
  return &trimmed
}

// ParseEmail canonicalizes an email address: trimmed and lowercased.
func ParseEmail(s string) string {
  return strings.ToLower(strings.TrimSpace(s))
}
