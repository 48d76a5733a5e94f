package services

import (
  "regexp"
  "strings"
)

// codeFencePattern matches a reply that is one whole fenced block, with an
// optional language tag after the opening backticks.
var codeFencePattern = regexp.MustCompile("(?s)^```(?:\\w+)?\\s*(.*?)\\s*```$")

// stripCodeFences removes a single enclosing triple-backtick fence from
// model output. Unfenced text passes through unchanged, so the operation is
// idempotent.
func stripCodeFences(content string) string {
  trimmed := strings.TrimSpace(content)
  if trimmed == "" {
    return trimmed
  }
  if m := codeFencePattern.FindStringSubmatch(trimmed); m != nil {
    return strings.TrimSpace(m[1])
  }
  return content
}
