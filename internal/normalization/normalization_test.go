package normalization

import (
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func TestParseInputString(t *testing.T) {
  assert.Equal(t, "hello", ParseInputString("  hello  "))
  assert.Equal(t, "", ParseInputString("   "))
}

func TestParseInputStringPtr(t *testing.T) {
  got := ParseInputStringPtr("  Lisbon  ")
  require.NotNil(t, got)
  assert.Equal(t, "Lisbon", *got)

  assert.Nil(t, ParseInputStringPtr("   "))
  assert.Nil(t, ParseInputStringPtr(""))
}

func TestParseEmail(t *testing.T) {
  assert.Equal(t, "traveler@example.com", ParseEmail("  Traveler@Example.COM  "))
  assert.Equal(t, "", ParseEmail("   "))
}
