package services

import (
  "testing"

  "github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
  cases := []struct {
    name string
    in   string
    want string
  }{
    {"plain text untouched", "<p>Hello</p>", "<p>Hello</p>"},
    {"bare fences", "```\n<p>Hello</p>\n```", "<p>Hello</p>"},
    {"html language tag", "```html\n<p>Hello</p>\n```", "<p>Hello</p>"},
    {"json language tag", "```json\n{\"days\":[]}\n```", "{\"days\":[]}"},
    {"surrounding whitespace", "  ```html\n<p>Hi</p>\n```  ", "<p>Hi</p>"},
    {"inner fences preserved", "intro ```code``` outro", "intro ```code``` outro"},
    {"empty input", "", ""},
    {"only whitespace", "   ", ""},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      assert.Equal(t, tc.want, stripCodeFences(tc.in))
    })
  }
}

func TestStripCodeFencesIdempotent(t *testing.T) {
  once := stripCodeFences("```html\n<p>Hello</p>\n```")
  assert.Equal(t, once, stripCodeFences(once))
}
