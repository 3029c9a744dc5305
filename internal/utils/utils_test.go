package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**bold** see https://example.org")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, `href="https://example.org"`)
	assert.Contains(t, out, "nofollow")

	assert.NotContains(t, RenderMarkdown("<script>alert(1)</script>hi"), "<script>")
}
