package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkdown(t *testing.T) {
	in := "# Heading\n\nSome **bold** and _italic_ text with [a link](http://x) and `code`.\n\n```\nfenced\n```\n"
	got := StripMarkdown(in)
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "](")
	assert.NotContains(t, got, "`")
	assert.Contains(t, got, "bold")
	assert.Contains(t, got, "a link")
	assert.NotContains(t, got, "fenced")
}

func TestToSpeechText(t *testing.T) {
	in := "## Summary\n\n- first point\n- second point\n\n1. numbered\n"
	got := ToSpeechText(in)
	assert.NotContains(t, got, "\n")
	assert.NotContains(t, got, "- ")
	assert.Contains(t, got, "first point")
	assert.Contains(t, got, "numbered")
}

func TestWrapLines(t *testing.T) {
	got := wrapLines("one two three four five six seven eight nine ten", 15)
	for _, line := range splitNonEmpty(got) {
		assert.LessOrEqual(t, len(line), 15)
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
