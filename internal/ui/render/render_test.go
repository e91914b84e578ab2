// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/rln-tomas/chatbot-rag-front/internal/config"
)

func TestNew_SelectsStrategy(t *testing.T) {
	assert.Equal(t, config.RenderPlain, New(config.RenderPlain, true).Name())
	assert.Equal(t, config.RenderMarkdown, New(config.RenderMarkdown, true).Name())
	assert.Equal(t, config.RenderMarkdown, New("", false).Name())
}

func TestWrap(t *testing.T) {
	got := Wrap("the quick brown fox jumps over the lazy dog", 10)
	for _, row := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(row), 10, "row %q", row)
	}
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", strings.Join(strings.Fields(got), " "))

	assert.Equal(t, "short", Wrap("short", 10))
	assert.Equal(t, "abcde\nfghij\nk", Wrap("abcdefghijk", 5))
}

func TestWrap_WideRunes(t *testing.T) {
	got := Wrap("世界世界世界", 4)
	assert.Equal(t, "世界\n世界\n世界", got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Conver…", Truncate("Conversation about pricing", 7))
	assert.Equal(t, "Hi", Truncate("Hi", 7))
}

func TestPlain_HighlightsCodeFences(t *testing.T) {
	text := "Here:\n```go\nfunc main() {}\n```\nDone."
	out := Plain{}.Render(text, 80)
	assert.NotContains(t, out, "```")
	stripped := ansi.Strip(out)
	assert.Contains(t, stripped, "Here:")
	assert.Contains(t, stripped, "func main() {}")
	assert.Contains(t, stripped, "Done.")
}

func TestPlain_UnterminatedFence(t *testing.T) {
	out := Plain{}.Render("```python\nprint('hi')", 80)
	assert.Contains(t, ansi.Strip(out), "print('hi')")
}

func TestMarkdown_Renders(t *testing.T) {
	md := NewMarkdown(true)
	out := md.Render("# Title\n\nSome **bold** text.", 60)
	stripped := ansi.Strip(out)
	assert.Contains(t, stripped, "Title")
	assert.Contains(t, stripped, "bold")
	assert.NotContains(t, stripped, "**")

	assert.Equal(t, "", md.Render("", 60))
}
