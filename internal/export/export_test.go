// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

var fixed = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return fixed }
	return opts
}

func testConversation() *backend.Conversation {
	return &backend.Conversation{
		ID:    12,
		Title: "Pricing: plans & tiers",
		Messages: []model.Message{
			{ID: "1", Text: "What plans exist?\n# not a heading", Sender: model.SenderUser, Timestamp: fixed},
			{ID: "2", Text: "There are **two** plans.", Sender: model.SenderBot},
		},
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions(t.TempDir())).Export(testConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, `title: "Pricing: plans & tiers"`)
	assert.Contains(t, md, "conversation_id: 12")
	assert.Contains(t, md, "exported: 2025-03-04T05:06:07Z")
	assert.Contains(t, md, "### You <sub>2025-03-04 05:06:07</sub>")
	assert.Contains(t, md, "> # not a heading")
	assert.Contains(t, md, "### Assistant\n\nThere are **two** plans.")
}

func TestMarkdownExport_WithoutMetadata(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(testConversation())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# Pricing: plans & tiers"))
	assert.NotContains(t, string(out), "<sub>")
}

func TestMarkdownExport_Empty(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(&backend.Conversation{ID: 1})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(testOptions(t.TempDir())).Export(testConversation())
	require.NoError(t, err)

	var decoded jsonConversation
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, int64(12), decoded.ID)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, "user", decoded.Messages[0].Sender)
	assert.NotNil(t, decoded.Messages[0].Timestamp)
	assert.Nil(t, decoded.Messages[1].Timestamp)
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	exp, err := ForFormat("md", opts)
	require.NoError(t, err)

	path, err := ToFile(testConversation(), exp, opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conversation_12_Pricing-_plans_&_tiers_20250304_050607.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "There are **two** plans.")
}

func TestForFormat(t *testing.T) {
	exp, err := ForFormat("JSON", nil)
	require.NoError(t, err)
	assert.Equal(t, ".json", exp.FileExtension())

	_, err = ForFormat("html", nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("é", 80))), 50)
}
