// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns bot answer text into terminal output.
//
// The typewriter engine only decides how much of an answer is visible; a
// Strategy decides what that visible text looks like. Markdown renders
// through glamour, Plain wraps text and highlights fenced code blocks.
package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/rln-tomas/chatbot-rag-front/internal/config"
)

// Strategy renders answer text for a given width.
type Strategy interface {
	Name() string
	Render(text string, width int) string
}

// New returns the strategy for a config render mode.
func New(mode string, dark bool) Strategy {
	if mode == config.RenderPlain {
		return Plain{}
	}
	return NewMarkdown(dark)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// Markdown renders with glamour. Renderers are cached per width.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown returns a markdown strategy for a dark or light terminal.
func NewMarkdown(dark bool) *Markdown {
	style := "light"
	if dark {
		style = "dark"
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

func (m *Markdown) Name() string { return config.RenderMarkdown }

// Render renders text as markdown, falling back to Plain on failure.
func (m *Markdown) Render(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	r, err := m.renderer(width)
	if err != nil {
		return Plain{}.Render(text, width)
	}
	out, err := r.Render(text)
	if err != nil {
		return Plain{}.Render(text, width)
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	if width < 20 {
		width = 20
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}
