// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-runewidth"

	"github.com/rln-tomas/chatbot-rag-front/internal/config"
)

// Plain wraps prose to the width and highlights fenced code blocks.
type Plain struct{}

func (Plain) Name() string { return config.RenderPlain }

// Render wraps text outside code fences and highlights text inside them. An
// unterminated fence, common while an answer is still arriving, is
// highlighted as far as it goes.
func (Plain) Render(text string, width int) string {
	var (
		out      []string
		code     []string
		language string
		inCode   bool
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCode {
				out = append(out, Highlight(strings.Join(code, "\n"), language))
				code, language, inCode = nil, "", false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
				inCode = true
			}
			continue
		}
		if inCode {
			code = append(code, line)
			continue
		}
		out = append(out, Wrap(line, width))
	}
	if inCode && len(code) > 0 {
		out = append(out, Highlight(strings.Join(code, "\n"), language))
	}
	return strings.Join(out, "\n")
}

// Wrap breaks a single line at spaces so no row exceeds width cells. Words
// wider than width are split. Lines that already fit are returned unchanged.
func Wrap(line string, width int) string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return line
	}
	var (
		rows []string
		row  strings.Builder
		w    int
	)
	flush := func() {
		rows = append(rows, row.String())
		row.Reset()
		w = 0
	}
	for _, word := range strings.Fields(line) {
		ww := runewidth.StringWidth(word)
		for ww > width {
			if w > 0 {
				flush()
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				break
			}
			row.WriteString(head)
			flush()
			word = word[len(head):]
			ww = runewidth.StringWidth(word)
		}
		if ww == 0 {
			continue
		}
		if w > 0 && w+1+ww > width {
			flush()
		}
		if w > 0 {
			row.WriteByte(' ')
			w++
		}
		row.WriteString(word)
		w += ww
	}
	if w > 0 || len(rows) == 0 {
		flush()
	}
	return strings.Join(rows, "\n")
}

// Truncate shortens s to width cells with an ellipsis.
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

// Highlight applies terminal syntax highlighting to code.
func Highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
