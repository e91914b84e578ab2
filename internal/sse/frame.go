// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Frame is one decoded data line.
type Frame struct {
	Done           bool
	ConversationID int64
	Content        string
}

type payload struct {
	ConversationID int64  `json:"conversation_id"`
	Content        string `json:"content"`
}

// ParseLine decodes a single line with its terminator already removed.
// isData is false for lines that are not data lines (comments, event names,
// keep-alive blanks); those carry nothing and are ignored by Ingest.
func ParseLine(line string) (f Frame, isData bool, err error) {
	rest, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return Frame{}, false, nil
	}
	data := strings.TrimSpace(rest)
	if data == doneSentinel {
		return Frame{Done: true}, true, nil
	}
	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Frame{}, true, fmt.Errorf("malformed frame: %w", err)
	}
	return Frame{ConversationID: p.ConversationID, Content: p.Content}, true, nil
}
