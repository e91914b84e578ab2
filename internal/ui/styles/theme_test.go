// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

func TestStatusBadge_ShowsLabel(t *testing.T) {
	theme := NewTheme()
	for _, s := range []model.ScrapeStatus{
		model.StatusPending, model.StatusProcessing, model.StatusCompleted, model.StatusFailed,
	} {
		assert.Contains(t, theme.StatusBadge(s), s.Label())
	}
}
