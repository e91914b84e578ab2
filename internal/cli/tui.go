// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rln-tomas/chatbot-rag-front/internal/config"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/app"
)

// runTUI runs the full-screen client until the user quits.
func runTUI(ctx context.Context, e *env) error {
	m := app.New(app.Options{
		Config:  e.cfg,
		Client:  e.client,
		Session: e.storedSession(),
		Cache:   e.historyCache(),
		Theme:   e.theme,
		Logger:  e.logger,
		Save:    e.save,
	})
	defer m.Shutdown()

	program := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	err := config.Watch(ctx, e.cfgPath, func(cfg *config.Config, err error) {
		program.Send(app.ConfigReloadedMsg{Config: cfg, Err: err})
	})
	if err != nil {
		e.logger.Warn("config hot reload disabled", "error", err)
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	e.logger.Info("ragchat exiting")
	return nil
}
