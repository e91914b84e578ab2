// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/validate"
)

const (
	loginAttempts = 3
	loginTimeout  = 20 * time.Second
)

// prompter reads answers from the user.
type prompter interface {
	Prompt(prompt string) (string, error)
	Password(prompt string) (string, error)
}

// linePrompter prompts through liner and reads passwords without echo when
// stdin is a terminal.
type linePrompter struct {
	line *liner.State
	out  io.Writer
}

func (p linePrompter) Prompt(prompt string) (string, error) {
	return p.line.Prompt(prompt)
}

func (p linePrompter) Password(prompt string) (string, error) {
	if !stdinIsTerminal() {
		return p.line.Prompt(prompt)
	}
	fmt.Fprint(p.out, prompt)
	pw, err := readPassword()
	fmt.Fprintln(p.out)
	return pw, err
}

// authenticator signs a user in.
type authenticator interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
}

// promptLogin asks for credentials until the backend accepts them.
func promptLogin(ctx context.Context, api authenticator, p prompter, out io.Writer, email string) (*session.Session, error) {
	var lastErr error
	for attempt := 0; attempt < loginAttempts; attempt++ {
		if email == "" || lastErr != nil {
			in, err := p.Prompt("Email: ")
			if err != nil {
				return nil, err
			}
			email = strings.TrimSpace(in)
		}
		password, err := p.Password("Password: ")
		if err != nil {
			return nil, err
		}
		if err := validate.Login(email, password); err != nil {
			fmt.Fprintln(out, err)
			lastErr = err
			continue
		}

		loginCtx, cancel := context.WithTimeout(ctx, loginTimeout)
		sess, err := api.Login(loginCtx, email, password)
		cancel()
		if err == nil {
			return sess, nil
		}
		fmt.Fprintln(out, describeError(err))
		lastErr = err
	}
	return nil, fmt.Errorf("login failed after %d attempts: %w", loginAttempts, lastErr)
}

// =============================================================================
// LOGIN / LOGOUT COMMANDS
// =============================================================================

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			out := cmd.OutOrStdout()
			sess, err := promptLogin(cmd.Context(), e.client, linePrompter{line: line, out: out}, out, email)
			if errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := e.remember(sess); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			e.logger.Info("user logged in", "email", sess.User().Email)
			fmt.Fprintln(out, e.theme.Success.Render("Signed in as "+sess.User().DisplayName()))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
			account := ""
			if sess := e.storedSession(); sess != nil {
				account = sess.User().Email
			}
			e.forget()
			if e.cache != nil && account != "" {
				if err := e.cache.ClearConversations(cmd.Context(), account); err != nil {
					e.logger.Warn("failed to clear cache", "error", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		}),
	}
}
