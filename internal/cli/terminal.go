// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
)

const defaultWidth = 80

var timeNow = time.Now

// stdinIsTerminal reports whether stdin is an interactive terminal.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalWidth returns the width of stdout, or a default when stdout is
// not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// readPassword reads a line from the terminal without echo.
func readPassword() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// describeError turns an error into one line for the user.
func describeError(err error) string {
	var e *apierr.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch {
	case e.Kind == apierr.KindAuthExpired:
		return "session expired or not authorized, run `ragchat login`"
	case e.Kind == apierr.KindTransport && e.Status == 0:
		return "could not reach the server"
	case e.Message != "":
		return e.Message
	}
	return err.Error()
}
