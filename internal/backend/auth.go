// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
)

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         session.User `json:"user"`
}

// ErrNoToken is returned when a login response carries no access token.
var ErrNoToken = errors.New("login response did not include an access token")

// Login exchanges credentials for tokens and returns a new session. A 401 or
// 403 here means the credentials were rejected; it is still reported as
// KindAuthExpired so callers handle every auth failure the same way.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	const op = "login"
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var out LoginResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/api/v1/auth/login", in, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, apierr.Transport(op, ErrNoToken)
	}
	if out.User.Email == "" {
		out.User.Email = email
	}
	return session.New(out.AccessToken, out.RefreshToken, out.User), nil
}
