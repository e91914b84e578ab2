// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the identity shown in the user section.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName returns the name, falling back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session is safe for concurrent use.
type Session struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
	user         User
	expiresAt    time.Time
	onLogout     []func()
}

// New creates a session. Claims in the access token, if it is a JWT, fill
// in the expiry and any user fields left empty. The signature is not
// checked; the backend does that on every request.
func New(accessToken, refreshToken string, user User) *Session {
	s := &Session{}
	s.set(accessToken, refreshToken, user)
	return s
}

func (s *Session) set(accessToken, refreshToken string, user User) {
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.user = user
	s.expiresAt = time.Time{}

	c := readClaims(accessToken)
	s.expiresAt = c.expiresAt
	if s.user.Email == "" {
		s.user.Email = c.email
	}
	if s.user.Name == "" {
		s.user.Name = c.name
	}
}

// UpdateTokens swaps in refreshed tokens, keeping the user.
func (s *Session) UpdateTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(accessToken, refreshToken, s.user)
}

// Token returns the bearer token, empty after logout.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// RefreshToken returns the refresh token.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// User returns the signed-in user.
func (s *Session) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// ExpiresAt returns the token expiry, zero when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Expired reports whether the token is known to have expired at now.
// Tokens without an exp claim never expire client-side.
func (s *Session) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}

// OnLogout registers fn to run when the session is logged out.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Logout clears the credentials and runs the logout callbacks. Calling it
// on a session that is already logged out does nothing.
func (s *Session) Logout() {
	s.mu.Lock()
	if s.accessToken == "" && s.refreshToken == "" {
		s.mu.Unlock()
		return
	}
	s.accessToken = ""
	s.refreshToken = ""
	s.user = User{}
	s.expiresAt = time.Time{}
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

type claims struct {
	email     string
	name      string
	expiresAt time.Time
}

func readClaims(token string) claims {
	var c claims
	if token == "" {
		return c
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return c
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.expiresAt = exp.Time
	}
	if email, ok := mc["email"].(string); ok {
		c.email = email
	} else if sub, err := mc.GetSubject(); err == nil {
		c.email = sub
	}
	if name, ok := mc["name"].(string); ok {
		c.name = name
	}
	return c
}
