// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestNew_ReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, jwt.MapClaims{"sub": "ana@example.com", "name": "Ana", "exp": exp.Unix()})

	s := New(tok, "refresh", User{})
	assert.Equal(t, "ana@example.com", s.User().Email)
	assert.Equal(t, "Ana", s.User().DisplayName())
	assert.True(t, s.ExpiresAt().Equal(exp))
	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(exp.Add(time.Second)))
	assert.True(t, s.Authenticated())
}

func TestNew_ExplicitUserWins(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"email": "claim@example.com"})
	s := New(tok, "", User{Email: "given@example.com"})
	assert.Equal(t, "given@example.com", s.User().Email)
}

func TestNew_OpaqueToken(t *testing.T) {
	s := New("not-a-jwt", "", User{Email: "a@b.co"})
	assert.Equal(t, "not-a-jwt", s.Token())
	assert.True(t, s.ExpiresAt().IsZero())
	assert.False(t, s.Expired(time.Now().Add(100*time.Hour)))
}

func TestLogout_RunsHooksOnce(t *testing.T) {
	s := New("tok", "ref", User{Email: "a@b.co"})
	calls := 0
	s.OnLogout(func() { calls++ })

	s.Logout()
	s.Logout()

	assert.Equal(t, 1, calls)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.RefreshToken())
	assert.Equal(t, User{}, s.User())
}

func TestUpdateTokens(t *testing.T) {
	s := New("old", "old-ref", User{Name: "Ana"})
	s.UpdateTokens("new", "new-ref")
	assert.Equal(t, "new", s.Token())
	assert.Equal(t, "new-ref", s.RefreshToken())
	assert.Equal(t, "Ana", s.User().Name)
}
