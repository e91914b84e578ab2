// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package apierr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus_AuthCodes(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		err := FromStatus("list conversations", status, nil)
		assert.Equal(t, KindAuthExpired, err.Kind, "status %d", status)
		assert.True(t, IsAuthExpired(err))
		assert.True(t, errors.Is(err, ErrAuthExpired))
		assert.False(t, errors.Is(err, ErrTransport))
	}
}

func TestFromStatus_OtherCodesAreTransport(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		err := FromStatus("send", status, nil)
		assert.Equal(t, KindTransport, err.Kind, "status %d", status)
		assert.Equal(t, status, err.Status)
		assert.Equal(t, http.StatusText(status), err.Message)
	}
}

func TestFromStatus_ServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"URL already exists"}`, "URL already exists"},
		{"detail string", `{"detail":"Not authenticated"}`, "Not authenticated"},
		{"detail object falls through", `{"detail":[{"loc":"x"}],"error":"bad"}`, "bad"},
		{"not json", `<html>oops</html>`, "Bad Request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus("create config", http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := StreamAbort("stream", "Hel", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("chat: %w", base)

	assert.Equal(t, KindStreamAbort, KindOf(wrapped))
	assert.True(t, IsStreamAbort(wrapped))
	assert.Equal(t, "Hel", PartialOf(wrapped))
	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.Equal(t, "", PartialOf(io.EOF))
}

func TestError_Message(t *testing.T) {
	err := FromStatus("delete conversations", http.StatusInternalServerError, []byte(`{"message":"db down"}`))
	assert.Equal(t, "delete conversations: request failed (HTTP 500): db down", err.Error())

	err = Transport("send", io.ErrClosedPipe)
	assert.Equal(t, "send: request failed: io: read/write on closed pipe", err.Error())

	assert.Equal(t, "auth_expired", KindAuthExpired.String())
}
