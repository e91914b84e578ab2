// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the package reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RAGCHAT_CONFIG", "RAGCHAT_API_URL", "VITE_API_URL", "RAGCHAT_TOKEN",
		"RAGCHAT_STREAMING", "RAGCHAT_RENDER", "RAGCHAT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Chat.Streaming)
	assert.Equal(t, 20*time.Millisecond, cfg.RevealInterval())
}

func TestLoadFromPath_PartialFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://rag.example.com/"

[chat]
streaming = false
render = "plain"
`), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rag.example.com", cfg.API.BaseURL)
	assert.False(t, cfg.Chat.Streaming)
	assert.Equal(t, RenderPlain, cfg.Chat.Render)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 2, cfg.Reveal.MinRun)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[chat]
render = "html"

[reveal]
min_run = 4
max_run = 2
`), 0o600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	assert.True(t, fields["chat.render"])
	assert.True(t, fields["reveal.max_run"])
}

func TestLoadFromPath_BadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url="), 0o600))
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_API_URL", "http://vite.example:9000")
	t.Setenv("RAGCHAT_STREAMING", "false")
	t.Setenv("RAGCHAT_RENDER", "PLAIN")
	t.Setenv("RAGCHAT_TOKEN", "env-token")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://vite.example:9000", cfg.API.BaseURL)
	assert.False(t, cfg.Chat.Streaming)
	assert.Equal(t, RenderPlain, cfg.Chat.Render)
	assert.Equal(t, "env-token", cfg.Session.Token)

	t.Setenv("RAGCHAT_API_URL", "http://primary.example")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://primary.example", cfg.API.BaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAGCHAT_DOTENV_PROBE=http://dotenv.example\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RAGCHAT_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "http://dotenv.example", os.Getenv("RAGCHAT_DOTENV_PROBE"))
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Chat.Streaming = false
	cfg.Session.Token = "secret"

	require.NoError(t, SaveTOML(cfg, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, loaded.Chat.Streaming)
	assert.Empty(t, loaded.Session.Token, "token is not persisted without remember")

	cfg.Session.Remember = true
	require.NoError(t, SaveTOML(cfg, path))
	loaded, err = LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.Session.Token)
}

func TestPath_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAGCHAT_CONFIG", "/tmp/custom.toml")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", p)
}

// =============================================================================
// WATCH TESTS
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, func(c *Config, err error) {
		if err == nil {
			changes <- c
		}
	}))

	cfg := Default()
	cfg.Chat.Streaming = false
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-changes:
		assert.False(t, got.Chat.Streaming)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config write")
	}
}
