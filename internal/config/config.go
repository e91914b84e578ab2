// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Render modes for bot answers.
const (
	RenderMarkdown = "markdown"
	RenderPlain    = "plain"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Chat    ChatConfig    `toml:"chat"`
	Reveal  RevealConfig  `toml:"reveal"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Session SessionConfig `toml:"session"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ChatConfig controls how answers are requested and shown.
type ChatConfig struct {
	Streaming     bool   `toml:"streaming"`
	Render        string `toml:"render"`
	FailureNotice string `toml:"failure_notice"`
}

// RevealConfig tunes the typewriter effect.
type RevealConfig struct {
	IntervalMs int `toml:"interval_ms"`
	MinRun     int `toml:"min_run"`
	MaxRun     int `toml:"max_run"`
	FrameMs    int `toml:"frame_ms"`
}

// StorageConfig controls the local conversation cache.
type StorageConfig struct {
	CachePath string `toml:"cache_path"`
	Disabled  bool   `toml:"disabled"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// SessionConfig stores credentials between runs when Remember is set.
type SessionConfig struct {
	Remember     bool   `toml:"remember"`
	Token        string `toml:"token,omitempty"`
	RefreshToken string `toml:"refresh_token,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Chat: ChatConfig{
			Streaming: true,
			Render:    RenderMarkdown,
		},
		Reveal: RevealConfig{
			IntervalMs: 20,
			MinRun:     2,
			MaxRun:     3,
			FrameMs:    16,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Timeout returns the non-streaming request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RevealInterval returns the minimum time between typewriter advances.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.Reveal.IntervalMs) * time.Millisecond
}

// FrameInterval returns the typewriter frame cadence.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Reveal.FrameMs) * time.Millisecond
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

// Path returns the config file path, honouring RAGCHAT_CONFIG.
func Path() (string, error) {
	if p := os.Getenv("RAGCHAT_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns the log file used when none is configured.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ragchat.log"), nil
}

// DefaultCachePath returns the cache database used when none is configured.
func DefaultCachePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads .env, the config file at Path and the environment.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the TOML file at path (if it exists) on top of the
// defaults, then applies environment overrides and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to Path.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with owner-only permissions. Credentials are
// only written when Session.Remember is set.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := cfg.Clone()
	if !out.Session.Remember {
		out.Session.Token = ""
		out.Session.RefreshToken = ""
	}

	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Fprintln(file, "# ragchat configuration file")
	fmt.Fprintln(file, "")
	if err := toml.NewEncoder(file).Encode(out); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS / ENV
// =============================================================================

// SetDefaults fills zero values left by a partial file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = d.API.TimeoutSeconds
	}
	if c.Chat.Render == "" {
		c.Chat.Render = d.Chat.Render
	}
	if c.Reveal.IntervalMs == 0 {
		c.Reveal.IntervalMs = d.Reveal.IntervalMs
	}
	if c.Reveal.MinRun == 0 {
		c.Reveal.MinRun = d.Reveal.MinRun
	}
	if c.Reveal.MaxRun == 0 {
		c.Reveal.MaxRun = d.Reveal.MaxRun
	}
	if c.Reveal.FrameMs == 0 {
		c.Reveal.FrameMs = d.Reveal.FrameMs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// ApplyEnvOverrides applies RAGCHAT_* variables.
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("RAGCHAT_API_URL"); u != "" {
		c.API.BaseURL = u
	} else if u := os.Getenv("VITE_API_URL"); u != "" {
		c.API.BaseURL = u
	}
	if tok := os.Getenv("RAGCHAT_TOKEN"); tok != "" {
		c.Session.Token = tok
	}
	if s := os.Getenv("RAGCHAT_STREAMING"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			c.Chat.Streaming = v
		}
	}
	if r := os.Getenv("RAGCHAT_RENDER"); r != "" {
		c.Chat.Render = strings.ToLower(r)
	}
	if l := os.Getenv("RAGCHAT_LOG_LEVEL"); l != "" {
		c.Logging.Level = strings.ToLower(l)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 1 || c.API.TimeoutSeconds > 600 {
		add("api.timeout_seconds", "must be between 1 and 600, got %d", c.API.TimeoutSeconds)
	}
	if c.Chat.Render != RenderMarkdown && c.Chat.Render != RenderPlain {
		add("chat.render", "must be %q or %q, got %q", RenderMarkdown, RenderPlain, c.Chat.Render)
	}
	if c.Reveal.IntervalMs < 1 || c.Reveal.IntervalMs > 1000 {
		add("reveal.interval_ms", "must be between 1 and 1000, got %d", c.Reveal.IntervalMs)
	}
	if c.Reveal.FrameMs < 1 || c.Reveal.FrameMs > 1000 {
		add("reveal.frame_ms", "must be between 1 and 1000, got %d", c.Reveal.FrameMs)
	}
	if c.Reveal.MinRun < 1 {
		add("reveal.min_run", "must be at least 1, got %d", c.Reveal.MinRun)
	}
	if c.Reveal.MaxRun < c.Reveal.MinRun {
		add("reveal.max_run", "must be at least min_run (%d), got %d", c.Reveal.MinRun, c.Reveal.MaxRun)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", "must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
