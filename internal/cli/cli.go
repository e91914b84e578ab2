// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/config"
	"github.com/rln-tomas/chatbot-rag-front/internal/logging"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/storage"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/chat"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
	"github.com/rln-tomas/chatbot-rag-front/internal/validate"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var errNotLoggedIn = errors.New("not logged in, run `ragchat login` first")

// =============================================================================
// ROOT COMMAND
// =============================================================================

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	apiURL     string
	noStream   bool
	plain      bool
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		theme := styles.NewTheme()
		fmt.Fprintln(os.Stderr, theme.Error.Render("Error:"), describeError(err))
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ragchat",
		Short:         "Terminal client for the RAG chatbot",
		Long:          "Chat with the RAG backend, browse conversation history and manage the URLs it learns from.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.close()
			return runTUI(cmd.Context(), e)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.ragchat/config.toml)")
	pf.StringVar(&opts.apiURL, "api-url", "", "backend base URL")
	pf.BoolVar(&opts.noStream, "no-stream", false, "request whole answers instead of streaming")
	pf.BoolVar(&opts.plain, "plain", false, "render answers as plain text")

	root.AddCommand(
		newChatCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newConversationsCmd(opts),
		newURLsCmd(opts),
		newVersionCmd(),
	)
	return root
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// env is the state shared by every command once flags are parsed.
type env struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	closeLog func() error
	cache    *storage.Cache
	client   *backend.Client
	theme    *styles.Theme
}

func (o *rootOptions) setup() (*env, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	path := o.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}

	if o.apiURL != "" {
		if err := validate.URL(o.apiURL); err != nil {
			return nil, fmt.Errorf("--api-url: %w", err)
		}
		cfg.API.BaseURL = strings.TrimRight(o.apiURL, "/")
	}
	if o.noStream {
		cfg.Chat.Streaming = false
	}
	if o.plain {
		cfg.Chat.Render = config.RenderPlain
	}

	logPath := cfg.Logging.File
	if logPath == "" {
		if logPath, err = config.DefaultLogPath(); err != nil {
			return nil, err
		}
	}
	logger, closeLog, err := logging.Setup(logPath, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:      cfg,
		cfgPath:  path,
		logger:   logger,
		closeLog: closeLog,
		theme:    styles.NewTheme(),
		client: backend.NewClient(cfg.API.BaseURL, nil).
			WithTimeout(cfg.Timeout()).
			WithLogger(logger),
	}
	e.openCache()
	logger.Info("ragchat starting", "version", Version, "api", cfg.API.BaseURL, "streaming", cfg.Chat.Streaming)
	return e, nil
}

// openCache opens the conversation cache. A broken cache only costs the
// offline fallback, so failures are logged and ignored.
func (e *env) openCache() {
	if e.cfg.Storage.Disabled {
		return
	}
	path := e.cfg.Storage.CachePath
	if path == "" {
		p, err := config.DefaultCachePath()
		if err != nil {
			e.logger.Warn("no cache path", "error", err)
			return
		}
		path = p
	}
	c, err := storage.Open(path)
	if err != nil {
		e.logger.Warn("conversation cache unavailable", "path", path, "error", err)
		return
	}
	e.cache = c
}

// historyCache returns the cache as the chat view's interface, nil when
// there is none.
func (e *env) historyCache() chat.HistoryCache {
	if e.cache == nil {
		return nil
	}
	return e.cache
}

func (e *env) save(cfg *config.Config) error {
	return config.SaveTOML(cfg, e.cfgPath)
}

// storedSession returns the session from the config, or nil.
func (e *env) storedSession() *session.Session {
	if e.cfg.Session.Token == "" {
		return nil
	}
	return session.New(e.cfg.Session.Token, e.cfg.Session.RefreshToken, session.User{})
}

// requireSession returns a usable stored session.
func (e *env) requireSession() (*session.Session, error) {
	sess := e.storedSession()
	if sess == nil {
		return nil, errNotLoggedIn
	}
	if sess.Expired(timeNow()) {
		e.forget()
		return nil, fmt.Errorf("session expired: %w", errNotLoggedIn)
	}
	return sess, nil
}

// remember stores the session tokens in the config file.
func (e *env) remember(sess *session.Session) error {
	e.cfg.Session.Remember = true
	e.cfg.Session.Token = sess.Token()
	e.cfg.Session.RefreshToken = sess.RefreshToken()
	return e.save(e.cfg)
}

// forget removes stored tokens.
func (e *env) forget() {
	if e.cfg.Session.Token == "" && e.cfg.Session.RefreshToken == "" {
		return
	}
	e.cfg.Session.Token = ""
	e.cfg.Session.RefreshToken = ""
	if err := e.save(e.cfg); err != nil {
		e.logger.Error("failed to save config", "error", err)
	}
}

func (e *env) close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Warn("failed to close cache", "error", err)
		}
	}
	if e.closeLog != nil {
		_ = e.closeLog()
	}
}

// withEnv adapts a command body that needs the environment.
func withEnv(opts *rootOptions, fn func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := opts.setup()
		if err != nil {
			return err
		}
		defer e.close()
		return fn(cmd, e, args)
	}
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ragchat %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
}
