// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/chatflow"
	"github.com/rln-tomas/chatbot-rag-front/internal/config"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/reveal"
	"github.com/rln-tomas/chatbot-rag-front/internal/session"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/styles"
	"github.com/rln-tomas/chatbot-rag-front/internal/validate"
)

const (
	historyFileName = "chat_history"
	chatEventBuffer = 64
)

var errSessionEnded = errors.New("session expired")

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Chat with the backend from a plain prompt. Answers are typed out as they
stream in. Commands: /new starts a new conversation, /quit exits.
Ctrl+C stops the current answer; Ctrl+D exits.`,
		Args: cobra.NoArgs,
		RunE: withEnv(opts, runChat),
	}
}

func runChat(cmd *cobra.Command, e *env, args []string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if dir, err := config.ConfigDir(); err == nil {
		historyPath := filepath.Join(dir, historyFileName)
		loadHistory(line, historyPath)
		defer saveHistory(line, historyPath)
	}

	out := cmd.OutOrStdout()
	sess, err := e.requireSession()
	if err != nil {
		fmt.Fprintln(out, e.theme.Muted.Render("Sign in to start chatting."))
		sess, err = promptLogin(cmd.Context(), e.client, linePrompter{line: line, out: out}, out, "")
		if errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if e.cfg.Session.Remember {
			if err := e.remember(sess); err != nil {
				e.logger.Error("failed to save config", "error", err)
			}
		}
	}

	r := newREPL(e, sess, out)
	fmt.Fprintf(out, "%s %s\n\n", e.theme.Title.Render("RAG Chat"),
		e.theme.Muted.Render("Hello, "+sess.User().DisplayName()+"! /new starts over, /quit exits."))

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or closed stdin.
			fmt.Fprintln(out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch strings.ToLower(input) {
		case "/quit", "/q", "/exit", "exit", "quit":
			return nil
		case "/new", "/n":
			r.reset()
			fmt.Fprintln(out, e.theme.Muted.Render("New conversation."))
			continue
		case "/help", "/h":
			fmt.Fprintln(out, e.theme.Muted.Render("/new  start a new conversation\n/quit exit\nCtrl+C stops an answer"))
			continue
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		err = r.ask(ctx, input)
		stop()
		if errors.Is(err, errSessionEnded) {
			e.forget()
			return fmt.Errorf("%w, run `ragchat login`", err)
		}
		if err != nil {
			fmt.Fprintln(out, e.theme.Error.Render(err.Error()))
		}
	}
}

func loadHistory(line *liner.State, path string) {
	if f, err := os.Open(path); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

// =============================================================================
// REPL
// =============================================================================

// repl is one line-mode conversation.
type repl struct {
	runner       *chatflow.Runner
	transcript   *model.Transcript
	conversation int64

	out     io.Writer
	theme   *styles.Theme
	frame   time.Duration
	options []reveal.Option
	stream  func() bool
}

func newREPL(e *env, sess *session.Session, out io.Writer) *repl {
	streaming := e.cfg.Chat.Streaming
	stream := func() bool { return streaming }
	return &repl{
		runner: chatflow.NewRunner(e.client.WithSession(sess), sess, stream,
			chatflow.WithFailureNotice(e.cfg.Chat.FailureNotice),
			chatflow.WithLogger(e.logger)),
		transcript: model.NewTranscript(),
		out:        out,
		theme:      e.theme,
		frame:      e.cfg.FrameInterval(),
		options: []reveal.Option{
			reveal.WithInterval(e.cfg.RevealInterval()),
			reveal.WithRunLength(e.cfg.Reveal.MinRun, e.cfg.Reveal.MaxRun),
		},
		stream: stream,
	}
}

func (r *repl) reset() {
	r.transcript.Clear()
	r.conversation = 0
}

// ask submits text and types the answer out. It returns when the answer is
// fully shown, or when ctx is cancelled.
func (r *repl) ask(ctx context.Context, text string) error {
	text, err := validate.Message(text)
	if err != nil {
		return err
	}
	r.transcript.AddUser(text)
	bot := r.transcript.AddBotPlaceholder()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan chatflow.Event, chatEventBuffer)
	req := chatflow.Request{MessageID: bot.ID, Text: text, ConversationID: r.conversation}
	go func() {
		defer close(events)
		r.runner.Run(ctx, req, chatflow.NewChanSink(ctx, events))
	}()

	rev := reveal.New(r.options...)
	defer rev.Dispose()
	rev.SetTarget("", true)

	fmt.Fprint(r.out, r.theme.BotLabel.Render("bot>")+" ")
	printed := 0
	ticker := time.NewTicker(r.frame)
	defer ticker.Stop()

	settled := false
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				if !settled {
					// Cancelled before the answer settled: show what arrived.
					rev.Finish()
					r.flush(rev, &printed)
					fmt.Fprintln(r.out, " "+r.theme.Muted.Render("(stopped)"))
					r.transcript.SetText(bot.ID, rev.Target())
					return nil
				}
				continue
			}
			switch ev.Kind {
			case chatflow.EventText:
				r.transcript.SetText(bot.ID, ev.Text)
				rev.SetTarget(ev.Text, true)
			case chatflow.EventConversationID:
				if r.conversation == 0 {
					r.conversation = ev.ConversationID
				}
			case chatflow.EventDone:
				settled = true
				if ev.Err != nil {
					return r.fail(rev, &printed, bot.ID, ev)
				}
				r.transcript.SetText(bot.ID, ev.Text)
				rev.SetTarget(ev.Text, false)
				if !r.stream() {
					rev.Finish()
				}
			}

		case now := <-ticker.C:
			rev.Frame(now)
			r.flush(rev, &printed)
		}

		if settled && !rev.Pending() {
			r.flush(rev, &printed)
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out)
			return nil
		}
	}
}

// flush writes the part of the revealed text not yet printed.
func (r *repl) flush(rev *reveal.Revealer, printed *int) {
	shown := []rune(rev.Displayed())
	if len(shown) > *printed {
		fmt.Fprint(r.out, string(shown[*printed:]))
		*printed = len(shown)
	}
}

func (r *repl) fail(rev *reveal.Revealer, printed *int, id string, ev chatflow.Event) error {
	r.flush(rev, printed)
	if *printed > 0 {
		fmt.Fprintln(r.out)
	}
	if apierr.IsAuthExpired(ev.Err) {
		fmt.Fprintln(r.out)
		return errSessionEnded
	}
	r.transcript.SetText(id, ev.Text)
	fmt.Fprintln(r.out, r.theme.Error.Render(ev.Text))
	fmt.Fprintln(r.out)
	return nil
}
