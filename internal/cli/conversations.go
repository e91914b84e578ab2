// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/rln-tomas/chatbot-rag-front/internal/apierr"
	"github.com/rln-tomas/chatbot-rag-front/internal/backend"
	"github.com/rln-tomas/chatbot-rag-front/internal/export"
	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/render"
)

func newConversationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "List, show and delete conversations",
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every conversation",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
			if !yes && !confirm(cmd.OutOrStdout(), "Delete all conversations? [y/N] ") {
				return nil
			}
			return clearConversations(cmd.Context(), e, cmd.OutOrStdout())
		}),
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	var format, outputDir string
	exportCmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a conversation to a Markdown or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid conversation id %q", args[0])
			}
			return exportConversation(cmd.Context(), e, cmd.OutOrStdout(), id, format, outputDir)
		}),
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "md or json")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List conversations",
			Args:  cobra.NoArgs,
			RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
				return listConversations(cmd.Context(), e, cmd.OutOrStdout())
			}),
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Print one conversation",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid conversation id %q", args[0])
				}
				return showConversation(cmd.Context(), e, cmd.OutOrStdout(), id)
			}),
		},
		exportCmd,
		clearCmd,
	)
	return cmd
}

func listConversations(ctx context.Context, e *env, w io.Writer) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	account := sess.User().Email

	list, err := e.client.WithSession(sess).ListConversations(ctx)
	switch {
	case err == nil:
		if e.cache != nil {
			if cerr := e.cache.ReplaceConversations(ctx, account, list); cerr != nil {
				e.logger.Warn("failed to cache conversations", "error", cerr)
			}
		}
	case apierr.IsAuthExpired(err) || e.cache == nil:
		return err
	default:
		cached, syncedAt, cerr := e.cache.Conversations(ctx, account)
		if cerr != nil || syncedAt.IsZero() {
			return err
		}
		e.logger.Warn("showing cached conversations", "error", err)
		fmt.Fprintln(w, e.theme.Muted.Render(fmt.Sprintf("Offline, showing conversations cached %s.",
			model.RelativeTime(syncedAt, timeNow()))))
		list = cached
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No conversations yet.")
		return nil
	}
	writeConversations(w, list, terminalWidth())
	return nil
}

// writeConversations prints one row per conversation, fitted to width.
func writeConversations(w io.Writer, list []model.ConversationSummary, width int) {
	now := timeNow()
	const fixed = 8 + 2 + 10 + 2 + 12
	titleWidth := max(width-fixed, 16)
	for _, c := range list {
		title := render.Truncate(c.DisplayTitle(), titleWidth)
		fmt.Fprintf(w, "%-8d  %s%s  %-10s  %s\n",
			c.ID,
			title, strings.Repeat(" ", max(titleWidth-runewidth.StringWidth(title), 0)),
			fmt.Sprintf("%d msgs", c.MessageCount),
			model.RelativeTime(c.UpdatedAt, now))
	}
}

func showConversation(ctx context.Context, e *env, w io.Writer, id int64) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	conv, err := e.client.WithSession(sess).GetConversation(ctx, id)
	if err != nil {
		return err
	}
	writeConversation(w, e, conv, terminalWidth())
	return nil
}

func writeConversation(w io.Writer, e *env, conv *backend.Conversation, width int) {
	if conv.Title != "" {
		fmt.Fprintln(w, e.theme.Title.Render(conv.Title))
		fmt.Fprintln(w)
	}
	strategy := render.New(e.cfg.Chat.Render, e.theme.IsDark)
	for _, msg := range conv.Messages {
		if msg.IsUser() {
			fmt.Fprintln(w, e.theme.UserLabel.Render(msg.Sender.DisplayName()))
			fmt.Fprintln(w, render.Plain{}.Render(msg.Text, width))
		} else {
			fmt.Fprintln(w, e.theme.BotLabel.Render(msg.Sender.DisplayName()))
			fmt.Fprintln(w, strings.TrimRight(strategy.Render(msg.Text, width), "\n"))
		}
		fmt.Fprintln(w)
	}
}

func exportConversation(ctx context.Context, e *env, w io.Writer, id int64, format, dir string) error {
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	conv, err := e.client.WithSession(sess).GetConversation(ctx, id)
	if err != nil {
		return err
	}
	path, err := export.ToFile(conv, exporter, opts)
	if err != nil {
		return err
	}
	e.logger.Info("conversation exported", "id", id, "path", path)
	fmt.Fprintln(w, e.theme.Success.Render("Exported to "+path))
	return nil
}

func clearConversations(ctx context.Context, e *env, w io.Writer) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	n, err := e.client.WithSession(sess).DeleteAllConversations(ctx)
	if err != nil {
		return err
	}
	if e.cache != nil {
		if err := e.cache.ClearConversations(ctx, sess.User().Email); err != nil {
			e.logger.Warn("failed to clear cache", "error", err)
		}
	}
	fmt.Fprintln(w, e.theme.Success.Render(fmt.Sprintf("Deleted %d conversations", n)))
	return nil
}

// confirm asks a yes/no question on the terminal.
func confirm(w io.Writer, question string) bool {
	line := liner.NewLiner()
	defer line.Close()
	answer, err := line.Prompt(question)
	if err != nil {
		fmt.Fprintln(w)
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
