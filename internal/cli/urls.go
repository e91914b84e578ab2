// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/render"
	"github.com/rln-tomas/chatbot-rag-front/internal/ui/settings"
	"github.com/rln-tomas/chatbot-rag-front/internal/validate"
)

func newURLsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urls",
		Short: "Manage the URLs the assistant learns from",
	}

	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List URL configurations",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
			return listURLs(cmd.Context(), e, cmd.OutOrStdout(), page)
		}),
	}
	list.Flags().IntVarP(&page, "page", "p", 1, "page number")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "add URL",
			Short: "Add a URL configuration",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
				return addURL(cmd.Context(), e, cmd.OutOrStdout(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "scrape ID",
			Short: "Start scraping a URL configuration",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(opts, func(cmd *cobra.Command, e *env, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid configuration id %q", args[0])
				}
				return scrapeURL(cmd.Context(), e, cmd.OutOrStdout(), id)
			}),
		},
	)
	return cmd
}

func listURLs(ctx context.Context, e *env, w io.Writer, page int) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	page = max(page, 1)
	result, err := e.client.WithSession(sess).ListConfigs(ctx, page, settings.PageSize)
	if err != nil {
		return err
	}
	if len(result.Items) == 0 {
		fmt.Fprintln(w, "No URL configurations yet.")
		return nil
	}
	writeURLs(w, e, result, terminalWidth())
	return nil
}

func writeURLs(w io.Writer, e *env, p model.ConfigPage, width int) {
	urlWidth := max(width-8-2-12-2, 16)
	for _, c := range p.Items {
		fmt.Fprintf(w, "%-8d  %-12s  %s\n", c.ID, c.Status.Label(), render.Truncate(c.URL, urlWidth))
		if c.Status == model.StatusFailed && c.ErrorMessage != "" {
			fmt.Fprintf(w, "%-8s  %s\n", "", e.theme.Error.Render(c.ErrorMessage))
		}
	}
	pages := max((p.Total+settings.PageSize-1)/settings.PageSize, 1)
	fmt.Fprintln(w, e.theme.Muted.Render(fmt.Sprintf("Page %d of %d (%d total)", max(p.Page, 1), pages, p.Total)))
}

func addURL(ctx context.Context, e *env, w io.Writer, rawURL string) error {
	if err := validate.URL(rawURL); err != nil {
		return err
	}
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	created, err := e.client.WithSession(sess).CreateURLConfig(ctx, rawURL)
	if err != nil {
		return err
	}
	e.logger.Info("url config created", "id", created.ID)
	fmt.Fprintln(w, e.theme.Success.Render(fmt.Sprintf("URL added successfully (id %d)", created.ID)))
	return nil
}

func scrapeURL(ctx context.Context, e *env, w io.Writer, id int64) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	task, err := e.client.WithSession(sess).StartScraping(ctx, id)
	if err != nil {
		return err
	}
	e.logger.Info("scraping started", "config_id", id, "task_id", task)
	msg := "Scraping started"
	if task != "" {
		msg += " (task " + task + ")"
	}
	fmt.Fprintln(w, e.theme.Success.Render(msg))
	return nil
}
