// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ragchat command line.
//
// Running ragchat with no command opens the full-screen client. The other
// commands script the same backend:
//
//	ragchat                         Open the TUI
//	ragchat chat                    Line-mode chat with typewriter output
//	ragchat login                   Sign in and remember the session
//	ragchat logout                  Forget the stored session
//	ragchat conversations list      List conversations (cached when offline)
//	ragchat conversations show ID   Print one conversation
//	ragchat conversations export ID Write a conversation to a file
//	ragchat conversations clear     Delete every conversation
//	ragchat urls list               List URL configurations
//	ragchat urls add URL            Add a URL configuration
//	ragchat urls scrape ID          Start scraping a configuration
//	ragchat version                 Print version information
//
// Global flags:
//
//	--config PATH   Config file (default ~/.ragchat/config.toml)
//	--api-url URL   Backend address, overrides the config file
//	--no-stream     Request whole answers instead of streaming
//	--plain         Render answers as plain text instead of Markdown
package cli
