// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles loading, saving and watching the client's
// configuration.
//
// Configuration lives in ~/.ragchat/config.toml. Values are resolved in
// this order, later wins:
//
//  1. Built-in defaults (Default)
//  2. The TOML file
//  3. Environment variables, including those from a .env file in the
//     working directory
//
// # Environment Variables
//
//   - RAGCHAT_CONFIG: alternative config file path
//   - RAGCHAT_API_URL (or VITE_API_URL): backend base URL
//   - RAGCHAT_TOKEN: access token for a pre-authenticated session
//   - RAGCHAT_STREAMING: "true"/"false"
//   - RAGCHAT_RENDER: "markdown" or "plain"
//   - RAGCHAT_LOG_LEVEL: debug, info, warn or error
//
// Watch reports edits to the file so a running TUI can pick up changes
// without a restart.
package config
