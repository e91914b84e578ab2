// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the credentials of the signed-in user.
//
// A Session is created at login (or from a stored token) and handed
// explicitly to the backend client and the chat runner; there is no
// process-wide store. Logout clears the tokens and runs the registered
// logout callbacks once, which is how a 401/403 from any request sends
// the UI back to the login view.
//
//	sess := session.New(resp.AccessToken, resp.RefreshToken, resp.User)
//	sess.OnLogout(func() { program.Send(loggedOutMsg{}) })
//	client := backend.NewClient(baseURL, sess)
package session
