// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal implements the typewriter effect for bot answers.
//
// A Revealer tracks a target text and a displayed prefix of it. Each frame
// it advances the prefix by a short random run of runes, at most once per
// interval, until the prefix catches up. The target may grow at any time
// (new stream fragments), and it may shrink, in which case the displayed
// prefix is cut down at once.
//
// The engine owns no goroutine or timer. Callers drive it with frames: a
// Bubble Tea model turns the schedule flag into a tea.Tick, the line REPL
// uses a time.Ticker. At most one frame is outstanding at a time, and no
// frame is requested once the prefix equals the target.
package reveal
