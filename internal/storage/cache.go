// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rln-tomas/chatbot-rag-front/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	account       TEXT    NOT NULL,
	id            INTEGER NOT NULL,
	position      INTEGER NOT NULL,
	title         TEXT    NOT NULL DEFAULT '',
	message_count INTEGER NOT NULL DEFAULT 0,
	updated_at    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (account, id)
);
CREATE INDEX IF NOT EXISTS idx_conversations_position ON conversations(account, position);

CREATE TABLE IF NOT EXISTS sync_state (
	account   TEXT PRIMARY KEY,
	synced_at INTEGER NOT NULL
);
`

// Cache is the conversation list cache. It is safe for concurrent use.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the cache database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ReplaceConversations stores list as the account's complete history,
// keeping its order.
func (c *Cache) ReplaceConversations(ctx context.Context, account string, list []model.ConversationSummary) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE account = ?`, account); err != nil {
		return fmt.Errorf("clear conversations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO conversations (account, id, position, title, message_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range list {
		var updated int64
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.UnixMilli()
		}
		if _, err := stmt.ExecContext(ctx, account, s.ID, i, s.Title, s.MessageCount, updated); err != nil {
			return fmt.Errorf("insert conversation %d: %w", s.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sync_state (account, synced_at) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET synced_at = excluded.synced_at`,
		account, c.now().UnixMilli()); err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	return tx.Commit()
}

// Conversations returns the cached history of account and when it was last
// synced. A never-synced account yields an empty list and a zero time.
func (c *Cache) Conversations(ctx context.Context, account string) ([]model.ConversationSummary, time.Time, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, title, message_count, updated_at
		FROM conversations WHERE account = ? ORDER BY position`, account)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var list []model.ConversationSummary
	for rows.Next() {
		var (
			s       model.ConversationSummary
			updated int64
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.MessageCount, &updated); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan conversation: %w", err)
		}
		if updated != 0 {
			s.UpdatedAt = time.UnixMilli(updated)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	var synced int64
	err = c.db.QueryRowContext(ctx, `SELECT synced_at FROM sync_state WHERE account = ?`, account).Scan(&synced)
	switch {
	case err == sql.ErrNoRows:
		return list, time.Time{}, nil
	case err != nil:
		return nil, time.Time{}, fmt.Errorf("query sync state: %w", err)
	}
	return list, time.UnixMilli(synced), nil
}

// ClearConversations forgets the account's cached history.
func (c *Cache) ClearConversations(ctx context.Context, account string) error {
	return c.ReplaceConversations(ctx, account, nil)
}
