// Package cache persists the last applied conversation and message snapshots
// in a local sqlite database. A restart or a portal outage renders from here
// until live data arrives; the cache is never authoritative.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/logging"
)

// Store implements chat.SnapshotCache on sqlite. Rows are whole JSON
// snapshots keyed by conversation; the schema stays trivial because reads
// always want the full sequence back.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open creates or opens the snapshot database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to cache database: %w", err)
	}

	store := &Store{db: db, logger: logging.Component("cache")}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversation_snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL,
			saved_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS message_snapshots (
			conversation_id INTEGER PRIMARY KEY,
			payload TEXT NOT NULL,
			saved_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize cache schema: %w", err)
		}
	}
	return nil
}

// SaveConversations implements chat.SnapshotCache.
func (s *Store) SaveConversations(ctx context.Context, conversations []chat.Conversation) error {
	payload, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("encode conversation snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_snapshot (id, payload, saved_at)
		VALUES (1, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, string(payload))
	if err != nil {
		return fmt.Errorf("write conversation snapshot: %w", err)
	}
	return nil
}

// Conversations implements chat.SnapshotCache. An empty cache returns an
// empty slice, not an error.
func (s *Store) Conversations(ctx context.Context) ([]chat.Conversation, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM conversation_snapshot WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read conversation snapshot: %w", err)
	}
	var conversations []chat.Conversation
	if err := json.Unmarshal([]byte(payload), &conversations); err != nil {
		return nil, fmt.Errorf("decode conversation snapshot: %w", err)
	}
	return conversations, nil
}

// SaveMessages implements chat.SnapshotCache.
func (s *Store) SaveMessages(ctx context.Context, conversationID int64, messages []chat.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode message snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO message_snapshots (conversation_id, payload, saved_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(conversation_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, conversationID, string(payload))
	if err != nil {
		return fmt.Errorf("write message snapshot: %w", err)
	}
	return nil
}

// Messages implements chat.SnapshotCache.
func (s *Store) Messages(ctx context.Context, conversationID int64) ([]chat.Message, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM message_snapshots WHERE conversation_id = ?`, conversationID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read message snapshot: %w", err)
	}
	var messages []chat.Message
	if err := json.Unmarshal([]byte(payload), &messages); err != nil {
		return nil, fmt.Errorf("decode message snapshot: %w", err)
	}
	return messages, nil
}

// AllMessages returns every cached message across conversations, for the
// offline history view.
func (s *Store) AllMessages(ctx context.Context) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM message_snapshots ORDER BY conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("read message snapshots: %w", err)
	}
	defer rows.Close()

	var all []chat.Message
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan message snapshot: %w", err)
		}
		var messages []chat.Message
		if err := json.Unmarshal([]byte(payload), &messages); err != nil {
			s.logger.Warn().Err(err).Msg("skipping undecodable cached snapshot")
			continue
		}
		all = append(all, messages...)
	}
	return all, rows.Err()
}
