// Package cache keeps a local copy of transcript messages so history stays
// viewable without the platform.
package cache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fitpulse/companion/internal/domain"
)

// Store is the SQLite-backed message cache.
type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the cache database at dsn.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			conversation_id TEXT NOT NULL,
			id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT 'text',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (conversation_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// PutMessages upserts messages for a conversation. Streaming replaces a
// bot message's content, so the newest content wins on conflict.
func (s *Store) PutMessages(conversationID string, msgs []domain.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO messages
		(conversation_id, id, role, content, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, id) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range msgs {
		contentType := msg.ContentType
		if contentType == "" {
			contentType = "text"
		}
		if _, err := stmt.Exec(conversationID, msg.ID, msg.Role, msg.Content, contentType, msg.CreatedAt, msg.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert message %d: %w", msg.ID, err)
		}
	}
	return tx.Commit()
}

// ListMessages returns up to limit cached messages for a conversation,
// oldest first. limit <= 0 means no limit.
func (s *Store) ListMessages(conversationID string, limit int) ([]domain.Message, error) {
	query := `SELECT id, role, content, content_type, created_at, updated_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at, id`
	args := []interface{}{conversationID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.ContentType, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
