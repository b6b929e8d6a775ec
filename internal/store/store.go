// Package store persists conversations in a local SQLite database. Records
// are JSON blobs keyed by conversation id; retention is bounded to the 100
// most recently updated records.
//
// The store is deliberately forgiving: read corruption yields empty
// results and write failures are logged, never returned. The in-memory
// conversation stays authoritative for the running session either way.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"clipforge/internal/content"
)

// Retention is the maximum number of conversations kept; the oldest by
// update time are evicted silently.
const Retention = 100

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at DESC);
`

// Store is a durable keyed collection of conversations.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// Open initializes the database at path, creating parent directories and
// the schema as needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetAll returns every stored conversation ordered by most recent update.
// Unreadable storage or corrupt rows degrade to fewer (or zero) results,
// never an error.
func (s *Store) GetAll() []*content.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT data FROM conversations ORDER BY updated_at DESC, rowid DESC")
	if err != nil {
		s.logger.Warn("failed to read conversations", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var out []*content.Conversation
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var conv content.Conversation
		if err := json.Unmarshal([]byte(data), &conv); err != nil {
			s.logger.Warn("skipping corrupt conversation record", zap.Error(err))
			continue
		}
		out = append(out, &conv)
	}
	return out
}

// GetByID looks up one conversation. A missing id reports ok=false.
func (s *Store) GetByID(id string) (*content.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRow("SELECT data FROM conversations WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("failed to read conversation", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	var conv content.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		s.logger.Warn("corrupt conversation record", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return &conv, true
}

// Save upserts the conversation and trims the collection to the retention
// bound. A fresh insert outranks an existing record with the same update
// timestamp (rowid breaks the tie), so a brand-new conversation always
// lists first. Persistence failures are logged, never returned.
func (s *Store) Save(conv *content.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(conv)
	if err != nil {
		s.logger.Error("failed to encode conversation", zap.String("id", conv.ID), zap.Error(err))
		return
	}

	_, err = s.db.Exec(`
		INSERT INTO conversations (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		conv.ID, string(data), conv.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to save conversation", zap.String("id", conv.ID), zap.Error(err))
		return
	}

	_, err = s.db.Exec(`
		DELETE FROM conversations WHERE rowid NOT IN (
			SELECT rowid FROM conversations ORDER BY updated_at DESC, rowid DESC LIMIT ?
		)`, Retention,
	)
	if err != nil {
		s.logger.Warn("failed to trim conversation retention", zap.Error(err))
	}
}

// Delete removes a conversation by id; absent ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM conversations WHERE id = ?", id); err != nil {
		s.logger.Warn("failed to delete conversation", zap.String("id", id), zap.Error(err))
	}
}

// Clear removes every stored conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM conversations"); err != nil {
		s.logger.Warn("failed to clear conversations", zap.Error(err))
	}
}
