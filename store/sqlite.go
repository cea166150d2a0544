package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dsn and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			phone TEXT NOT NULL UNIQUE,
			nickname TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS item_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			owner_user_id TEXT NOT NULL,
			owner_name TEXT NOT NULL,
			category TEXT NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			deposit REAL NOT NULL DEFAULT 0,
			location TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL,
			is_hidden INTEGER NOT NULL DEFAULT 0,
			hidden_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS demand_posts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			publisher_user_id TEXT NOT NULL,
			publisher_name TEXT NOT NULL,
			category TEXT NOT NULL,
			budget REAL NOT NULL DEFAULT 0,
			location TEXT NOT NULL,
			reward TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			status TEXT NOT NULL,
			is_hidden INTEGER NOT NULL DEFAULT 0,
			hidden_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			item_id INTEGER NOT NULL,
			item_title TEXT NOT NULL,
			lender_user_id TEXT NOT NULL,
			lender_name TEXT NOT NULL,
			borrower_user_id TEXT NOT NULL,
			borrower_name TEXT NOT NULL,
			status TEXT NOT NULL,
			before_photos TEXT NOT NULL DEFAULT '[]',
			after_photos TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_triple
			ON sessions(item_id, lender_user_id, borrower_user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_lender ON sessions(lender_user_id, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_borrower ON sessions(borrower_user_id, updated_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			sender_user_id TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			text TEXT NOT NULL,
			time DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id)`,
		`CREATE TABLE IF NOT EXISTS read_cursors (
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			last_read_message_id INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, user_id),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			session_id TEXT NOT NULL,
			rater_user_id TEXT NOT NULL,
			target_user_id TEXT NOT NULL,
			score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			PRIMARY KEY (session_id, rater_user_id),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_target ON ratings(target_user_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, rolling back on error. Status
// updates and their system messages go through here so the two writes
// commit as one logical unit.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func marshalPhotos(photos []string) string {
	if photos == nil {
		photos = []string{}
	}
	b, _ := json.Marshal(photos)
	return string(b)
}

func unmarshalPhotos(raw string) []string {
	var photos []string
	if err := json.Unmarshal([]byte(raw), &photos); err != nil || photos == nil {
		return []string{}
	}
	return photos
}
