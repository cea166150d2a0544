package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LusX0117/itemsharing/domain"
)

// CreateUser inserts a new user with their password hash.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, phone, nickname, password_hash, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Phone, user.Nickname, passwordHash, user.IsAdmin, time.Now())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpsertUser inserts or refreshes a user record, used for seed accounts.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, phone, nickname, password_hash, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			phone = excluded.phone,
			nickname = excluded.nickname,
			password_hash = excluded.password_hash,
			is_admin = excluded.is_admin`,
		user.ID, user.Phone, user.Nickname, passwordHash, user.IsAdmin, time.Now())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, phone, nickname, is_admin FROM users WHERE id = ?`,
		id).Scan(&user.ID, &user.Phone, &user.Nickname, &user.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByPhone retrieves a user and their password hash by phone number.
func (s *SQLiteStore) GetUserByPhone(ctx context.Context, phone string) (*domain.User, string, error) {
	var user domain.User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, phone, nickname, password_hash, is_admin FROM users WHERE phone = ?`,
		phone).Scan(&user.ID, &user.Phone, &user.Nickname, &hash, &user.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &user, hash, nil
}
