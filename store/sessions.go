package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LusX0117/itemsharing/domain"
)

const sessionColumns = `id, item_id, item_title, lender_user_id, lender_name,
	borrower_user_id, borrower_name, status, before_photos, after_photos,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var sess domain.Session
	var before, after string
	err := row.Scan(&sess.ID, &sess.ItemID, &sess.ItemTitle,
		&sess.LenderUserID, &sess.LenderName,
		&sess.BorrowerUserID, &sess.BorrowerName,
		&sess.Status, &before, &after,
		&sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sess.BeforePhotos = unmarshalPhotos(before)
	sess.AfterPhotos = unmarshalPhotos(after)
	return &sess, nil
}

// CreateSession inserts the session together with its initial system
// message in one transaction.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session, initialSystemText string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (`+sessionColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			session.ID, session.ItemID, session.ItemTitle,
			session.LenderUserID, session.LenderName,
			session.BorrowerUserID, session.BorrowerName,
			session.Status,
			marshalPhotos(session.BeforePhotos), marshalPhotos(session.AfterPhotos),
			session.CreatedAt, session.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		if initialSystemText == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, sender_user_id, sender_name, text, time)
			 VALUES (?, ?, ?, ?, ?)`,
			session.ID, domain.SystemSenderID, domain.SystemSenderName,
			initialSystemText, session.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert initial system message: %w", err)
		}
		return nil
	})
}

// GetSession retrieves a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// FindActiveSession returns the newest non-terminal session for the
// (item, lender, borrower) triple, or nil when none exists. Session start
// reuses this record instead of creating a duplicate.
func (s *SQLiteStore) FindActiveSession(ctx context.Context, itemID int64, lenderUserID, borrowerUserID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE item_id = ? AND lender_user_id = ? AND borrower_user_id = ?
		   AND status NOT IN (?, ?, ?)
		 ORDER BY updated_at DESC LIMIT 1`,
		itemID, lenderUserID, borrowerUserID,
		domain.StatusCompleted, domain.StatusRejected, domain.StatusCancelled)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// ListSessionsForUser lists all sessions where userID is lender or
// borrower, newest activity first.
func (s *SQLiteStore) ListSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE lender_user_id = ? OR borrower_user_id = ?
		 ORDER BY updated_at DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// UpdateSessionPhotos replaces both photo lists and returns the updated
// session. Lists are capped before they get here; a failed write leaves
// the stored lists untouched.
func (s *SQLiteStore) UpdateSessionPhotos(ctx context.Context, id string, beforePhotos, afterPhotos []string) (*domain.Session, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET before_photos = ?, after_photos = ?, updated_at = ? WHERE id = ?`,
		marshalPhotos(beforePhotos), marshalPhotos(afterPhotos), time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("update session photos: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetSession(ctx, id)
}

// ApplyTransition commits a status transition: the status/updatedAt update
// and exactly one system message are written in a single transaction. The
// update is guarded on the expected status set so that a concurrent
// transition racing on stale state fails with invalid_status_transition
// instead of clobbering the winner.
func (s *SQLiteStore) ApplyTransition(ctx context.Context, sessionID string, expected []domain.SessionStatus, next domain.SessionStatus, systemText string) (*domain.Session, *domain.Message, error) {
	now := time.Now()
	msg := &domain.Message{
		SessionID:    sessionID,
		SenderUserID: domain.SystemSenderID,
		SenderName:   domain.SystemSenderName,
		Text:         systemText,
		Time:         now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		placeholders := ""
		args := []any{next, now, sessionID}
		for i, st := range expected {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
			args = append(args, st)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET status = ?, updated_at = ?
			 WHERE id = ? AND status IN (`+placeholders+`)`, args...)
		if err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Either the session vanished or its status moved on under us.
			return domain.ErrInvalidStatusTransition
		}

		ins, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, sender_user_id, sender_name, text, time)
			 VALUES (?, ?, ?, ?, ?)`,
			msg.SessionID, msg.SenderUserID, msg.SenderName, msg.Text, msg.Time)
		if err != nil {
			return fmt.Errorf("insert system message: %w", err)
		}
		id, err := ins.LastInsertId()
		if err != nil {
			return fmt.Errorf("system message id: %w", err)
		}
		msg.ID = id
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess, msg, nil
}
