package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LusX0117/itemsharing/domain"
)

// AppendMessage inserts the message, assigns its monotonic id and touches
// the session's updatedAt, all in one transaction.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, sender_user_id, sender_name, text, time)
			 VALUES (?, ?, ?, ?, ?)`,
			msg.SessionID, msg.SenderUserID, msg.SenderName, msg.Text, msg.Time)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("message id: %w", err)
		}
		msg.ID = id

		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET updated_at = ? WHERE id = ?`,
			msg.Time, msg.SessionID)
		if err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		return nil
	})
}

// ListMessages returns a session's messages ordered by id ascending,
// optionally only those after afterID.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, afterID int64) ([]domain.Message, error) {
	query := `SELECT id, session_id, sender_user_id, sender_name, text, time
		FROM messages WHERE session_id = ?`
	args := []any{sessionID}
	if afterID > 0 {
		query += ` AND id > ?`
		args = append(args, afterID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.SenderUserID,
			&msg.SenderName, &msg.Text, &msg.Time); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkRead advances the read cursor for (session, user). The stored value
// only ever grows, so duplicate or out-of-order updates from rapid polling
// are idempotent.
func (s *SQLiteStore) MarkRead(ctx context.Context, sessionID, userID string, lastReadMessageID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO read_cursors (session_id, user_id, last_read_message_id)
		 VALUES (?, ?, ?)
		 ON CONFLICT(session_id, user_id) DO UPDATE SET
			last_read_message_id = MAX(last_read_message_id, excluded.last_read_message_id)`,
		sessionID, userID, lastReadMessageID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// GetReadCursor returns the user's cursor for the session, 0 when unset.
func (s *SQLiteStore) GetReadCursor(ctx context.Context, sessionID, userID string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_read_message_id FROM read_cursors WHERE session_id = ? AND user_id = ?`,
		sessionID, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// UnreadCount counts messages past the user's cursor, excluding the user's
// own messages and system messages.
func (s *SQLiteStore) UnreadCount(ctx context.Context, sessionID, userID string) (int64, error) {
	cursor, err := s.GetReadCursor(ctx, sessionID, userID)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE session_id = ? AND id > ? AND sender_user_id NOT IN (?, ?)`,
		sessionID, cursor, userID, domain.SystemSenderID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
