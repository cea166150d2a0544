package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LusX0117/itemsharing/domain"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// CreateRating inserts the rating. A second rating from the same rater for
// the same session violates the primary key and fails with
// rating_already_submitted.
func (s *SQLiteStore) CreateRating(ctx context.Context, rating *domain.Rating) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (session_id, rater_user_id, target_user_id, score, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rating.SessionID, rating.RaterUserID, rating.TargetUserID,
		rating.Score, rating.Comment, rating.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return domain.ErrRatingAlreadySubmitted
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

// GetRating returns the rating a rater submitted for a session, nil when
// none exists.
func (s *SQLiteStore) GetRating(ctx context.Context, sessionID, raterUserID string) (*domain.Rating, error) {
	var r domain.Rating
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, rater_user_id, target_user_id, score, comment, created_at
		 FROM ratings WHERE session_id = ? AND rater_user_id = ?`,
		sessionID, raterUserID).Scan(&r.SessionID, &r.RaterUserID,
		&r.TargetUserID, &r.Score, &r.Comment, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RatingSummary aggregates all ratings received by targetUserID into the
// credit summary shown on their profile.
func (s *SQLiteStore) RatingSummary(ctx context.Context, targetUserID string) (*domain.RatingSummary, error) {
	summary := &domain.RatingSummary{TargetUserID: targetUserID}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings WHERE target_user_id = ?`,
		targetUserID).Scan(&avg, &summary.RatingCount)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		summary.AverageScore = avg.Float64
	}
	return summary, nil
}
