package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LusX0117/itemsharing/domain"
)

const itemColumns = `id, title, owner_user_id, owner_name, category, price,
	deposit, location, description, status, is_hidden, hidden_reason,
	created_at, updated_at`

const demandColumns = `id, title, publisher_user_id, publisher_name,
	category, budget, location, reward, description, status, is_hidden,
	hidden_reason, created_at, updated_at`

// CreateItemPost inserts the post and assigns its id.
func (s *SQLiteStore) CreateItemPost(ctx context.Context, post *domain.ItemPost) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO item_posts (title, owner_user_id, owner_name, category,
			price, deposit, location, description, status, is_hidden,
			hidden_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.Title, post.OwnerUserID, post.OwnerName, post.Category,
		post.Price, post.Deposit, post.Location, post.Description,
		post.Status, post.IsHidden, post.HiddenReason,
		post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert item post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("item post id: %w", err)
	}
	post.ID = id
	return nil
}

func scanItemPost(row rowScanner) (*domain.ItemPost, error) {
	var p domain.ItemPost
	err := row.Scan(&p.ID, &p.Title, &p.OwnerUserID, &p.OwnerName,
		&p.Category, &p.Price, &p.Deposit, &p.Location, &p.Description,
		&p.Status, &p.IsHidden, &p.HiddenReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetItemPost retrieves an item post by id.
func (s *SQLiteStore) GetItemPost(ctx context.Context, id int64) (*domain.ItemPost, error) {
	p, err := scanItemPost(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM item_posts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UpdateItemPost saves the full post row.
func (s *SQLiteStore) UpdateItemPost(ctx context.Context, post *domain.ItemPost) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE item_posts SET title = ?, category = ?, price = ?, deposit = ?,
			location = ?, description = ?, status = ?, is_hidden = ?,
			hidden_reason = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title, post.Category, post.Price, post.Deposit,
		post.Location, post.Description, post.Status, post.IsHidden,
		post.HiddenReason, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("update item post: %w", err)
	}
	return nil
}

// ListItemPosts lists item posts, newest activity first.
func (s *SQLiteStore) ListItemPosts(ctx context.Context, f PostFilter) ([]domain.ItemPost, error) {
	query := `SELECT ` + itemColumns + ` FROM item_posts`
	where, args := postFilterClause("owner_user_id", f)
	rows, err := s.db.QueryContext(ctx, query+where+` ORDER BY updated_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.ItemPost
	for rows.Next() {
		p, err := scanItemPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// CountItemPosts reports the number of item posts, used by seeding.
func (s *SQLiteStore) CountItemPosts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_posts`).Scan(&count)
	return count, err
}

// CreateDemandPost inserts the demand post.
func (s *SQLiteStore) CreateDemandPost(ctx context.Context, post *domain.DemandPost) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO demand_posts (`+demandColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.PublisherUserID, post.PublisherName,
		post.Category, post.Budget, post.Location, post.Reward,
		post.Description, post.Status, post.IsHidden, post.HiddenReason,
		post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert demand post: %w", err)
	}
	return nil
}

func scanDemandPost(row rowScanner) (*domain.DemandPost, error) {
	var p domain.DemandPost
	err := row.Scan(&p.ID, &p.Title, &p.PublisherUserID, &p.PublisherName,
		&p.Category, &p.Budget, &p.Location, &p.Reward, &p.Description,
		&p.Status, &p.IsHidden, &p.HiddenReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetDemandPost retrieves a demand post by id.
func (s *SQLiteStore) GetDemandPost(ctx context.Context, id string) (*domain.DemandPost, error) {
	p, err := scanDemandPost(s.db.QueryRowContext(ctx,
		`SELECT `+demandColumns+` FROM demand_posts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UpdateDemandPost saves the full post row.
func (s *SQLiteStore) UpdateDemandPost(ctx context.Context, post *domain.DemandPost) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE demand_posts SET title = ?, category = ?, budget = ?,
			location = ?, reward = ?, description = ?, status = ?,
			is_hidden = ?, hidden_reason = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title, post.Category, post.Budget, post.Location, post.Reward,
		post.Description, post.Status, post.IsHidden, post.HiddenReason,
		post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("update demand post: %w", err)
	}
	return nil
}

// ListDemandPosts lists demand posts, newest activity first.
func (s *SQLiteStore) ListDemandPosts(ctx context.Context, f PostFilter) ([]domain.DemandPost, error) {
	query := `SELECT ` + demandColumns + ` FROM demand_posts`
	where, args := postFilterClause("publisher_user_id", f)
	rows, err := s.db.QueryContext(ctx, query+where+` ORDER BY updated_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.DemandPost
	for rows.Next() {
		p, err := scanDemandPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func postFilterClause(ownerColumn string, f PostFilter) (string, []any) {
	var conds []string
	var args []any
	if f.VisibleOnly {
		conds = append(conds, "is_hidden = 0")
	}
	if f.OwnerUserID != "" {
		conds = append(conds, ownerColumn+" = ?")
		args = append(args, f.OwnerUserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}
