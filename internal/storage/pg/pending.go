package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
)

func (s *Storage) AddPendingPost(ctx context.Context, post domain.PendingPost) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO pending_posts (id, forum_id, thread_id, type, title, body, author_id, author_name, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		post.Id, post.ForumId, post.ThreadId, post.Type, post.Title, post.Body,
		post.AuthorId, post.AuthorName, post.Status, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pending post: %w", err)
	}
	return nil
}

// ListPendingPosts returns only unreviewed entries, oldest first.
func (s *Storage) ListPendingPosts(ctx context.Context, forumId string) ([]domain.PendingPost, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, forum_id, thread_id, type, title, body, author_id, author_name, status, created_at, reviewed_at, reviewed_by
        FROM pending_posts
        WHERE forum_id = $1 AND status = 'pending'
        ORDER BY created_at`, forumId)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.PendingPost{}
	for rows.Next() {
		var p domain.PendingPost
		if err := rows.Scan(&p.Id, &p.ForumId, &p.ThreadId, &p.Type, &p.Title, &p.Body,
			&p.AuthorId, &p.AuthorName, &p.Status, &p.CreatedAt, &p.ReviewedAt, &p.ReviewedBy); err != nil {
			return nil, fmt.Errorf("failed to scan pending post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// ReviewPendingPost performs the pending -> approved|rejected transition.
// The status guard in the WHERE clause makes a second review a conflict
// rather than a silent overwrite.
func (s *Storage) ReviewPendingPost(ctx context.Context, postId, reviewerId string, status domain.PendingStatus) (*domain.PendingPost, error) {
	var p domain.PendingPost
	err := s.db.QueryRowContext(ctx, `
        UPDATE pending_posts
        SET status = $2, reviewed_at = $3, reviewed_by = $4
        WHERE id = $1 AND status = 'pending'
        RETURNING id, forum_id, thread_id, type, title, body, author_id, author_name, status, created_at, reviewed_at, reviewed_by`,
		postId, status, time.Now().UTC(), reviewerId,
	).Scan(&p.Id, &p.ForumId, &p.ThreadId, &p.Type, &p.Title, &p.Body,
		&p.AuthorId, &p.AuthorName, &p.Status, &p.CreatedAt, &p.ReviewedAt, &p.ReviewedBy)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to review pending post: %w", err)
	}

	// distinguish missing from already reviewed
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM pending_posts WHERE id = $1)", postId).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check pending post: %w", err)
	}
	if exists {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Pending post already reviewed", StatusCode: http.StatusConflict}
	}
	return nil, &internal_errors.ErrorWithStatusCode{Message: "Pending post not found", StatusCode: http.StatusNotFound}
}
