package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
)

const uniqueViolation = "23505"

const forumColumns = `id, name, slug, description, icon, is_public, owner_id, member_count, thread_count, settings, created_at, updated_at`

// CreateForum inserts the forum row and its owner membership in one
// transaction, so a forum can never exist without exactly one owner.
func (s *Storage) CreateForum(ctx context.Context, forum domain.Forum, owner domain.ForumMember) error {
	settings, err := json.Marshal(forum.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	_, err = tx.ExecContext(ctx, `
        INSERT INTO forums (id, name, slug, description, icon, is_public, owner_id, member_count, thread_count, settings, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)`,
		forum.Id, forum.Name, forum.Slug, forum.Description, forum.Icon,
		forum.IsPublic, forum.OwnerId, forum.MemberCount, settings, forum.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return &internal_errors.ErrorWithStatusCode{Message: "This URL is already taken", StatusCode: http.StatusBadRequest}
		}
		return fmt.Errorf("failed to insert forum: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO forum_members (id, forum_id, user_id, role, joined_at)
        VALUES ($1, $2, $3, $4, $5)`,
		owner.Id, owner.ForumId, owner.UserId, owner.Role, owner.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Storage) GetForum(ctx context.Context, id string) (*domain.Forum, error) {
	return s.getForumBy(ctx, "id", id)
}

func (s *Storage) GetForumBySlug(ctx context.Context, slug string) (*domain.Forum, error) {
	return s.getForumBy(ctx, "slug", slug)
}

func (s *Storage) getForumBy(ctx context.Context, column, value string) (*domain.Forum, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM forums WHERE %s = $1", forumColumns, column), value)
	forum, err := scanForum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &internal_errors.ErrorWithStatusCode{Message: "Forum not found", StatusCode: http.StatusNotFound}
		}
		return nil, fmt.Errorf("failed to get forum: %w", err)
	}
	return forum, nil
}

func (s *Storage) ListForums(ctx context.Context, publicOnly bool) ([]domain.Forum, error) {
	query := fmt.Sprintf("SELECT %s FROM forums ORDER BY member_count DESC, created_at DESC", forumColumns)
	if publicOnly {
		query = fmt.Sprintf("SELECT %s FROM forums WHERE is_public ORDER BY member_count DESC, created_at DESC", forumColumns)
	}
	return s.queryForums(ctx, query)
}

func (s *Storage) ListForumsByOwner(ctx context.Context, ownerId string) ([]domain.Forum, error) {
	return s.queryForums(ctx,
		fmt.Sprintf("SELECT %s FROM forums WHERE owner_id = $1 ORDER BY created_at", forumColumns), ownerId)
}

func (s *Storage) queryForums(ctx context.Context, query string, args ...any) ([]domain.Forum, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list forums: %w", err)
	}
	defer rows.Close()

	forums := []domain.Forum{}
	for rows.Next() {
		forum, err := scanForum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forum: %w", err)
		}
		forums = append(forums, *forum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return forums, nil
}

func (s *Storage) UpdateForum(ctx context.Context, forum domain.Forum) (*domain.Forum, error) {
	settings, err := json.Marshal(forum.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
        UPDATE forums
        SET name = $2, description = $3, icon = $4, is_public = $5, settings = $6, updated_at = $7
        WHERE id = $1`,
		forum.Id, forum.Name, forum.Description, forum.Icon, forum.IsPublic, settings, forum.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update forum: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Forum not found", StatusCode: http.StatusNotFound}
	}
	return &forum, nil
}

// DeleteForum cascades memberships via the FK. Pending posts keep their
// rows so the moderation history is not silently erased.
func (s *Storage) DeleteForum(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM forums WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete forum: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Forum not found", StatusCode: http.StatusNotFound}
	}
	return nil
}

func (s *Storage) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM forums WHERE slug = $1)", slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// AdjustThreadCount bumps the denormalized counter, floored at zero.
func (s *Storage) AdjustThreadCount(ctx context.Context, forumId string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE forums SET thread_count = GREATEST(thread_count + $2, 0) WHERE id = $1", forumId, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust thread count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Forum not found", StatusCode: http.StatusNotFound}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForum(row rowScanner) (*domain.Forum, error) {
	var forum domain.Forum
	var settings []byte
	err := row.Scan(
		&forum.Id, &forum.Name, &forum.Slug, &forum.Description, &forum.Icon,
		&forum.IsPublic, &forum.OwnerId, &forum.MemberCount, &forum.ThreadCount,
		&settings, &forum.CreatedAt, &forum.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settings, &forum.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &forum, nil
}
