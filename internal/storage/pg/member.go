package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
)

// AddMember inserts the membership and bumps the forum's member counter
// in one transaction.
func (s *Storage) AddMember(ctx context.Context, member domain.ForumMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO forum_members (id, forum_id, user_id, role, joined_at)
        VALUES ($1, $2, $3, $4, $5)`,
		member.Id, member.ForumId, member.UserId, member.Role, member.JoinedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return &internal_errors.ErrorWithStatusCode{Message: "Already a member of this forum", StatusCode: http.StatusBadRequest}
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE forums SET member_count = member_count + 1 WHERE id = $1", member.ForumId); err != nil {
		return fmt.Errorf("failed to bump member count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveMember deletes the membership and decrements the counter,
// floored at zero. The owner row is guarded here as well as in the
// service layer.
func (s *Storage) RemoveMember(ctx context.Context, forumId, userId string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM forum_members WHERE forum_id = $1 AND user_id = $2 AND role <> 'owner'", forumId, userId)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Membership not found", StatusCode: http.StatusNotFound}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE forums SET member_count = GREATEST(member_count - 1, 0) WHERE id = $1", forumId); err != nil {
		return fmt.Errorf("failed to decrement member count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Storage) GetMember(ctx context.Context, forumId, userId string) (*domain.ForumMember, error) {
	var member domain.ForumMember
	err := s.db.QueryRowContext(ctx, `
        SELECT id, forum_id, user_id, role, joined_at
        FROM forum_members WHERE forum_id = $1 AND user_id = $2`,
		forumId, userId,
	).Scan(&member.Id, &member.ForumId, &member.UserId, &member.Role, &member.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &internal_errors.ErrorWithStatusCode{Message: "Membership not found", StatusCode: http.StatusNotFound}
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &member, nil
}

func (s *Storage) ListMembers(ctx context.Context, forumId string) ([]domain.ForumMember, error) {
	return s.queryMembers(ctx, `
        SELECT id, forum_id, user_id, role, joined_at
        FROM forum_members WHERE forum_id = $1
        ORDER BY joined_at`, forumId)
}

func (s *Storage) ListMembershipsByUser(ctx context.Context, userId string) ([]domain.ForumMember, error) {
	return s.queryMembers(ctx, `
        SELECT id, forum_id, user_id, role, joined_at
        FROM forum_members WHERE user_id = $1
        ORDER BY joined_at`, userId)
}

func (s *Storage) queryMembers(ctx context.Context, query string, args ...any) ([]domain.ForumMember, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	members := []domain.ForumMember{}
	for rows.Next() {
		var m domain.ForumMember
		if err := rows.Scan(&m.Id, &m.ForumId, &m.UserId, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMemberRole never touches the owner row; the WHERE clause keeps
// the single-owner invariant even if the service check is bypassed.
func (s *Storage) UpdateMemberRole(ctx context.Context, forumId, userId string, role domain.MemberRole) (*domain.ForumMember, error) {
	var member domain.ForumMember
	err := s.db.QueryRowContext(ctx, `
        UPDATE forum_members SET role = $3
        WHERE forum_id = $1 AND user_id = $2 AND role <> 'owner'
        RETURNING id, forum_id, user_id, role, joined_at`,
		forumId, userId, role,
	).Scan(&member.Id, &member.ForumId, &member.UserId, &member.Role, &member.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &internal_errors.ErrorWithStatusCode{Message: "Membership not found", StatusCode: http.StatusNotFound}
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return &member, nil
}
