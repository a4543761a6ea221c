package pg

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestForum(t *testing.T) (domain.Forum, domain.ForumMember) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	forum := domain.Forum{
		Id:          uuid.NewString(),
		Name:        "Test Forum",
		Slug:        "test-" + uuid.NewString()[:8],
		Description: "a test forum",
		IsPublic:    true,
		OwnerId:     uuid.NewString(),
		MemberCount: 1,
		Settings:    domain.DefaultForumSettings(),
		CreatedAt:   now,
	}
	owner := domain.ForumMember{
		Id:       uuid.NewString(),
		ForumId:  forum.Id,
		UserId:   forum.OwnerId,
		Role:     domain.RoleOwner,
		JoinedAt: now,
	}
	return forum, owner
}

func mustCreateForum(t *testing.T, ctx context.Context) (domain.Forum, domain.ForumMember) {
	t.Helper()
	forum, owner := newTestForum(t)
	require.NoError(t, storage.CreateForum(ctx, forum, owner))
	t.Cleanup(func() {
		_ = storage.DeleteForum(context.Background(), forum.Id)
	})
	return forum, owner
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var statusErr *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, status, statusErr.StatusCode)
}

func TestCreateAndGetForum(t *testing.T) {
	ctx := context.Background()
	forum, owner := mustCreateForum(t, ctx)

	t.Run("get by id", func(t *testing.T) {
		got, err := storage.GetForum(ctx, forum.Id)
		require.NoError(t, err)
		assert.Equal(t, forum.Slug, got.Slug)
		assert.Equal(t, forum.Settings, got.Settings)
		assert.Equal(t, 1, got.MemberCount)
	})

	t.Run("get by slug", func(t *testing.T) {
		got, err := storage.GetForumBySlug(ctx, forum.Slug)
		require.NoError(t, err)
		assert.Equal(t, forum.Id, got.Id)
	})

	t.Run("owner membership created alongside", func(t *testing.T) {
		member, err := storage.GetMember(ctx, forum.Id, owner.UserId)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleOwner, member.Role)
	})

	t.Run("duplicate slug rejected", func(t *testing.T) {
		dup, dupOwner := newTestForum(t)
		dup.Slug = forum.Slug
		err := storage.CreateForum(ctx, dup, dupOwner)
		assertStatus(t, err, 400)

		// the failed insert must not leave a membership behind
		_, err = storage.GetMember(ctx, dup.Id, dupOwner.UserId)
		assertStatus(t, err, 404)
	})

	t.Run("missing forum is 404", func(t *testing.T) {
		_, err := storage.GetForum(ctx, uuid.NewString())
		assertStatus(t, err, 404)
	})
}

func TestListForums(t *testing.T) {
	ctx := context.Background()
	public, _ := mustCreateForum(t, ctx)

	private, privateOwner := newTestForum(t)
	private.IsPublic = false
	require.NoError(t, storage.CreateForum(ctx, private, privateOwner))
	t.Cleanup(func() { _ = storage.DeleteForum(context.Background(), private.Id) })

	all, err := storage.ListForums(ctx, false)
	require.NoError(t, err)
	assert.True(t, containsForum(all, public.Id))
	assert.True(t, containsForum(all, private.Id))

	publicOnly, err := storage.ListForums(ctx, true)
	require.NoError(t, err)
	assert.True(t, containsForum(publicOnly, public.Id))
	assert.False(t, containsForum(publicOnly, private.Id))

	owned, err := storage.ListForumsByOwner(ctx, public.OwnerId)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, public.Id, owned[0].Id)
}

func containsForum(forums []domain.Forum, id string) bool {
	for _, f := range forums {
		if f.Id == id {
			return true
		}
	}
	return false
}

func TestUpdateForum(t *testing.T) {
	ctx := context.Background()
	forum, _ := mustCreateForum(t, ctx)

	forum.Name = "Renamed"
	forum.Settings.RequirePostApproval = true
	now := time.Now().UTC().Truncate(time.Microsecond)
	forum.UpdatedAt = &now

	_, err := storage.UpdateForum(ctx, forum)
	require.NoError(t, err)

	got, err := storage.GetForum(ctx, forum.Id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.Settings.RequirePostApproval)
	require.NotNil(t, got.UpdatedAt)

	missing := forum
	missing.Id = uuid.NewString()
	_, err = storage.UpdateForum(ctx, missing)
	assertStatus(t, err, 404)
}

func TestDeleteForumCascadesMembers(t *testing.T) {
	ctx := context.Background()
	forum, owner := mustCreateForum(t, ctx)

	require.NoError(t, storage.DeleteForum(ctx, forum.Id))

	_, err := storage.GetForum(ctx, forum.Id)
	assertStatus(t, err, 404)
	_, err = storage.GetMember(ctx, forum.Id, owner.UserId)
	assertStatus(t, err, 404)

	assertStatus(t, storage.DeleteForum(ctx, forum.Id), 404)
}

func TestSlugExists(t *testing.T) {
	ctx := context.Background()
	forum, _ := mustCreateForum(t, ctx)

	exists, err := storage.SlugExists(ctx, forum.Slug)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = storage.SlugExists(ctx, "never-created")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAdjustThreadCount(t *testing.T) {
	ctx := context.Background()
	forum, _ := mustCreateForum(t, ctx)

	require.NoError(t, storage.AdjustThreadCount(ctx, forum.Id, 2))
	got, err := storage.GetForum(ctx, forum.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ThreadCount)

	// floored at zero
	require.NoError(t, storage.AdjustThreadCount(ctx, forum.Id, -5))
	got, err = storage.GetForum(ctx, forum.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ThreadCount)
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	forum, owner := mustCreateForum(t, ctx)
	userId := uuid.NewString()

	member := domain.ForumMember{
		Id: uuid.NewString(), ForumId: forum.Id, UserId: userId,
		Role: domain.RoleMember, JoinedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, storage.AddMember(ctx, member))

	t.Run("member count incremented", func(t *testing.T) {
		got, err := storage.GetForum(ctx, forum.Id)
		require.NoError(t, err)
		assert.Equal(t, 2, got.MemberCount)
	})

	t.Run("duplicate membership rejected", func(t *testing.T) {
		dup := member
		dup.Id = uuid.NewString()
		assertStatus(t, storage.AddMember(ctx, dup), 400)
	})

	t.Run("list members ordered by join time", func(t *testing.T) {
		members, err := storage.ListMembers(ctx, forum.Id)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, owner.UserId, members[0].UserId)
		assert.Equal(t, userId, members[1].UserId)
	})

	t.Run("memberships by user", func(t *testing.T) {
		memberships, err := storage.ListMembershipsByUser(ctx, userId)
		require.NoError(t, err)
		require.Len(t, memberships, 1)
		assert.Equal(t, forum.Id, memberships[0].ForumId)
	})

	t.Run("role update", func(t *testing.T) {
		updated, err := storage.UpdateMemberRole(ctx, forum.Id, userId, domain.RoleModerator)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleModerator, updated.Role)
	})

	t.Run("owner role cannot be updated", func(t *testing.T) {
		_, err := storage.UpdateMemberRole(ctx, forum.Id, owner.UserId, domain.RoleMember)
		assertStatus(t, err, 404)
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		assertStatus(t, storage.RemoveMember(ctx, forum.Id, owner.UserId), 404)
	})

	t.Run("remove member decrements count", func(t *testing.T) {
		require.NoError(t, storage.RemoveMember(ctx, forum.Id, userId))
		got, err := storage.GetForum(ctx, forum.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MemberCount)

		_, err = storage.GetMember(ctx, forum.Id, userId)
		assertStatus(t, err, 404)
	})
}
