package pg

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reaxo-dev/reaxo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingPost(forumId string) domain.PendingPost {
	return domain.PendingPost{
		Id:         uuid.NewString(),
		ForumId:    forumId,
		ThreadId:   "thread-1",
		Type:       domain.PendingTypeReply,
		Body:       "please approve me",
		AuthorId:   uuid.NewString(),
		AuthorName: "alice",
		Status:     domain.PendingStatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestPendingPosts(t *testing.T) {
	ctx := context.Background()
	forum, _ := mustCreateForum(t, ctx)
	reviewerId := uuid.NewString()

	first := newPendingPost(forum.Id)
	second := newPendingPost(forum.Id)
	second.Type = domain.PendingTypeThread
	second.Title = "a new thread"
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, storage.AddPendingPost(ctx, first))
	require.NoError(t, storage.AddPendingPost(ctx, second))

	t.Run("list returns pending entries oldest first", func(t *testing.T) {
		posts, err := storage.ListPendingPosts(ctx, forum.Id)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, first.Id, posts[0].Id)
		assert.Equal(t, second.Id, posts[1].Id)
	})

	t.Run("approve transitions and stamps reviewer", func(t *testing.T) {
		reviewed, err := storage.ReviewPendingPost(ctx, first.Id, reviewerId, domain.PendingStatusApproved)
		require.NoError(t, err)
		assert.Equal(t, domain.PendingStatusApproved, reviewed.Status)
		assert.Equal(t, reviewerId, reviewed.ReviewedBy)
		require.NotNil(t, reviewed.ReviewedAt)
	})

	t.Run("reviewed entries leave the queue", func(t *testing.T) {
		posts, err := storage.ListPendingPosts(ctx, forum.Id)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, second.Id, posts[0].Id)
	})

	t.Run("second review conflicts", func(t *testing.T) {
		_, err := storage.ReviewPendingPost(ctx, first.Id, reviewerId, domain.PendingStatusRejected)
		assertStatus(t, err, 409)
	})

	t.Run("missing post is 404", func(t *testing.T) {
		_, err := storage.ReviewPendingPost(ctx, uuid.NewString(), reviewerId, domain.PendingStatusApproved)
		assertStatus(t, err, 404)
	})

	t.Run("reject transitions", func(t *testing.T) {
		reviewed, err := storage.ReviewPendingPost(ctx, second.Id, reviewerId, domain.PendingStatusRejected)
		require.NoError(t, err)
		assert.Equal(t, domain.PendingStatusRejected, reviewed.Status)
	})

	t.Run("queue survives forum deletion", func(t *testing.T) {
		doomed, owner := newTestForum(t)
		require.NoError(t, storage.CreateForum(ctx, doomed, owner))
		post := newPendingPost(doomed.Id)
		require.NoError(t, storage.AddPendingPost(ctx, post))

		require.NoError(t, storage.DeleteForum(ctx, doomed.Id))

		posts, err := storage.ListPendingPosts(ctx, doomed.Id)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, post.Id, posts[0].Id)
	})
}
