package services

import (
	"context"
	"testing"

	"pixelgram/db"
	"pixelgram/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike(t *testing.T) {
	setupTestDB(t)
	is := NewInteractionService()
	ctx := context.Background()

	author := createTestUser(t)
	viewer := createTestUser(t)
	post := createTestPost(t, author.ID)

	liked, err := is.ToggleLike(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// повторный вызов снимает лайк
	liked, err = is.ToggleLike(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	// и еще раз ставит; ребро в базе всегда не более одного
	liked, err = is.ToggleLike(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var count int64
	db.ORM.Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", viewer.ID, post.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestToggleLikeMissingPost(t *testing.T) {
	setupTestDB(t)
	is := NewInteractionService()

	viewer := createTestUser(t)
	_, err := is.ToggleLike(context.Background(), viewer.ID, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleFollow(t *testing.T) {
	setupTestDB(t)
	is := NewInteractionService()
	ctx := context.Background()

	alice := createTestUser(t)
	bob := createTestUser(t)

	following, err := is.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	following, err = is.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	var count int64
	db.ORM.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", alice.ID, bob.ID).
		Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestToggleFollowSelf(t *testing.T) {
	setupTestDB(t)
	is := NewInteractionService()

	alice := createTestUser(t)
	_, err := is.ToggleFollow(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestToggleFollowDirected(t *testing.T) {
	setupTestDB(t)
	is := NewInteractionService()
	ctx := context.Background()

	alice := createTestUser(t)
	bob := createTestUser(t)

	// подписка alice -> bob не создает обратного ребра
	_, err := is.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	var reverse int64
	db.ORM.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", bob.ID, alice.ID).
		Count(&reverse)
	assert.Equal(t, int64(0), reverse)

	// встречная подписка независима
	following, err := is.ToggleFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, following)
}

func TestToggleSave(t *testing.T) {
	setupTestDB(t)
	is := NewInteractionService()
	ctx := context.Background()

	author := createTestUser(t)
	viewer := createTestUser(t)
	post := createTestPost(t, author.ID)

	saved, err := is.ToggleSave(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = is.ToggleSave(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	// закладки уведомлений не порождают
	var notifications int64
	db.ORM.Model(&models.Notification{}).Count(&notifications)
	assert.Equal(t, int64(0), notifications)
}

func TestToggleCommentLike(t *testing.T) {
	setupTestDB(t)
	is := NewInteractionService()
	cs := NewCommentService()
	ctx := context.Background()

	author := createTestUser(t)
	commenter := createTestUser(t)
	post := createTestPost(t, author.ID)

	comment, err := cs.CreateComment(ctx, commenter.ID, post.ID, nil, "nice shot")
	require.NoError(t, err)

	liked, err := is.ToggleCommentLike(ctx, author.ID, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = is.ToggleCommentLike(ctx, author.ID, comment.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = is.ToggleCommentLike(ctx, author.ID, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}
