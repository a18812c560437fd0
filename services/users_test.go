package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile(t *testing.T) {
	setupTestDB(t)
	us := NewUserService()
	is := NewInteractionService()
	ctx := context.Background()

	alice := createNamedUser(t, "alice")
	bob := createNamedUser(t, "bob")
	carol := createNamedUser(t, "carol")

	seedPosts(t, alice.ID, 2)
	_, err := is.ToggleFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = is.ToggleFollow(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	_, err = is.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	profile, err := us.GetProfile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.PostsCount)
	assert.Equal(t, int64(2), profile.FollowersCount)
	assert.Equal(t, int64(1), profile.FollowingCount)
	assert.True(t, profile.IsFollowing)

	// аноним видит те же счетчики без флага
	anon, err := us.GetProfile(ctx, "alice", 0)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)
	assert.Equal(t, profile.FollowersCount, anon.FollowersCount)

	_, err = us.GetProfile(ctx, "no_such_user", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfilePartial(t *testing.T) {
	setupTestDB(t)
	us := NewUserService()
	ctx := context.Background()

	user := createNamedUser(t, "alice")

	bio := "hello there"
	updated, err := us.UpdateProfile(ctx, user.ID, ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello there", updated.Bio)
	// остальные поля не тронуты
	assert.Equal(t, "alice", updated.Name)

	name := "  Alice A.  "
	updated, err = us.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.Name)
	assert.Equal(t, "hello there", updated.Bio)
}

func TestSearchUsers(t *testing.T) {
	setupTestDB(t)
	us := NewUserService()
	ctx := context.Background()

	createNamedUser(t, "anna_k")
	createNamedUser(t, "annabel")
	createNamedUser(t, "bob")

	// префикс имени пользователя
	users, err := us.SearchUsers(ctx, "anna", 20)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// подстрока отображаемого имени тоже находит
	users, err = us.SearchUsers(ctx, "ob", 20)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	// пустой запрос ничего не ищет
	users, err = us.SearchUsers(ctx, "   ", 20)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSearchTags(t *testing.T) {
	setupTestDB(t)
	us := NewUserService()
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t)
	_, err := ps.CreatePost(ctx, author.ID, []string{"a.jpg"}, "#sunset #sunrise #city")
	require.NoError(t, err)

	tags, err := us.SearchTags(ctx, "sun", 20)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "sunrise", tags[0].Name)
	assert.Equal(t, "sunset", tags[1].Name)
}

func TestSuggestedUsers(t *testing.T) {
	setupTestDB(t)
	us := NewUserService()
	is := NewInteractionService()
	ctx := context.Background()

	viewer := createTestUser(t)
	followed := createTestUser(t)
	_, err := is.ToggleFollow(ctx, viewer.ID, followed.ID)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		createTestUser(t)
	}

	suggested, err := us.SuggestedUsers(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Len(t, suggested, suggestedCount)

	// ни себя, ни тех, на кого уже подписан
	for _, u := range suggested {
		assert.NotEqual(t, viewer.ID, u.ID)
		assert.NotEqual(t, followed.ID, u.ID)
	}
}

func TestRecentStoryUsers(t *testing.T) {
	setupTestDB(t)
	us := NewUserService()
	ctx := context.Background()

	viewer := createTestUser(t)
	for i := 0; i < 5; i++ {
		author := createTestUser(t)
		seedPosts(t, author.ID, 2)
	}
	seedPosts(t, viewer.ID, 1)

	users, err := us.RecentStoryUsers(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, users, storyUserCount)

	seen := map[int64]struct{}{}
	for _, u := range users {
		assert.NotEqual(t, viewer.ID, u.ID)
		_, dup := seen[u.ID]
		assert.False(t, dup, "author repeated in story strip")
		seen[u.ID] = struct{}{}
	}
}
