package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pixelgram/db"
	"pixelgram/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPosts(t *testing.T, userID int64, n int) []models.Post {
	t.Helper()

	base := time.Now().Add(-time.Duration(n) * time.Minute)
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := models.Post{
			UserID:    userID,
			Caption:   fmt.Sprintf("post %d", i),
			Images:    models.ImageList{fmt.Sprintf("img-%d.jpg", i)},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.ORM.Create(&post).Error)
		posts = append(posts, post)
	}
	return posts
}

func TestHomeFeedPagination(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	ctx := context.Background()

	author := createTestUser(t)
	seedPosts(t, author.ID, 12)

	seen := map[int64]struct{}{}
	var cursor int64
	pages := 0
	for {
		page, err := fs.HomeFeed(ctx, 0, cursor)
		require.NoError(t, err)
		pages++

		for _, item := range page.Items {
			// пост не должен повторяться между страницами
			_, dup := seen[item.ID]
			require.False(t, dup, "post %d appeared twice", item.ID)
			seen[item.ID] = struct{}{}
		}

		if page.NextCursor == nil {
			// последняя страница не обязана быть полной
			assert.LessOrEqual(t, len(page.Items), HomePageSize)
			break
		}
		assert.Len(t, page.Items, HomePageSize)
		cursor = *page.NextCursor
	}

	assert.Equal(t, 12, len(seen))
	assert.Equal(t, 3, pages)
}

func TestHomeFeedOrder(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()

	author := createTestUser(t)
	posts := seedPosts(t, author.ID, 6)

	page, err := fs.HomeFeed(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, HomePageSize)

	// свежайший пост первым
	assert.Equal(t, posts[len(posts)-1].ID, page.Items[0].ID)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt))
	}
}

func TestFeedAnnotationsForViewer(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	is := NewInteractionService()
	ctx := context.Background()

	author := createTestUser(t)
	viewer := createTestUser(t)
	posts := seedPosts(t, author.ID, 2)

	_, err := is.ToggleLike(ctx, viewer.ID, posts[1].ID)
	require.NoError(t, err)
	_, err = is.ToggleSave(ctx, viewer.ID, posts[0].ID)
	require.NoError(t, err)
	_, err = is.ToggleFollow(ctx, viewer.ID, author.ID)
	require.NoError(t, err)

	page, err := fs.HomeFeed(ctx, viewer.ID, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	// posts[1] свежее и идет первым
	assert.True(t, page.Items[0].IsLiked)
	assert.False(t, page.Items[0].IsSaved)
	assert.False(t, page.Items[1].IsLiked)
	assert.True(t, page.Items[1].IsSaved)
	assert.True(t, page.Items[0].IsFollowing)
	assert.True(t, page.Items[1].IsFollowing)
	assert.Equal(t, int64(1), page.Items[0].LikesCount)

	// для анонима флаги всегда false, счетчики те же
	anon, err := fs.HomeFeed(ctx, 0, 0)
	require.NoError(t, err)
	assert.False(t, anon.Items[0].IsLiked)
	assert.False(t, anon.Items[0].IsFollowing)
	assert.False(t, anon.Items[1].IsSaved)
	assert.Equal(t, int64(1), anon.Items[0].LikesCount)
}

func TestExploreFeedPageSize(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()

	author := createTestUser(t)
	seedPosts(t, author.ID, GridPageSize+3)

	page, err := fs.ExploreFeed(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, GridPageSize)
	require.NotNil(t, page.NextCursor)

	rest, err := fs.ExploreFeed(context.Background(), 0, *page.NextCursor)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 3)
	assert.Nil(t, rest.NextCursor)
}

func TestTagFeed(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t)
	tagged, err := ps.CreatePost(ctx, author.ID, []string{"a.jpg"}, "golden hour #sunset")
	require.NoError(t, err)
	_, err = ps.CreatePost(ctx, author.ID, []string{"b.jpg"}, "no tags here")
	require.NoError(t, err)

	page, err := fs.TagFeed(ctx, 0, "sunset", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, tagged.ID, page.Items[0].ID)

	empty, err := fs.TagFeed(ctx, 0, "nosuchtag", 0)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestUserPosts(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	ctx := context.Background()

	author := createTestUser(t)
	other := createTestUser(t)
	seedPosts(t, author.ID, 3)
	seedPosts(t, other.ID, 2)

	page, err := fs.UserPosts(ctx, 0, author.Username, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for _, item := range page.Items {
		assert.Equal(t, author.ID, item.UserID)
	}

	_, err = fs.UserPosts(ctx, 0, "no_such_user", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavedPostsOrderedBySaveTime(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	is := NewInteractionService()
	ctx := context.Background()

	author := createTestUser(t)
	viewer := createTestUser(t)
	posts := seedPosts(t, author.ID, 3)

	// сохраняем в порядке, обратном времени публикации
	for i := range posts {
		_, err := is.ToggleSave(ctx, viewer.ID, posts[i].ID)
		require.NoError(t, err)
		db.ORM.Model(&models.SavedPost{}).
			Where("user_id = ? AND post_id = ?", viewer.ID, posts[i].ID).
			Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}

	page, err := fs.SavedPosts(ctx, viewer.ID, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	// порядок задает время закладки, не время поста
	assert.Equal(t, posts[2].ID, page.Items[0].ID)
	assert.Equal(t, posts[1].ID, page.Items[1].ID)
	assert.Equal(t, posts[0].ID, page.Items[2].ID)
	assert.True(t, page.Items[0].IsSaved)
}

func TestSavedPostsPagination(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	is := NewInteractionService()
	ctx := context.Background()

	author := createTestUser(t)
	viewer := createTestUser(t)
	posts := seedPosts(t, author.ID, GridPageSize+4)
	for i, p := range posts {
		_, err := is.ToggleSave(ctx, viewer.ID, p.ID)
		require.NoError(t, err)
		db.ORM.Model(&models.SavedPost{}).
			Where("user_id = ? AND post_id = ?", viewer.ID, p.ID).
			Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}

	seen := map[int64]struct{}{}
	first, err := fs.SavedPosts(ctx, viewer.ID, 0)
	require.NoError(t, err)
	require.Len(t, first.Items, GridPageSize)
	require.NotNil(t, first.NextCursor)
	for _, item := range first.Items {
		seen[item.ID] = struct{}{}
	}

	rest, err := fs.SavedPosts(ctx, viewer.ID, *first.NextCursor)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 4)
	assert.Nil(t, rest.NextCursor)
	for _, item := range rest.Items {
		// закладка не должна повторяться между страницами
		_, dup := seen[item.ID]
		require.False(t, dup, "saved post %d appeared twice", item.ID)
		seen[item.ID] = struct{}{}
	}
	assert.Equal(t, GridPageSize+4, len(seen))
}

func TestUserPostsPagination(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	ctx := context.Background()

	author := createTestUser(t)
	seedPosts(t, author.ID, GridPageSize+2)

	first, err := fs.UserPosts(ctx, 0, author.Username, 0)
	require.NoError(t, err)
	require.Len(t, first.Items, GridPageSize)
	require.NotNil(t, first.NextCursor)

	seen := map[int64]struct{}{}
	for _, item := range first.Items {
		seen[item.ID] = struct{}{}
	}

	rest, err := fs.UserPosts(ctx, 0, author.Username, *first.NextCursor)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 2)
	assert.Nil(t, rest.NextCursor)
	for _, item := range rest.Items {
		_, dup := seen[item.ID]
		require.False(t, dup, "post %d appeared twice", item.ID)
	}
}

func TestTaggedPosts(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	ps := NewPostService()
	ctx := context.Background()

	author := createTestUser(t)
	bob := createNamedUser(t, "bob")

	tagged, err := ps.CreatePost(ctx, author.ID, []string{"a.jpg"}, "with @bob")
	require.NoError(t, err)
	_, err = ps.CreatePost(ctx, author.ID, []string{"b.jpg"}, "solo shot")
	require.NoError(t, err)

	page, err := fs.TaggedPosts(ctx, 0, bob.Username, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, tagged.ID, page.Items[0].ID)

	_, err = fs.TaggedPosts(ctx, 0, "no_such_user", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedCursorOnDeletedPost(t *testing.T) {
	setupTestDB(t)
	fs := NewFeedService()
	ctx := context.Background()

	author := createTestUser(t)
	seedPosts(t, author.ID, 3)

	// курсор на несуществующий пост - корректный конец потока
	page, err := fs.ExploreFeed(ctx, 0, 99999)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
}
