package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"pixelgram/db"
	"pixelgram/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	HomePageSize = 5
	// кратно ширине сетки 3
	GridPageSize = 12

	FEED_CACHE_TTL  = 24 * time.Hour
	MAX_FEED_SIZE   = 1000
	RECENT_FEED_KEY = "feed:recent"
	POST_KEY_PREFIX = "post:"
)

// FeedItem - пост в выдаче ленты с пер-зрительскими флагами.
// Флаги считаются членством в ребрах, а не денормализованными счетчиками
type FeedItem struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	Username      string           `json:"username"`
	UserImage     string           `json:"user_image,omitempty"`
	Caption       string           `json:"caption"`
	Images        models.ImageList `json:"images"`
	LikesCount    int64            `json:"likes_count"`
	CommentsCount int64            `json:"comments_count"`
	CreatedAt     time.Time        `json:"created_at"`
	IsLiked       bool             `json:"is_liked"`
	IsFollowing   bool             `json:"is_following"`
	IsSaved       bool             `json:"is_saved"`
}

// FeedPage - единая форма ответа всех лент: элементы и курсор
// продолжения; отсутствующий курсор означает конец потока
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor *int64     `json:"next_cursor,omitempty"`
}

type FeedService struct{}

func NewFeedService() *FeedService {
	return &FeedService{}
}

// HomeFeed - глобальная лента по убыванию времени, P=5.
// Первая страница по возможности отдается из redis-кеша
func (fs *FeedService) HomeFeed(ctx context.Context, viewerID int64, cursor int64) (*FeedPage, error) {
	if cursor == 0 {
		if page, ok := fs.homePageFromCache(ctx, viewerID); ok {
			return page, nil
		}
	}
	return fs.pagePosts(ctx, viewerID, cursor, HomePageSize, nil)
}

// ExploreFeed - сетка explore, P=12
func (fs *FeedService) ExploreFeed(ctx context.Context, viewerID int64, cursor int64) (*FeedPage, error) {
	return fs.pagePosts(ctx, viewerID, cursor, GridPageSize, nil)
}

// TagFeed - посты с заданным тегом
func (fs *FeedService) TagFeed(ctx context.Context, viewerID int64, tagName string, cursor int64) (*FeedPage, error) {
	return fs.pagePosts(ctx, viewerID, cursor, GridPageSize, func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN post_tags pt ON pt.post_id = posts.id").
			Joins("JOIN tags t ON t.id = pt.tag_id").
			Where("t.name = ?", tagName)
	})
}

// UserPosts - сетка профиля, с тем же курсорным контрактом
func (fs *FeedService) UserPosts(ctx context.Context, viewerID int64, username string, cursor int64) (*FeedPage, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Select("id").Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fs.pagePosts(ctx, viewerID, cursor, GridPageSize, func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.user_id = ?", user.ID)
	})
}

// TaggedPosts - сетка "отмечен на фото": посты, где пользователь
// упомянут в подписи
func (fs *FeedService) TaggedPosts(ctx context.Context, viewerID int64, username string, cursor int64) (*FeedPage, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Select("id").Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fs.pagePosts(ctx, viewerID, cursor, GridPageSize, func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN post_mentions pm ON pm.post_id = posts.id").
			Where("pm.user_id = ?", user.ID)
	})
}

// SavedPosts - закладки пользователя по времени сохранения
func (fs *FeedService) SavedPosts(ctx context.Context, userID int64, cursor int64) (*FeedPage, error) {
	q := db.GetReadOnlyDB(ctx).Model(&models.Post{}).
		Select("posts.*").
		Preload("User").
		Joins("JOIN saved_posts sp ON sp.post_id = posts.id AND sp.user_id = ?", userID).
		Order("sp.created_at DESC, posts.id DESC").
		Limit(GridPageSize + 1)

	if cursor > 0 {
		var mark models.SavedPost
		err := db.GetReadOnlyDB(ctx).Where("user_id = ? AND post_id = ?", userID, cursor).First(&mark).Error
		if err != nil {
			// курсор на исчезнувшую закладку - отдаем конец потока
			return &FeedPage{Items: []FeedItem{}}, nil
		}
		q = q.Where("(sp.created_at < ?) OR (sp.created_at = ? AND posts.id < ?)",
			mark.CreatedAt, mark.CreatedAt, cursor)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get saved posts: %w", err)
	}
	return fs.buildPage(ctx, userID, posts, GridPageSize)
}

// pagePosts - общий keyset-пагинатор: берем P+1 строго после курсора
// в порядке (created_at DESC, id DESC); лишний элемент говорит,
// что есть продолжение
func (fs *FeedService) pagePosts(ctx context.Context, viewerID int64, cursor int64, size int, scope func(*gorm.DB) *gorm.DB) (*FeedPage, error) {
	q := db.GetReadOnlyDB(ctx).Model(&models.Post{}).
		Select("posts.*").
		Preload("User").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(size + 1)
	if scope != nil {
		q = scope(q)
	}

	if cursor > 0 {
		var mark models.Post
		err := db.GetReadOnlyDB(ctx).Select("id", "created_at").First(&mark, cursor).Error
		if err != nil {
			// пост-курсор удален; поведение не специфицировано, отдаем конец потока
			return &FeedPage{Items: []FeedItem{}}, nil
		}
		q = q.Where("(posts.created_at < ?) OR (posts.created_at = ? AND posts.id < ?)",
			mark.CreatedAt, mark.CreatedAt, mark.ID)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get feed posts: %w", err)
	}

	return fs.buildPage(ctx, viewerID, posts, size)
}

// buildPage срезает лишний (P+1)-й элемент, выставляет курсор на
// последний показанный пост и аннотирует страницу для зрителя
func (fs *FeedService) buildPage(ctx context.Context, viewerID int64, posts []models.Post, size int) (*FeedPage, error) {
	var nextCursor *int64
	if len(posts) > size {
		posts = posts[:size]
		last := posts[len(posts)-1].ID
		nextCursor = &last
	}

	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, FeedItem{
			ID:        p.ID,
			UserID:    p.UserID,
			Username:  p.User.Username,
			UserImage: p.User.Image,
			Caption:   p.Caption,
			Images:    p.Images,
			CreatedAt: p.CreatedAt,
		})
	}

	if err := fs.annotate(ctx, viewerID, items); err != nil {
		return nil, err
	}
	return &FeedPage{Items: items, NextCursor: nextCursor}, nil
}

type postCount struct {
	PostID int64
	Cnt    int64
}

// annotate добавляет счетчики и флаги зрителя. Для анонима все
// флаги остаются false - это не ошибка авторизации
func (fs *FeedService) annotate(ctx context.Context, viewerID int64, items []FeedItem) error {
	if len(items) == 0 {
		return nil
	}

	postIDs := make([]int64, 0, len(items))
	authorIDs := make([]int64, 0, len(items))
	for _, it := range items {
		postIDs = append(postIDs, it.ID)
		authorIDs = append(authorIDs, it.UserID)
	}

	var likeCounts []postCount
	err := db.GetReadOnlyDB(ctx).Model(&models.Like{}).
		Select("post_id, count(*) as cnt").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likeCounts).Error
	if err != nil {
		return err
	}
	var commentCounts []postCount
	err = db.GetReadOnlyDB(ctx).Model(&models.Comment{}).
		Select("post_id, count(*) as cnt").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentCounts).Error
	if err != nil {
		return err
	}

	likesByPost := make(map[int64]int64, len(likeCounts))
	for _, c := range likeCounts {
		likesByPost[c.PostID] = c.Cnt
	}
	commentsByPost := make(map[int64]int64, len(commentCounts))
	for _, c := range commentCounts {
		commentsByPost[c.PostID] = c.Cnt
	}

	liked := map[int64]struct{}{}
	saved := map[int64]struct{}{}
	following := map[int64]struct{}{}
	if viewerID > 0 {
		var ids []int64
		if err := db.GetReadOnlyDB(ctx).Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
			Pluck("post_id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			liked[id] = struct{}{}
		}

		ids = nil
		if err := db.GetReadOnlyDB(ctx).Model(&models.SavedPost{}).
			Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
			Pluck("post_id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			saved[id] = struct{}{}
		}

		ids = nil
		if err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
			Where("follower_id = ? AND following_id IN ?", viewerID, authorIDs).
			Pluck("following_id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			following[id] = struct{}{}
		}
	}

	for i := range items {
		items[i].LikesCount = likesByPost[items[i].ID]
		items[i].CommentsCount = commentsByPost[items[i].ID]
		_, items[i].IsLiked = liked[items[i].ID]
		_, items[i].IsSaved = saved[items[i].ID]
		_, items[i].IsFollowing = following[items[i].UserID]
	}
	return nil
}

// cachedPost - снимок поста в redis; флаги и счетчики зрителя
// в кеш не кладем, они всегда считаются по ребрам
type cachedPost struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Username  string           `json:"username"`
	UserImage string           `json:"user_image,omitempty"`
	Caption   string           `json:"caption"`
	Images    models.ImageList `json:"images"`
	CreatedAt time.Time        `json:"created_at"`
}

// homePageFromCache собирает первую страницу из sorted set свежих
// постов; любой промах по снимку - полный откат на базу
func (fs *FeedService) homePageFromCache(ctx context.Context, viewerID int64) (*FeedPage, bool) {
	if RedisClient == nil {
		return nil, false
	}

	postIDs, err := RedisClient.ZRevRange(ctx, RECENT_FEED_KEY, 0, int64(HomePageSize)).Result()
	if err != nil || len(postIDs) < HomePageSize+1 {
		return nil, false
	}

	pipe := RedisClient.Pipeline()
	cmds := make([]*redis.StringCmd, len(postIDs))
	for i, postID := range postIDs {
		cmds[i] = pipe.Get(ctx, POST_KEY_PREFIX+postID)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, false
	}

	items := make([]FeedItem, 0, HomePageSize)
	for _, cmd := range cmds[:HomePageSize] {
		val, err := cmd.Result()
		if err != nil {
			return nil, false
		}
		var p cachedPost
		if err := json.Unmarshal([]byte(val), &p); err != nil {
			return nil, false
		}
		items = append(items, FeedItem{
			ID:        p.ID,
			UserID:    p.UserID,
			Username:  p.Username,
			UserImage: p.UserImage,
			Caption:   p.Caption,
			Images:    p.Images,
			CreatedAt: p.CreatedAt,
		})
	}

	if err := fs.annotate(ctx, viewerID, items); err != nil {
		return nil, false
	}

	last := items[len(items)-1].ID
	return &FeedPage{Items: items, NextCursor: &last}, true
}

// AddPostToRecentFeed кладет свежий пост в кеш глобальной ленты
func AddPostToRecentFeed(ctx context.Context, post *models.Post) {
	if RedisClient == nil {
		return
	}

	var author models.User
	if err := db.GetReadOnlyDB(ctx).Select("id", "username", "image").First(&author, post.UserID).Error; err != nil {
		log.Printf("WARN: failed to load author %d for feed cache: %v", post.UserID, err)
		return
	}

	snapshot := cachedPost{
		ID:        post.ID,
		UserID:    post.UserID,
		Username:  author.Username,
		UserImage: author.Image,
		Caption:   post.Caption,
		Images:    post.Images,
		CreatedAt: post.CreatedAt,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}

	pipe := RedisClient.Pipeline()
	pipe.ZAdd(ctx, RECENT_FEED_KEY, &redis.Z{
		Score:  float64(post.CreatedAt.UnixNano()),
		Member: strconv.FormatInt(post.ID, 10),
	})
	pipe.Set(ctx, POST_KEY_PREFIX+strconv.FormatInt(post.ID, 10), data, FEED_CACHE_TTL)
	// ограничиваем размер кеша
	pipe.ZRemRangeByRank(ctx, RECENT_FEED_KEY, 0, -MAX_FEED_SIZE-1)
	pipe.Expire(ctx, RECENT_FEED_KEY, FEED_CACHE_TTL)
	pipe.Exec(ctx)
}

// RemovePostFromRecentFeed выкидывает удаленный пост из кеша
func RemovePostFromRecentFeed(ctx context.Context, postID int64) {
	if RedisClient == nil {
		return
	}
	pipe := RedisClient.Pipeline()
	pipe.ZRem(ctx, RECENT_FEED_KEY, strconv.FormatInt(postID, 10))
	pipe.Del(ctx, POST_KEY_PREFIX+strconv.FormatInt(postID, 10))
	pipe.Exec(ctx)
}

// InvalidateRecentFeed полностью сбрасывает кеш ленты
func InvalidateRecentFeed(ctx context.Context) error {
	if RedisClient == nil {
		return fmt.Errorf("redis not available")
	}
	return RedisClient.Del(ctx, RECENT_FEED_KEY).Err()
}
