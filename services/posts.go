package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pixelgram/db"
	"pixelgram/models"

	"gorm.io/gorm"
)

var ErrNotPostOwner = errors.New("post does not belong to user")

type PostService struct {
	notifications *NotificationService
}

func NewPostService() *PostService {
	return &PostService{notifications: NewNotificationService()}
}

// CreatePost создает пост, синхронизирует теги и упоминания из подписи
// и раскидывает NEW_POST подписчикам автора (через очередь, если она есть)
func (ps *PostService) CreatePost(ctx context.Context, userID int64, images []string, caption string) (*models.Post, error) {
	if len(images) == 0 {
		return nil, errors.New("post must contain at least one image")
	}

	post := &models.Post{
		UserID:    userID,
		Caption:   caption,
		Images:    images,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if err := ps.syncTags(ctx, post, caption); err != nil {
		log.Printf("WARN: failed to sync tags for post %d: %v", post.ID, err)
	}
	if err := ps.SyncMentions(ctx, post.ID, caption); err != nil {
		log.Printf("WARN: failed to sync mentions for post %d: %v", post.ID, err)
	}

	// кеш свежей ленты и фан-аут подписчикам - вне критического пути
	go AddPostToRecentFeed(context.Background(), post)
	if QueueServiceInstance != nil && RedisClient != nil {
		go func() {
			if err := QueueServiceInstance.EnqueueNewPost(context.Background(), post.ID, userID); err != nil {
				log.Printf("WARN: enqueue failed, notifying followers inline: %v", err)
				ps.NotifyFollowers(context.Background(), post.ID, userID)
			}
		}()
	} else {
		go ps.NotifyFollowers(context.Background(), post.ID, userID)
	}

	return post, nil
}

// UpdateCaption меняет подпись поста владельца и заново синхронизирует
// теги и упоминания (полная замена наборов)
func (ps *PostService) UpdateCaption(ctx context.Context, userID, postID int64, caption string) (*models.Post, error) {
	var post models.Post
	if err := db.GetWriteDB(ctx).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrNotPostOwner
	}

	post.Caption = caption
	post.UpdatedAt = time.Now()
	if err := db.GetWriteDB(ctx).Model(&post).
		Updates(map[string]interface{}{"caption": caption, "updated_at": post.UpdatedAt}).Error; err != nil {
		return nil, fmt.Errorf("failed to update caption: %w", err)
	}

	if err := ps.syncTags(ctx, &post, caption); err != nil {
		log.Printf("WARN: failed to sync tags for post %d: %v", post.ID, err)
	}
	if err := ps.SyncMentions(ctx, post.ID, caption); err != nil {
		log.Printf("WARN: failed to sync mentions for post %d: %v", post.ID, err)
	}
	return &post, nil
}

// DeletePost удаляет пост владельца вместе с ребрами и ассоциациями
func (ps *PostService) DeletePost(ctx context.Context, userID, postID int64) error {
	var post models.Post
	if err := db.GetWriteDB(ctx).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if post.UserID != userID {
		return ErrNotPostOwner
	}

	if err := db.GetWriteDB(ctx).Model(&post).Association("Tags").Clear(); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	if err := db.GetWriteDB(ctx).Model(&post).Association("MentionedUsers").Clear(); err != nil {
		return fmt.Errorf("failed to clear mentions: %w", err)
	}
	db.GetWriteDB(ctx).Where("post_id = ?", postID).Delete(&models.Like{})
	db.GetWriteDB(ctx).Where("post_id = ?", postID).Delete(&models.SavedPost{})
	db.GetWriteDB(ctx).Where("post_id = ?", postID).Delete(&models.Comment{})

	if err := db.GetWriteDB(ctx).Delete(&post).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	go RemovePostFromRecentFeed(context.Background(), postID)
	return nil
}

// syncTags - connect-or-create по уникальному имени, затем полная
// замена набора тегов поста
func (ps *PostService) syncTags(ctx context.Context, post *models.Post, caption string) error {
	names := ExtractHashtags(caption)
	if len(names) == 0 {
		return db.GetWriteDB(ctx).Model(post).Association("Tags").Clear()
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		if err := db.GetWriteDB(ctx).Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return db.GetWriteDB(ctx).Model(post).Association("Tags").Replace(&tags)
}

// SyncMentions пересобирает множество упомянутых пользователей поста
// из текущего текста: неизвестные имена молча отбрасываются, прежние
// участники не из нового набора удаляются, пустой текст очищает все.
// Новые упомянутые получают MENTION-уведомление
func (ps *PostService) SyncMentions(ctx context.Context, postID int64, text string) error {
	var post models.Post
	if err := db.GetWriteDB(ctx).Preload("MentionedUsers").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	candidates := ExtractMentions(text)
	if len(candidates) == 0 {
		return db.GetWriteDB(ctx).Model(&post).Association("MentionedUsers").Clear()
	}

	var users []models.User
	if err := db.GetReadOnlyDB(ctx).Where("username IN ?", candidates).Find(&users).Error; err != nil {
		return err
	}

	previous := make(map[int64]struct{}, len(post.MentionedUsers))
	for _, u := range post.MentionedUsers {
		previous[u.ID] = struct{}{}
	}

	if len(users) == 0 {
		return db.GetWriteDB(ctx).Model(&post).Association("MentionedUsers").Clear()
	}
	if err := db.GetWriteDB(ctx).Model(&post).Association("MentionedUsers").Replace(&users); err != nil {
		return err
	}

	for _, u := range users {
		if _, ok := previous[u.ID]; !ok {
			ps.notifications.Emit(ctx, u.ID, post.UserID, models.NotifyMention, &post.ID, nil)
		}
	}
	return nil
}

// NotifyFollowers шлет NEW_POST всем подписчикам автора
// (синхронный путь; обычно этим занимается воркер очереди)
func (ps *PostService) NotifyFollowers(ctx context.Context, postID, authorID int64) {
	var followerIDs []int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Follow{}).
		Where("following_id = ?", authorID).
		Pluck("follower_id", &followerIDs).Error
	if err != nil {
		log.Printf("WARN: failed to list followers of user %d: %v", authorID, err)
		return
	}
	for _, followerID := range followerIDs {
		ps.notifications.Emit(ctx, followerID, authorID, models.NotifyNewPost, &postID, nil)
	}
}

// GetPost возвращает пост с автором или ErrNotFound
func (ps *PostService) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).Preload("User").First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}
