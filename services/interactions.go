package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixelgram/db"
	"pixelgram/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSelfFollow = errors.New("cannot follow yourself")
	ErrNotFound   = errors.New("not found")
)

type InteractionService struct {
	notifications *NotificationService
}

func NewInteractionService() *InteractionService {
	return &InteractionService{notifications: NewNotificationService()}
}

// toggleEdge атомарно переключает ребро: сперва DELETE по уникальной
// паре, а если удалять было нечего - INSERT c ON CONFLICT DO NOTHING.
// Уникальный индекс остается точкой линеаризации: проигравший гонку
// INSERT ничего не вставит, что неотличимо от "ребро уже есть"
func toggleEdge(ctx context.Context, edge interface{}, conflictCols []clause.Column, query string, args ...interface{}) (bool, error) {
	res := db.GetWriteDB(ctx).Where(query, args...).Delete(edge)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	err := db.GetWriteDB(ctx).
		Clauses(clause.OnConflict{Columns: conflictCols, DoNothing: true}).
		Create(edge).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// ToggleLike переключает лайк поста, возвращает новое состояние.
// Первый лайк шлет владельцу поста LIKE-уведомление, снятие - нет
func (is *InteractionService) ToggleLike(ctx context.Context, userID, postID int64) (bool, error) {
	var post models.Post
	if err := db.GetReadOnlyDB(ctx).Select("id", "user_id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	liked, err := toggleEdge(ctx,
		&models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now()},
		[]clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		"user_id = ? AND post_id = ?", userID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}

	if liked {
		is.notifications.Emit(ctx, post.UserID, userID, models.NotifyLike, &postID, nil)
	}
	return liked, nil
}

// ToggleFollow переключает подписку на пользователя
func (is *InteractionService) ToggleFollow(ctx context.Context, followerID, targetID int64) (bool, error) {
	if followerID == targetID {
		return false, ErrSelfFollow
	}

	var target models.User
	if err := db.GetReadOnlyDB(ctx).Select("id").First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	following, err := toggleEdge(ctx,
		&models.Follow{FollowerID: followerID, FollowingID: targetID, CreatedAt: time.Now()},
		[]clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		"follower_id = ? AND following_id = ?", followerID, targetID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle follow: %w", err)
	}

	if following {
		is.notifications.Emit(ctx, targetID, followerID, models.NotifyFollow, nil, nil)
	}
	return following, nil
}

// ToggleSave переключает закладку; уведомлений у закладок нет
func (is *InteractionService) ToggleSave(ctx context.Context, userID, postID int64) (bool, error) {
	var post models.Post
	if err := db.GetReadOnlyDB(ctx).Select("id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	saved, err := toggleEdge(ctx,
		&models.SavedPost{UserID: userID, PostID: postID, CreatedAt: time.Now()},
		[]clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		"user_id = ? AND post_id = ?", userID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle save: %w", err)
	}
	return saved, nil
}

// ToggleCommentLike переключает лайк комментария
func (is *InteractionService) ToggleCommentLike(ctx context.Context, userID, commentID int64) (bool, error) {
	var comment models.Comment
	if err := db.GetReadOnlyDB(ctx).Select("id", "user_id", "post_id").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	liked, err := toggleEdge(ctx,
		&models.CommentLike{UserID: userID, CommentID: commentID, CreatedAt: time.Now()},
		[]clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
		"user_id = ? AND comment_id = ?", userID, commentID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle comment like: %w", err)
	}

	if liked {
		is.notifications.Emit(ctx, comment.UserID, userID, models.NotifyCommentLike, &comment.PostID, &commentID)
	}
	return liked, nil
}
