package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pixelgram/db"
	"pixelgram/models"

	"gorm.io/gorm"
)

type CommentService struct {
	notifications *NotificationService
}

func NewCommentService() *CommentService {
	return &CommentService{notifications: NewNotificationService()}
}

// CommentView - комментарий в выдаче: автор, лайки зрителя и ответы
type CommentView struct {
	ID         int64         `json:"id"`
	PostID     int64         `json:"post_id"`
	ParentID   *int64        `json:"parent_id,omitempty"`
	Body       string        `json:"body"`
	UserID     int64         `json:"user_id"`
	Username   string        `json:"username"`
	UserImage  string        `json:"user_image,omitempty"`
	LikesCount int64         `json:"likes_count"`
	IsLiked    bool          `json:"is_liked"`
	CreatedAt  time.Time     `json:"created_at"`
	Replies    []CommentView `json:"replies,omitempty"`
}

// CreateComment создает комментарий или ответ. Вложенность один
// уровень: ответ на ответ цепляется к корневому комментарию.
// Владелец поста получает COMMENT, упомянутые в тексте - MENTION
func (cs *CommentService) CreateComment(ctx context.Context, userID, postID int64, parentID *int64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.New("comment body is empty")
	}

	var post models.Post
	if err := db.GetReadOnlyDB(ctx).Select("id", "user_id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if parentID != nil {
		var parent models.Comment
		if err := db.GetReadOnlyDB(ctx).First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, errors.New("parent comment belongs to another post")
		}
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	comment := &models.Comment{
		PostID:    postID,
		UserID:    userID,
		ParentID:  parentID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	cs.notifications.Emit(ctx, post.UserID, userID, models.NotifyComment, &postID, &comment.ID)

	// упоминания в теле комментария
	if candidates := ExtractMentions(body); len(candidates) > 0 {
		var mentioned []models.User
		err := db.GetReadOnlyDB(ctx).Where("username IN ?", candidates).Find(&mentioned).Error
		if err == nil {
			for _, u := range mentioned {
				cs.notifications.Emit(ctx, u.ID, userID, models.NotifyMention, &postID, &comment.ID)
			}
		}
	}

	return comment, nil
}

// ListComments возвращает дерево комментариев поста: корневые -
// свежие сверху, ответы внутри - по возрастанию времени
func (cs *CommentService) ListComments(ctx context.Context, postID, viewerID int64) ([]CommentView, error) {
	var comments []models.Comment
	err := db.GetReadOnlyDB(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if len(comments) == 0 {
		return []CommentView{}, nil
	}

	commentIDs := make([]int64, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}

	type commentCount struct {
		CommentID int64
		Cnt       int64
	}
	var likeCounts []commentCount
	err = db.GetReadOnlyDB(ctx).Model(&models.CommentLike{}).
		Select("comment_id, count(*) as cnt").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&likeCounts).Error
	if err != nil {
		return nil, err
	}
	likesByComment := make(map[int64]int64, len(likeCounts))
	for _, c := range likeCounts {
		likesByComment[c.CommentID] = c.Cnt
	}

	liked := map[int64]struct{}{}
	if viewerID > 0 {
		var ids []int64
		err = db.GetReadOnlyDB(ctx).Model(&models.CommentLike{}).
			Where("user_id = ? AND comment_id IN ?", viewerID, commentIDs).
			Pluck("comment_id", &ids).Error
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			liked[id] = struct{}{}
		}
	}

	views := make(map[int64]*CommentView, len(comments))
	var topLevel []*CommentView
	for _, c := range comments {
		_, isLiked := liked[c.ID]
		v := &CommentView{
			ID:         c.ID,
			PostID:     c.PostID,
			ParentID:   c.ParentID,
			Body:       c.Body,
			UserID:     c.UserID,
			Username:   c.User.Username,
			UserImage:  c.User.Image,
			LikesCount: likesByComment[c.ID],
			IsLiked:    isLiked,
			CreatedAt:  c.CreatedAt,
		}
		views[c.ID] = v
		if c.ParentID == nil {
			topLevel = append(topLevel, v)
		}
	}

	// ответы уже в порядке возрастания времени
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if parent, ok := views[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, *views[c.ID])
		}
	}

	sort.SliceStable(topLevel, func(i, j int) bool {
		return topLevel[i].CreatedAt.After(topLevel[j].CreatedAt)
	})

	result := make([]CommentView, 0, len(topLevel))
	for _, v := range topLevel {
		result = append(result, *v)
	}
	return result, nil
}
