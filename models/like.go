package models

import "time"

// Like - лайк поста, уникален на пару (user, post)
type Like struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;uniqueIndex:idx_user_post_like" json:"user_id"`
	PostID    int64     `gorm:"index;uniqueIndex:idx_user_post_like" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

// CommentLike - лайк комментария, уникален на пару (user, comment)
type CommentLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;uniqueIndex:idx_user_comment_like" json:"user_id"`
	CommentID int64     `gorm:"index;uniqueIndex:idx_user_comment_like" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (CommentLike) TableName() string {
	return "comment_likes"
}
