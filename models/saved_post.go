package models

import "time"

// SavedPost - закладка, уникальна на пару (user, post);
// собственный CreatedAt дает порядок "недавно сохраненные"
type SavedPost struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;uniqueIndex:idx_user_post_save" json:"user_id"`
	PostID    int64     `gorm:"index;uniqueIndex:idx_user_post_save" json:"post_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (SavedPost) TableName() string {
	return "saved_posts"
}
