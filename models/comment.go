package models

import "time"

// Comment - комментарий к посту, с одним уровнем вложенности:
// у ответа ParentID указывает на корневой комментарий
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"index" json:"post_id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	User      User      `json:"-"`
	ParentID  *int64    `gorm:"index" json:"parent_id,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}
