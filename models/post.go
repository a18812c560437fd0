package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ImageList хранит упорядоченный список URL изображений поста
// одной TEXT-колонкой (JSON), чтобы схема работала и на postgres, и на sqlite
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *ImageList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported image list source type %T", src)
	}
}

// Post - модель поста с изображениями
type Post struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"index" json:"user_id"`
	User           User      `json:"-"`
	Caption        string    `gorm:"type:text" json:"caption"`
	Images         ImageList `gorm:"type:text" json:"images"`
	Tags           []Tag     `gorm:"many2many:post_tags" json:"-"`
	MentionedUsers []User    `gorm:"many2many:post_mentions" json:"-"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

type Tag struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:60;uniqueIndex" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}
