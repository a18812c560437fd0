package models

import (
	"time"
)

type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string    `gorm:"size:255;uniqueIndex" json:"email"`
	Username       string    `gorm:"size:60;uniqueIndex" json:"username"`
	Name           string    `gorm:"size:255" json:"name"`
	HashedPassword string    `gorm:"size:255" json:"-"`
	Image          string    `gorm:"size:512" json:"image,omitempty"`
	Bio            string    `gorm:"type:text" json:"bio,omitempty"`
	Website        string    `gorm:"size:255" json:"website,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
