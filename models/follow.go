package models

import "time"

// Follow - направленное ребро подписки follower -> following,
// не более одного ребра на упорядоченную пару
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  int64     `gorm:"index;uniqueIndex:idx_follower_following" json:"follower_id"`
	FollowingID int64     `gorm:"index;uniqueIndex:idx_follower_following" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
