package models

import "time"

type NotificationType string

const (
	NotifyLike        NotificationType = "LIKE"
	NotifyComment     NotificationType = "COMMENT"
	NotifyCommentLike NotificationType = "COMMENT_LIKE"
	NotifyFollow      NotificationType = "FOLLOW"
	NotifyMention     NotificationType = "MENTION"
	NotifyNewPost     NotificationType = "NEW_POST"
)

// Notification - уведомление получателю от инициатора;
// для LIKE/FOLLOW строка переиспользуется (см. NotificationService.Emit)
type Notification struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID int64            `gorm:"index" json:"recipient_id"`
	IssuerID    int64            `gorm:"index" json:"issuer_id"`
	Issuer      User             `gorm:"foreignKey:IssuerID" json:"issuer"`
	Type        NotificationType `gorm:"size:20;index" json:"type"`
	PostID      *int64           `gorm:"index" json:"post_id,omitempty"`
	Post        *Post            `json:"post,omitempty"`
	CommentID   *int64           `json:"comment_id,omitempty"`
	Read        bool             `gorm:"default:false;index" json:"read"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
