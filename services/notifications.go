package services

import (
	"context"
	"log"
	"time"

	"pixelgram/db"
	"pixelgram/models"
)

const notificationPageSize = 20

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Emit записывает уведомление. Ошибки логируются и проглатываются:
// уведомление никогда не должно валить породившую его операцию.
// Для LIKE и FOLLOW строка переиспользуется по ключу
// (recipient, issuer, type, post) - у FOLLOW post отсутствует, так что
// дедупликация идет по тройке (recipient, issuer, type)
func (ns *NotificationService) Emit(ctx context.Context, recipientID, issuerID int64, ntype models.NotificationType, postID, commentID *int64) {
	// самому себе уведомления не шлем
	if recipientID == issuerID {
		return
	}

	if ntype == models.NotifyLike || ntype == models.NotifyFollow {
		q := db.GetWriteDB(ctx).Model(&models.Notification{}).
			Where("recipient_id = ? AND issuer_id = ? AND type = ?", recipientID, issuerID, ntype)
		if postID != nil {
			q = q.Where("post_id = ?", *postID)
		} else {
			q = q.Where("post_id IS NULL")
		}

		var existing models.Notification
		if err := q.First(&existing).Error; err == nil {
			// есть такая же - освежаем время и снова помечаем непрочитанной
			err = db.GetWriteDB(ctx).Model(&models.Notification{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{"created_at": time.Now(), "read": false}).Error
			if err != nil {
				log.Printf("WARN: failed to refresh notification %d: %v", existing.ID, err)
			}
			ns.push(ctx, recipientID, issuerID, ntype, postID)
			return
		}
	}

	notification := &models.Notification{
		RecipientID: recipientID,
		IssuerID:    issuerID,
		Type:        ntype,
		PostID:      postID,
		CommentID:   commentID,
		CreatedAt:   time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(notification).Error; err != nil {
		log.Printf("WARN: failed to create %s notification for user %d: %v", ntype, recipientID, err)
		return
	}
	ns.push(ctx, recipientID, issuerID, ntype, postID)
}

// push доставляет событие онлайн-получателю: через RabbitMQ, а при
// недоступном брокере - напрямую в WebSocket-соединения
func (ns *NotificationService) push(ctx context.Context, recipientID, issuerID int64, ntype models.NotificationType, postID *int64) {
	event := NotifyEvent{
		RecipientID: recipientID,
		IssuerID:    issuerID,
		Type:        string(ntype),
		PostID:      postID,
		CreatedAt:   time.Now(),
	}
	if err := PublishNotifyEvent(ctx, event); err != nil {
		GlobalWSConnManager.SendEvent(recipientID, event)
	}
}

// List возвращает свежие уведомления получателя с данными инициатора и поста
func (ns *NotificationService) List(ctx context.Context, recipientID int64) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.GetReadOnlyDB(ctx).
		Preload("Issuer").
		Preload("Post").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(notificationPageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (ns *NotificationService) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAllRead вызывается при открытии страницы уведомлений
func (ns *NotificationService) MarkAllRead(ctx context.Context, recipientID int64) error {
	return db.GetWriteDB(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
}
