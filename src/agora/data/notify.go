package data

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/types"
)

const streamNotifications = "agora.notifications"

// Emitter records notifications and publishes them on the Redis stream for
// out-of-process consumers. It is fire-and-forget: the triggering mutation
// has already committed, so failures here are logged and swallowed.
type Emitter struct {
	db  *gorm.DB
	rdb *redis.Client // nil when Redis is not configured
}

func NewEmitter(db *gorm.DB, rdb *redis.Client) *Emitter {
	return &Emitter{db: db, rdb: rdb}
}

func (e *Emitter) Emit(ctx context.Context, recipientID uint64, message, link string) {
	n := types.Notification{
		UserID:  recipientID,
		Message: message,
		Link:    link,
	}
	if err := e.db.WithContext(ctx).Create(&n).Error; err != nil {
		log.Printf("notify: store for user %d: %v", recipientID, err)
		return
	}

	if e.rdb == nil {
		return
	}
	_, err := e.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamNotifications,
		Values: map[string]interface{}{
			"id":        n.ID,
			"recipient": n.UserID,
			"message":   n.Message,
			"link":      n.Link,
			"time":      n.CreatedAt.Unix(),
		},
	}).Result()
	if err != nil {
		log.Printf("notify: publish for user %d: %v", recipientID, err)
	}
}

// Notifications returns the recipient's notifications, newest first.
func Notifications(db *gorm.DB, userID uint64) ([]types.Notification, error) {
	var out []types.Notification
	err := db.Where("user_id = ?", userID).Order("created_at desc, id desc").Find(&out).Error
	if out == nil {
		out = []types.Notification{}
	}
	return out, err
}

func GetNotification(db *gorm.DB, id uint64) (types.Notification, error) {
	var n types.Notification
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return n, types.ErrNotFound
		}
		return n, err
	}
	return n, nil
}

// MarkRead flips is_read; only the recipient may do this (checked by the
// caller against policy before mutation).
func MarkRead(db *gorm.DB, id uint64) (types.Notification, error) {
	if err := db.Model(&types.Notification{}).Where("id = ?", id).
		Update("is_read", true).Error; err != nil {
		return types.Notification{}, err
	}
	return GetNotification(db, id)
}
