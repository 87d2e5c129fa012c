package repository

import (
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository handles database operations for relay notifications
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a relay notification record
func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

// FindUndelivered returns pending notifications for a user in a room,
// oldest first. Used to replay missed notifications when a client connects.
func (r *NotificationRepository) FindUndelivered(roomID, userID uuid.UUID) ([]model.Notification, error) {
	notifications := []model.Notification{}
	err := r.db.
		Where("room_id = ? AND target_user_id = ? AND delivered = false", roomID, userID).
		Order("created_at ASC").
		Find(&notifications).Error
	return notifications, err
}

// MarkDelivered flips the delivered flag for an acked notification
func (r *NotificationRepository) MarkDelivered(id uuid.UUID) error {
	return r.db.Model(&model.Notification{}).
		Where("id = ?", id).
		Update("delivered", true).Error
}

// DeleteOlderThan removes relay records created before the cutoff and
// returns how many were swept
func (r *NotificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.
		Where("created_at < ?", cutoff).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
