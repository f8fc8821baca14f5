package repositories

import (
	"github.com/campuslink-app/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateBatch(notifications []models.Notification) error
	GetByRecipientID(recipientID uint) ([]models.Notification, error)
	GetByID(id uint) (*models.Notification, error)
	MarkAsRead(id uint) error
	MarkAllAsRead(recipientID uint) error
	DeleteByContent(contentType, contentID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a NotificationRepository backed
// by PostgreSQL
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// CreateBatch bulk-inserts the fan-out rows for one content item.
func (r *postgresNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.CreateInBatches(notifications, 500).Error
}

// GetByRecipientID returns the recipient's rows, priority first then newest
// first.
func (r *postgresNotificationRepository) GetByRecipientID(recipientID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("priority DESC, created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkAsRead flips the read flag. Marking an already-read row is a no-op.
func (r *postgresNotificationRepository) MarkAsRead(id uint) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}

// DeleteByContent removes every row referencing a content item; called when
// the item itself is deleted.
func (r *postgresNotificationRepository) DeleteByContent(contentType, contentID string) error {
	return r.db.Where("content_type = ? AND content_id = ?", contentType, contentID).
		Delete(&models.Notification{}).Error
}
