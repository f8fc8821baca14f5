package models

import "time"

// Notification is the durable fan-out record (PostgreSQL). One row is
// written per existing user when a post or poll is created; rows are removed
// when the referenced content is deleted.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index:idx_recipient_read"`
	ContentType string    `json:"content_type" gorm:"size:10;index:idx_content_ref"`
	ContentID   string    `json:"content_id" gorm:"size:24;index:idx_content_ref"` // Mongo ObjectID hex
	Priority    bool      `json:"priority"`
	IsRead      bool      `json:"read" gorm:"default:false;index:idx_recipient_read"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
