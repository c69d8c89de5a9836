package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditLog records security-relevant bot activity: unauthorized attempts,
// inserts, deletions and cache refreshes.
type AuditLog struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID     int64     `gorm:"index" json:"chat_id"`
	UserID     string    `json:"user_id,omitempty"`
	Action     string    `gorm:"not null" json:"action"`
	ResourceID string    `json:"resource_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}
