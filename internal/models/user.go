package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an authorized member of a family. Users are provisioned out-of-band
// and treated as immutable while the process runs.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    int64     `gorm:"uniqueIndex;not null" json:"chat_id"`
	Name      string    `gorm:"not null" json:"name"`
	FamilyID  string    `gorm:"not null;index" json:"family_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName maps User onto the authorized users table.
func (User) TableName() string { return "authorized_users" }

// BeforeCreate hook generates a UUIDv7 for new records
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}
