package services

import (
	"context"
	"encoding/json"
	"time"

	"famledger/internal/logger"
	"famledger/internal/models"

	"gorm.io/gorm"
)

// auditService handles audit log recording.
type auditService struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, timeout time.Duration) AuditServicer {
	return &auditService{db: db, timeout: timeout}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, chatID int64, userID, action, resourceID string, details map[string]any) {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log details", "error", err, "action", action)
			detailsJSON = "{}"
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		ChatID:     chatID,
		UserID:     userID,
		Action:     action,
		ResourceID: resourceID,
		Details:    detailsJSON,
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"chat_id", chatID,
			"user_id", userID,
			"action", action,
			"resource_id", resourceID,
		)
	}
}
