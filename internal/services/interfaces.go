package services

import (
	"context"
	"time"

	"famledger/internal/models"
	"famledger/internal/pagination"
)

// UserServicer defines the contract for authorized-user provisioning and
// lookup. It is also the persistent source behind the authorizer.
type UserServicer interface {
	CreateUser(ctx context.Context, chatID int64, name, familyID string) (*models.User, error)
	FindByChatID(ctx context.Context, chatID int64) (*models.User, error)
	ListUsers(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	ListAuthorized(ctx context.Context) ([]models.User, error)
}

// TransactionServicer defines the contract for the transaction store. Every
// method authorizes chatID itself; callers never pass a user or family.
type TransactionServicer interface {
	Insert(ctx context.Context, chatID int64, draft *models.Draft) (*models.Transaction, error)
	Recent(ctx context.Context, chatID int64, scope models.Scope, limit int) ([]models.Transaction, error)
	MonthlySummary(ctx context.Context, chatID int64, scope models.Scope, year int, month time.Month) (*MonthlySummary, error)
	DeleteLast(ctx context.Context, chatID int64, scope models.Scope) (*models.Transaction, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, chatID int64, userID, action, resourceID string, details map[string]interface{})
}

// Audit actions.
const (
	AuditActionUnauthorized = "unauthorized_attempt"
	AuditActionInsert       = "transaction_created"
	AuditActionDelete       = "transaction_deleted"
	AuditActionRefresh      = "auth_cache_refreshed"
	AuditActionUserCreated  = "user_created"
)
