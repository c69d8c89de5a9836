package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"famledger/internal/auth"
	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/models"
)

// MaxListLimit caps the number of rows a listing may return.
const MaxListLimit = 100

// StoreConfig tunes the transaction store.
type StoreConfig struct {
	// QueryTimeout bounds every database call.
	QueryTimeout time.Duration
	// Location defines month boundaries for summaries.
	Location *time.Location
}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db         *gorm.DB
	authorizer auth.Authorizer
	audit      AuditServicer
	cfg        StoreConfig
	now        func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, authorizer auth.Authorizer, audit AuditServicer, cfg StoreConfig) TransactionServicer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &transactionService{
		db:         db,
		authorizer: authorizer,
		audit:      audit,
		cfg:        cfg,
		now:        time.Now,
	}
}

// authorize resolves chatID and records denied attempts.
func (s *transactionService) authorize(ctx context.Context, chatID int64, op string) (*models.User, error) {
	user, err := s.authorizer.Authorize(ctx, chatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			logger.Get().Infow("unauthorized store access", "chat_id", chatID, "operation", op)
			s.audit.Log(ctx, chatID, "", AuditActionUnauthorized, "", map[string]interface{}{"operation": op})
		}
		return nil, err
	}
	return user, nil
}

// scoped applies the self or family filter for user.
func scoped(q *gorm.DB, user *models.User, scope models.Scope) *gorm.DB {
	if scope == models.ScopeFamily {
		return q.Where("transactions.family_id = ?", user.FamilyID)
	}
	return q.Where("transactions.user_id = ?", user.ID)
}

// Insert stores draft for the requester. The family is always taken from
// the requester's record.
func (s *transactionService) Insert(ctx context.Context, chatID int64, draft *models.Draft) (*models.Transaction, error) {
	user, err := s.authorize(ctx, chatID, "insert")
	if err != nil {
		return nil, err
	}

	if draft == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction is required")
	}
	amount := draft.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	transaction := &models.Transaction{
		Type:        models.ParseTransactionType(string(draft.Type)),
		Amount:      amount,
		Category:    draft.Category,
		Description: draft.Description,
		CreatedAt:   createdAt,
		UserID:      user.ID,
		FamilyID:    user.FamilyID,
	}

	qctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	if err := s.db.WithContext(qctx).Omit("User").Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	transaction.User = user

	s.audit.Log(ctx, chatID, user.ID, AuditActionInsert, transaction.ID, map[string]interface{}{
		"type":     transaction.Type,
		"amount":   transaction.Amount.StringFixed(2),
		"category": transaction.Category,
	})

	return transaction, nil
}

// Recent returns the newest transactions in scope, newest first, with
// their authors loaded.
func (s *transactionService) Recent(ctx context.Context, chatID int64, scope models.Scope, limit int) ([]models.Transaction, error) {
	user, err := s.authorize(ctx, chatID, "recent")
	if err != nil {
		return nil, err
	}
	if !scope.Valid() {
		return nil, apperrors.ErrInvalidScope
	}
	limit = clampLimit(limit)

	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	var transactions []models.Transaction
	q := scoped(s.db.WithContext(ctx).Model(&models.Transaction{}), user, scope)
	if err := q.Preload("User").
		Order("transactions.created_at DESC").
		Order("transactions.id DESC").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}

	return transactions, nil
}

// MonthlySummary totals the month's transactions in scope by category.
// Both ends of the month are included.
func (s *transactionService) MonthlySummary(ctx context.Context, chatID int64, scope models.Scope, year int, month time.Month) (*MonthlySummary, error) {
	user, err := s.authorize(ctx, chatID, "monthly_summary")
	if err != nil {
		return nil, err
	}
	if !scope.Valid() {
		return nil, apperrors.ErrInvalidScope
	}
	if month < time.January || month > time.December {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}

	from, to := monthBounds(year, month, s.cfg.Location)

	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	var rows []models.Transaction
	q := scoped(s.db.WithContext(ctx).Model(&models.Transaction{}), user, scope)
	if err := q.Select("category", "amount").
		Where("transactions.created_at >= ? AND transactions.created_at <= ?", from.UTC(), to.UTC()).
		Order("transactions.created_at ASC").
		Order("transactions.id ASC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}

	return newMonthlySummary(year, month, rows), nil
}

// DeleteLast removes the newest transaction in scope and returns it.
// It returns nil, nil when there is nothing to delete.
func (s *transactionService) DeleteLast(ctx context.Context, chatID int64, scope models.Scope) (*models.Transaction, error) {
	user, err := s.authorize(ctx, chatID, "delete_last")
	if err != nil {
		return nil, err
	}
	if !scope.Valid() {
		return nil, apperrors.ErrInvalidScope
	}

	qctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	var deleted *models.Transaction
	err = s.db.WithContext(qctx).Transaction(func(tx *gorm.DB) error {
		var last models.Transaction
		q := scoped(tx.Model(&models.Transaction{}), user, scope)
		if err := q.Preload("User").
			Order("transactions.created_at DESC").
			Order("transactions.id DESC").
			First(&last).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("id = ?", last.ID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		deleted = &last
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}

	if deleted != nil {
		s.audit.Log(ctx, chatID, user.ID, AuditActionDelete, deleted.ID, map[string]interface{}{
			"scope":  scope,
			"amount": deleted.Amount.StringFixed(2),
		})
	}
	return deleted, nil
}

// monthBounds returns the first and last instants of the month in loc.
func monthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}

func clampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
