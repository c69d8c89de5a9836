package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
	"famledger/internal/pagination"
)

// userService handles authorized-user business logic.
type userService struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, timeout time.Duration) UserServicer {
	return &userService{db: db, timeout: timeout}
}

// CreateUser provisions a new authorized user
func (s *userService) CreateUser(ctx context.Context, chatID int64, name, familyID string) (*models.User, error) {
	name = strings.TrimSpace(name)
	familyID = strings.TrimSpace(familyID)

	// Validate input
	if chatID == 0 || name == "" || familyID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "chat_id, name and family_id are required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	db := s.db.WithContext(ctx)

	// Check if the chat is already provisioned
	var count int64
	if err := db.Model(&models.User{}).Where("chat_id = ?", chatID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateChatID
	}

	user := &models.User{
		ChatID:   chatID,
		Name:     name,
		FamilyID: familyID,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}

	return user, nil
}

// FindByChatID retrieves a user by chat ID
func (s *userService) FindByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return &user, nil
}

// ListUsers retrieves a page of authorized users, oldest first.
func (s *userService) ListUsers(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	page.Normalize()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	base := s.db.WithContext(ctx).Model(&models.User{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}

	var users []models.User
	if err := base.Scopes(pagination.Paginate(page, "created_at ASC")).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}

	result := pagination.NewPageResponse(users, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListAuthorized returns every authorized user.
func (s *userService) ListAuthorized(ctx context.Context) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return users, nil
}
