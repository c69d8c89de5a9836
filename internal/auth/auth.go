// Package auth decides whether a chat identity belongs to an authorized
// family member. Unknown identities are an expected outcome reported as
// ErrUnauthorized; infrastructure problems are reported separately.
package auth

import (
	"context"
	"fmt"
	"time"

	"famledger/internal/config"
	"famledger/internal/models"
)

// UserSource is the persistent table of authorized users.
type UserSource interface {
	// ListAuthorized returns every authorized user.
	ListAuthorized(ctx context.Context) ([]models.User, error)
	// FindByChatID returns apperrors.ErrNotFound when no user has chatID.
	FindByChatID(ctx context.Context, chatID int64) (*models.User, error)
}

// Authorizer resolves chat identities to users.
type Authorizer interface {
	// Authorize returns the user for chatID or an error matching
	// apperrors.ErrUnauthorized when the identity is not known.
	Authorize(ctx context.Context, chatID int64) (*models.User, error)
	// ForceRefresh discards any cached state and reloads it now.
	ForceRefresh(ctx context.Context) error
}

// New builds the Authorizer selected by strategy.
func New(strategy string, source UserSource, ttl time.Duration) (Authorizer, error) {
	switch strategy {
	case config.AuthStrategyTTL:
		return NewTTLCache(source, ttl), nil
	case config.AuthStrategyDirect:
		return NewDirectAuthorizer(source), nil
	default:
		return nil, fmt.Errorf("unknown authorization strategy %q", strategy)
	}
}
