package auth

import (
	"context"
	"errors"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
)

// DirectAuthorizer queries the store on every call.
type DirectAuthorizer struct {
	source UserSource
}

// NewDirectAuthorizer creates a DirectAuthorizer.
func NewDirectAuthorizer(source UserSource) *DirectAuthorizer {
	return &DirectAuthorizer{source: source}
}

// Authorize looks chatID up in the store.
func (a *DirectAuthorizer) Authorize(ctx context.Context, chatID int64) (*models.User, error) {
	user, err := a.source.FindByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return user, nil
}

// ForceRefresh is a no-op: nothing is cached.
func (a *DirectAuthorizer) ForceRefresh(context.Context) error {
	return nil
}
