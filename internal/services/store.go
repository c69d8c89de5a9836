package services

import (
	"context"
	"time"
)

// DefaultQueryTimeout bounds a store call when no timeout is configured.
const DefaultQueryTimeout = 10 * time.Second

// withTimeout bounds a single store operation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, d)
}
