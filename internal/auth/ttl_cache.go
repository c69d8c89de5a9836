package auth

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/models"
)

// DefaultTTL is used when NewTTLCache is given a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// DefaultRetryBackoff is the pause after a failed reload before Authorize
// tries the source again. It never exceeds the TTL.
const DefaultRetryBackoff = 30 * time.Second

// snapshot is never mutated after it is published.
type snapshot struct {
	byChatID map[int64]models.User
	loadedAt time.Time
}

// TTLCache keeps the whole authorized-user table in memory and reloads it
// when it is older than the TTL. A failed reload keeps the previous table
// and is not retried until the backoff has passed. Before the first
// successful load every identity is unauthorized.
type TTLCache struct {
	source  UserSource
	ttl     time.Duration
	backoff time.Duration
	now     func() time.Time
	log     *zap.SugaredLogger

	snap  atomic.Pointer[snapshot]
	group singleflight.Group
	// failedAt is the UnixNano of the last failed load, zero after a success.
	failedAt atomic.Int64
}

// TTLOption customizes a TTLCache.
type TTLOption func(*TTLCache)

// WithClock overrides the clock used to age the snapshot.
func WithClock(now func() time.Time) TTLOption {
	return func(c *TTLCache) { c.now = now }
}

// WithRetryBackoff sets how long Authorize waits after a failed reload
// before querying the source again.
func WithRetryBackoff(d time.Duration) TTLOption {
	return func(c *TTLCache) { c.backoff = d }
}

// NewTTLCache creates an empty cache. The first Authorize call loads it.
func NewTTLCache(source UserSource, ttl time.Duration, opts ...TTLOption) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TTLCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		log:    logger.Named("auth"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backoff <= 0 || c.backoff > c.ttl {
		c.backoff = min(DefaultRetryBackoff, c.ttl)
	}
	return c
}

// Authorize serves from the snapshot, refreshing it first when stale.
func (c *TTLCache) Authorize(ctx context.Context, chatID int64) (*models.User, error) {
	s := c.snap.Load()
	if (s == nil || c.now().Sub(s.loadedAt) > c.ttl) && c.retryDue() {
		if err := c.refresh(ctx); err != nil {
			c.log.Warnw("authorized user refresh failed, serving last known set",
				"error", err,
				"have_snapshot", s != nil,
			)
		}
		s = c.snap.Load()
	}

	if s == nil {
		return nil, apperrors.ErrUnauthorized
	}
	user, ok := s.byChatID[chatID]
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	return &user, nil
}

// ForceRefresh reloads the table immediately and reports any failure.
func (c *TTLCache) ForceRefresh(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

// Len returns the number of users in the current snapshot.
func (c *TTLCache) Len() int {
	s := c.snap.Load()
	if s == nil {
		return 0
	}
	return len(s.byChatID)
}

// retryDue reports whether the backoff after the last failed load has passed.
func (c *TTLCache) retryDue() bool {
	failed := c.failedAt.Load()
	if failed == 0 {
		return true
	}
	return c.now().Sub(time.Unix(0, failed)) >= c.backoff
}

// refresh builds a fresh map and swaps it in. Concurrent callers share one
// load.
func (c *TTLCache) refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		users, err := c.source.ListAuthorized(ctx)
		if err != nil {
			c.failedAt.Store(c.now().UnixNano())
			return nil, err
		}

		byChatID := make(map[int64]models.User, len(users))
		for _, u := range users {
			byChatID[u.ChatID] = u
		}
		c.snap.Store(&snapshot{byChatID: byChatID, loadedAt: c.now()})
		c.failedAt.Store(0)

		c.log.Infow("authorized users loaded", "count", len(byChatID))
		return nil, nil
	})
	return err
}
