package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"famledger/internal/config"
	apperrors "famledger/internal/errors"
	"famledger/internal/models"
	"famledger/internal/testutil"
)

// --- fake user source ---

type fakeSource struct {
	mu      sync.Mutex
	users   []models.User
	err     error
	calls   atomic.Int32
	release chan struct{}
}

func (f *fakeSource) ListAuthorized(ctx context.Context) ([]models.User, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeSource) FindByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ChatID == chatID {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeSource) set(users []models.User, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = users
	f.err = err
}

var (
	alice = models.User{ID: "u-alice", ChatID: 111, Name: "Alice", FamilyID: "smiths"}
	bob   = models.User{ID: "u-bob", ChatID: 222, Name: "Bob", FamilyID: "smiths"}
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTTLCache_Authorize(t *testing.T) {
	t.Run("known_and_unknown", func(t *testing.T) {
		src := &fakeSource{users: []models.User{alice, bob}}
		c := NewTTLCache(src, time.Minute)

		user, err := c.Authorize(context.Background(), 111)
		testutil.AssertNoError(t, err)
		if user.Name != "Alice" || user.FamilyID != "smiths" {
			t.Errorf("unexpected user: %+v", user)
		}

		_, err = c.Authorize(context.Background(), 999)
		testutil.AssertAppError(t, err, apperrors.ErrUnauthorized.Code)

		if n := src.calls.Load(); n != 1 {
			t.Errorf("expected a single load, got %d", n)
		}
	})

	t.Run("served_from_memory_within_ttl", func(t *testing.T) {
		clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		src := &fakeSource{users: []models.User{alice}}
		c := NewTTLCache(src, 5*time.Minute, WithClock(clk.now))

		_, _ = c.Authorize(context.Background(), 111)
		src.set([]models.User{alice, bob}, nil)
		clk.advance(4 * time.Minute)

		_, err := c.Authorize(context.Background(), 222)
		testutil.AssertAppError(t, err, apperrors.ErrUnauthorized.Code)
		if n := src.calls.Load(); n != 1 {
			t.Errorf("expected no reload inside the TTL, got %d loads", n)
		}
	})

	t.Run("reloads_after_ttl", func(t *testing.T) {
		clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		src := &fakeSource{users: []models.User{alice}}
		c := NewTTLCache(src, 5*time.Minute, WithClock(clk.now))

		_, _ = c.Authorize(context.Background(), 111)
		src.set([]models.User{alice, bob}, nil)
		clk.advance(6 * time.Minute)

		user, err := c.Authorize(context.Background(), 222)
		testutil.AssertNoError(t, err)
		if user.Name != "Bob" {
			t.Errorf("expected Bob, got %s", user.Name)
		}
		if c.Len() != 2 {
			t.Errorf("expected 2 cached users, got %d", c.Len())
		}
	})

	t.Run("failed_reload_keeps_last_snapshot", func(t *testing.T) {
		clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		src := &fakeSource{users: []models.User{alice}}
		c := NewTTLCache(src, 5*time.Minute, WithClock(clk.now))

		_, _ = c.Authorize(context.Background(), 111)
		src.set(nil, errors.New("connection reset"))
		clk.advance(10 * time.Minute)

		user, err := c.Authorize(context.Background(), 111)
		testutil.AssertNoError(t, err)
		if user.ID != alice.ID {
			t.Errorf("expected stale alice, got %+v", user)
		}
	})

	t.Run("unauthorized_until_first_success", func(t *testing.T) {
		clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		src := &fakeSource{err: errors.New("database down")}
		c := NewTTLCache(src, time.Minute, WithClock(clk.now), WithRetryBackoff(10*time.Second))

		_, err := c.Authorize(context.Background(), 111)
		testutil.AssertAppError(t, err, apperrors.ErrUnauthorized.Code)

		src.set([]models.User{alice}, nil)
		clk.advance(10 * time.Second)
		_, err = c.Authorize(context.Background(), 111)
		testutil.AssertNoError(t, err)
	})

	t.Run("failed_reload_backs_off", func(t *testing.T) {
		clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		src := &fakeSource{users: []models.User{alice}}
		c := NewTTLCache(src, 5*time.Minute, WithClock(clk.now), WithRetryBackoff(30*time.Second))

		_, _ = c.Authorize(context.Background(), 111)
		src.set(nil, errors.New("connection reset"))
		clk.advance(10 * time.Minute)

		for i := 0; i < 10; i++ {
			user, err := c.Authorize(context.Background(), 111)
			testutil.AssertNoError(t, err)
			if user.ID != alice.ID {
				t.Fatalf("expected stale alice, got %+v", user)
			}
		}
		if n := src.calls.Load(); n != 2 {
			t.Errorf("expected one failed reload after the initial load, got %d loads", n)
		}

		clk.advance(29 * time.Second)
		_, _ = c.Authorize(context.Background(), 111)
		if n := src.calls.Load(); n != 2 {
			t.Errorf("expected no retry inside the backoff, got %d loads", n)
		}

		src.set([]models.User{alice, bob}, nil)
		clk.advance(time.Second)
		_, err := c.Authorize(context.Background(), 222)
		testutil.AssertNoError(t, err)
		if n := src.calls.Load(); n != 3 {
			t.Errorf("expected a retry once the backoff passed, got %d loads", n)
		}
	})

	t.Run("backoff_never_exceeds_ttl", func(t *testing.T) {
		c := NewTTLCache(&fakeSource{}, 10*time.Second, WithRetryBackoff(time.Hour))
		if c.backoff != 10*time.Second {
			t.Errorf("backoff = %v, want 10s", c.backoff)
		}
	})

	t.Run("returned_user_is_a_copy", func(t *testing.T) {
		src := &fakeSource{users: []models.User{alice}}
		c := NewTTLCache(src, time.Minute)

		user, _ := c.Authorize(context.Background(), 111)
		user.FamilyID = "mutated"

		again, _ := c.Authorize(context.Background(), 111)
		if again.FamilyID != "smiths" {
			t.Errorf("snapshot was mutated through returned pointer: %s", again.FamilyID)
		}
	})
}

func TestTTLCache_ConcurrentRefreshCoalesced(t *testing.T) {
	src := &fakeSource{users: []models.User{alice}, release: make(chan struct{})}
	c := NewTTLCache(src, time.Minute)

	const callers = 20
	var wg sync.WaitGroup
	var authorized atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Authorize(context.Background(), 111); err == nil {
				authorized.Add(1)
			}
		}()
	}

	// Let the callers pile up on the in-flight load before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if n := src.calls.Load(); n > 2 {
		t.Errorf("expected concurrent refreshes to be coalesced, got %d loads", n)
	}
	if authorized.Load() != callers {
		t.Errorf("expected all %d callers authorized, got %d", callers, authorized.Load())
	}
}

func TestTTLCache_ForceRefresh(t *testing.T) {
	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	src := &fakeSource{users: []models.User{alice}}
	c := NewTTLCache(src, time.Hour, WithClock(clk.now))

	_, _ = c.Authorize(context.Background(), 111)
	src.set([]models.User{alice, bob}, nil)

	testutil.AssertNoError(t, c.ForceRefresh(context.Background()))
	if _, err := c.Authorize(context.Background(), 222); err != nil {
		t.Errorf("expected bob after forced refresh, got %v", err)
	}

	src.set(nil, errors.New("boom"))
	err := c.ForceRefresh(context.Background())
	testutil.AssertAppError(t, err, apperrors.ErrStoreFailure.Code)

	if _, err := c.Authorize(context.Background(), 222); err != nil {
		t.Errorf("failed forced refresh should keep the snapshot, got %v", err)
	}
}

func TestDirectAuthorizer(t *testing.T) {
	src := &fakeSource{users: []models.User{alice}}
	a := NewDirectAuthorizer(src)

	user, err := a.Authorize(context.Background(), 111)
	testutil.AssertNoError(t, err)
	if user.ID != alice.ID {
		t.Errorf("expected alice, got %+v", user)
	}

	_, err = a.Authorize(context.Background(), 333)
	testutil.AssertAppError(t, err, apperrors.ErrUnauthorized.Code)

	// New users are visible immediately.
	src.set([]models.User{alice, bob}, nil)
	_, err = a.Authorize(context.Background(), 222)
	testutil.AssertNoError(t, err)

	src.set(nil, errors.New("timeout"))
	_, err = a.Authorize(context.Background(), 111)
	testutil.AssertAppError(t, err, apperrors.ErrStoreFailure.Code)

	testutil.AssertNoError(t, a.ForceRefresh(context.Background()))
}

func TestNew(t *testing.T) {
	src := &fakeSource{}

	a, err := New(config.AuthStrategyTTL, src, time.Minute)
	testutil.AssertNoError(t, err)
	if _, ok := a.(*TTLCache); !ok {
		t.Errorf("expected *TTLCache, got %T", a)
	}

	a, err = New(config.AuthStrategyDirect, src, 0)
	testutil.AssertNoError(t, err)
	if _, ok := a.(*DirectAuthorizer); !ok {
		t.Errorf("expected *DirectAuthorizer, got %T", a)
	}

	if _, err := New("lru", src, time.Minute); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
