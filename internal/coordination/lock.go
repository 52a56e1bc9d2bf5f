// Package coordination keeps two processing runs from overlapping when
// several feedbacklens instances share one database.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL bounds how long a crashed holder can block other runs.
const DefaultLockTTL = 10 * time.Minute

var (
	// ErrLockNotAcquired is returned when another instance holds the run lock.
	ErrLockNotAcquired = errors.New("run lock held by another instance")

	// ErrLockNotHeld is returned when releasing a lock this instance does not hold.
	ErrLockNotHeld = errors.New("run lock not held")
)

// Locker guards a processing run.
type Locker interface {
	// TryLock acquires the lock without blocking. It returns
	// ErrLockNotAcquired when the lock is held elsewhere.
	TryLock(ctx context.Context) error
	// Refresh restarts the TTL of a held lock. It returns ErrLockNotHeld
	// when the lock expired and was taken by someone else.
	Refresh(ctx context.Context) error
	Unlock(ctx context.Context) error
}

var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

var refreshScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RunLock is a single-key advisory lock in Redis.
type RunLock struct {
	client redis.UniversalClient
	key    string
	token  string
	ttl    time.Duration
}

// NewRunLock creates a lock on key. A fresh token identifies this holder.
func NewRunLock(client redis.UniversalClient, key string, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RunLock{
		client: client,
		key:    key,
		token:  uuid.New().String(),
		ttl:    ttl,
	}
}

// TryLock sets the key if it is absent.
func (l *RunLock) TryLock(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}
	return nil
}

// Unlock deletes the key if it still carries this holder's token.
func (l *RunLock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("releasing run lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Refresh extends the key's TTL if it still carries this holder's token.
func (l *RunLock) Refresh(ctx context.Context) error {
	n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("refreshing run lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// TTL returns the lifetime set on every acquire and refresh.
func (l *RunLock) TTL() time.Duration { return l.ttl }

// Key returns the lock key.
func (l *RunLock) Key() string { return l.key }

// NopLock always succeeds. It is used when no Redis address is configured.
type NopLock struct{}

func (NopLock) TryLock(context.Context) error { return nil }
func (NopLock) Refresh(context.Context) error { return nil }
func (NopLock) Unlock(context.Context) error  { return nil }

// KeepAlive refreshes l every interval until stop is called or ctx is done.
// Refresh failures go to onErr and do not end the loop. stop waits for the
// refresh goroutine to exit.
func KeepAlive(ctx context.Context, l Locker, every time.Duration, onErr func(error)) (stop func()) {
	if every <= 0 {
		every = DefaultLockTTL / 3
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Refresh(ctx); err != nil && ctx.Err() == nil && onErr != nil {
					onErr(err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
