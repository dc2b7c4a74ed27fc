// Package idempotency provides a Redis-backed run lock so that scheduled
// pipeline runs never overlap across process replicas.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAlreadyRunning is returned when another holder owns the lock.
var ErrAlreadyRunning = errors.New("run already in progress")

// Locker serializes named operations across replicas.
type Locker interface {
	// Acquire takes the named lock for at most ttl. It returns
	// ErrAlreadyRunning when another holder owns it.
	Acquire(ctx context.Context, name string, ttl time.Duration) error
	// Release drops the named lock if this process still owns it.
	Release(ctx context.Context, name string) error
	// Exec runs fn under the named lock. When the lock is held elsewhere it
	// returns ErrAlreadyRunning without calling fn.
	Exec(ctx context.Context, name string, ttl time.Duration, fn func(context.Context) error) error
}

// RunLock is a Locker backed by Redis SET NX.
type RunLock struct {
	client *redis.Client
	prefix string
	token  string
}

// NewRunLock constructs a RunLock. The token identifies this process so a
// release never drops a lock re-acquired by another replica after expiry.
func NewRunLock(client *redis.Client, token string) *RunLock {
	return &RunLock{
		client: client,
		prefix: "runlock:",
		token:  token,
	}
}

// Acquire takes the named lock for at most ttl.
func (r *RunLock) Acquire(ctx context.Context, name string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, r.prefix+name, r.token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyRunning
	}
	return nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Release drops the named lock if this process still owns it.
func (r *RunLock) Release(ctx context.Context, name string) error {
	return releaseScript.Run(ctx, r.client, []string{r.prefix + name}, r.token).Err()
}

// Exec runs fn under the named lock.
func (r *RunLock) Exec(ctx context.Context, name string, ttl time.Duration, fn func(context.Context) error) error {
	if err := r.Acquire(ctx, name, ttl); err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = r.Release(releaseCtx, name)
	}()

	return fn(ctx)
}
