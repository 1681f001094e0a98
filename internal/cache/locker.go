package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrLockBusy = errors.New("system busy, please try again later (lock)")

// Locker serializes work on a key. The returned unlock func is safe to call
// more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type lockBackend interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// RedisLocker is a lease lock shared by every process using the same Redis.
type RedisLocker struct {
	backend  lockBackend
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

func NewRedisLocker(client *RedisClient) *RedisLocker {
	return &RedisLocker{
		backend:  client,
		ttl:      5 * time.Second,
		attempts: 20,
		backoff:  50 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	for i := 0; i < l.attempts; i++ {
		ok, err := l.backend.AcquireLock(ctx, key, token, l.ttl)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil && ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// the caller's ctx may already be done; release on our own deadline
					rctx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					_ = l.backend.ReleaseLock(rctx, key, token)
				})
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	return nil, ErrLockBusy
}

// LocalLocker is an in-process keyed mutex for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ll, ok := l.locks[key]
	if !ok {
		ll = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = ll
	}
	ll.refs++
	l.mu.Unlock()

	select {
	case ll.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-ll.ch
				l.release(key, ll)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, ll)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(key string, ll *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ll.refs--
	if ll.refs == 0 {
		delete(l.locks, key)
	}
}
