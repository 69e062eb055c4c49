// Package distlock provides a best-effort distributed lock, used to keep
// two processes from launching the same campaign at the same time. With a
// Redis client it locks across hosts; without one it degrades to an
// in-process lock, which still covers the single-binary deployment.
package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a non-blocking, single-owner lock.
type Lock interface {
	// TryAcquire attempts to take the lock. Returns false when another
	// holder owns it.
	TryAcquire(ctx context.Context) (bool, error)
	// Release frees the lock if still owned by this instance.
	Release(ctx context.Context) error
}

// New returns a lock for key. Redis-backed when client is non-nil,
// otherwise process-local.
func New(client *redis.Client, key string, ttl time.Duration) Lock {
	if client != nil {
		return newRedisLock(client, key, ttl)
	}
	return newLocalLock(key)
}

// redisLock uses SET NX with a TTL and a random ownership value; release
// goes through a Lua script so an expired lock taken over by another holder
// is never deleted.
type redisLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

func newRedisLock(client *redis.Client, key string, ttl time.Duration) *redisLock {
	b := make([]byte, 16)
	rand.Read(b)
	return &redisLock{
		client: client,
		key:    fmt.Sprintf("lock:%s", key),
		value:  hex.EncodeToString(b),
		ttl:    ttl,
	}
}

func (l *redisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

func (l *redisLock) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Result()
	return err
}

// localLock coordinates within one process through a shared key set.
type localLock struct {
	key  string
	held bool
}

var (
	localMu   sync.Mutex
	localHeld = make(map[string]struct{})
)

func newLocalLock(key string) *localLock {
	return &localLock{key: key}
}

func (l *localLock) TryAcquire(ctx context.Context) (bool, error) {
	localMu.Lock()
	defer localMu.Unlock()
	if _, taken := localHeld[l.key]; taken {
		return false, nil
	}
	localHeld[l.key] = struct{}{}
	l.held = true
	return true, nil
}

func (l *localLock) Release(ctx context.Context) error {
	localMu.Lock()
	defer localMu.Unlock()
	if l.held {
		delete(localHeld, l.key)
		l.held = false
	}
	return nil
}
