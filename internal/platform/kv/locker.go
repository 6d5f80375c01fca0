package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"creativerse/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Lock is a held lease. Release is safe to call more than once.
type Lock interface {
	Release(ctx context.Context) error
}

// RedisLocker takes leases with SET NX PX and releases them only while still the owner.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Acquire returns common.ErrLockHeld when another holder owns key.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	value := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, common.ErrLockHeld
	}
	return &redisLock{rdb: l.rdb, key: key, value: value}, nil
}

type redisLock struct {
	rdb   *redis.Client
	key   string
	value string
	once  sync.Once
}

func (l *redisLock) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		var deleted int64
		deleted, err = releaseScript.Run(ctx, l.rdb, []string{l.key}, l.value).Int64()
		if err != nil {
			err = fmt.Errorf("release %s: %w", l.key, err)
			return
		}
		if deleted == 0 {
			log.Warn().Str("key", l.key).Msg("lock expired or was taken over before release")
		}
	})
	return err
}

// LocalLocker is the in-process equivalent for a single API instance.
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]localLease
	now    func() time.Time
}

type localLease struct {
	token   string
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: map[string]localLease{}, now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	if cur, ok := l.leases[key]; ok && t.Before(cur.expires) {
		return nil, common.ErrLockHeld
	}
	token := uuid.NewString()
	l.leases[key] = localLease{token: token, expires: t.Add(ttl)}
	return &localLock{owner: l, key: key, token: token}, nil
}

type localLock struct {
	owner *LocalLocker
	key   string
	token string
}

func (l *localLock) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	if cur, ok := l.owner.leases[l.key]; ok && cur.token == l.token {
		delete(l.owner.leases, l.key)
	}
	return nil
}
