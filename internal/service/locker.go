package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/Avstn1/shearworkWEB-sub002/pkg/errors"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/redis"
)

// KeyLocker 按 (用户, 平台) 串行化拉取
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ── Redis 分布式锁（多实例部署） ──

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker 基于 Redis SETNX 的锁，持有方未释放时轮询等待直到 ctx 结束
func NewRedisLocker(client *redis.Client, ttl time.Duration) KeyLocker {
	return &redisLocker{client: client, ttl: ttl, retry: 100 * time.Millisecond}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", pkgerrors.ErrLockNotAcquired, ctx.Err())
		}
		release, err := l.client.TryLock(ctx, key, l.ttl)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", pkgerrors.ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ── 进程内锁（未配置 Redis 时降级） ──

type localLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker 进程内按键互斥
func NewLocalLocker() KeyLocker {
	return &localLocker{slots: make(map[string]chan struct{})}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrLockNotAcquired, ctx.Err())
	}
}
