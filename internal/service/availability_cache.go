package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
	"github.com/Avstn1/shearworkWEB-sub002/internal/repository"
	applogger "github.com/Avstn1/shearworkWEB-sub002/pkg/logger"
)

// DefaultCacheTTL 缓存有效期
const DefaultCacheTTL = 5 * time.Minute

// CacheGateway 判断已持久化的时段是否可直接复用
type CacheGateway interface {
	// GetCached 命中时返回该次拉取的时段及其 fetched_at；任何存储错误都视为未命中
	GetCached(ctx context.Context, userID, source string, r model.DateRange) ([]model.Slot, time.Time, bool)
}

type cacheGateway struct {
	repo   *repository.Repository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewCacheGateway 创建 CacheGateway，now 为 nil 时使用 time.Now
func NewCacheGateway(repo *repository.Repository, ttl time.Duration, now func() time.Time, logger *zap.Logger) CacheGateway {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &cacheGateway{repo: repo, ttl: ttl, now: now, logger: logger}
}

// IsFresh 缓存年龄不超过 ttl 即有效（边界含等于）
func IsFresh(fetchedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(fetchedAt) <= ttl
}

func (c *cacheGateway) GetCached(ctx context.Context, userID, source string, r model.DateRange) ([]model.Slot, time.Time, bool) {
	fetchedAt, err := c.repo.DailySummary.LatestFetchedAt(ctx, userID, source, r)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logMiss(ctx, "查询汇总缓存失败", userID, source, err)
		}
		return nil, time.Time{}, false
	}
	if !IsFresh(fetchedAt, c.now(), c.ttl) {
		return nil, time.Time{}, false
	}

	// 最新汇总必须来自一次覆盖整个窗口的拉取
	if _, err := c.repo.PullLog.GetCovering(ctx, userID, source, r, fetchedAt); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logMiss(ctx, "查询拉取记录失败", userID, source, err)
		}
		return nil, time.Time{}, false
	}

	slots, err := c.repo.Slot.ListByFetchedAt(ctx, userID, source, r, fetchedAt)
	if err != nil {
		c.logMiss(ctx, "读取缓存时段失败", userID, source, err)
		return nil, time.Time{}, false
	}
	if len(slots) == 0 {
		return nil, time.Time{}, false
	}
	return slots, fetchedAt, true
}

func (c *cacheGateway) logMiss(ctx context.Context, msg, userID, source string, err error) {
	applogger.FromContext(ctx, c.logger).Warn(msg+"，回退实时拉取",
		zap.String("user_id", userID),
		zap.String("source", source),
		zap.Error(err),
	)
}
