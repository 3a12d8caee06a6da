package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
	"github.com/Avstn1/shearworkWEB-sub002/internal/provider"
	"github.com/Avstn1/shearworkWEB-sub002/internal/repository"
	applogger "github.com/Avstn1/shearworkWEB-sub002/pkg/logger"
)

const (
	minSlotLength     = 30
	slotLengthStep    = 15
	defaultSlotLength = 30
)

// SlotLengthResolver 确定商家的标准时段长度（分钟）
type SlotLengthResolver struct {
	repo     *repository.Repository
	registry *provider.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSlotLengthResolver 创建 SlotLengthResolver
func NewSlotLengthResolver(repo *repository.Repository, registry *provider.Registry, timeout time.Duration, logger *zap.Logger) *SlotLengthResolver {
	return &SlotLengthResolver{repo: repo, registry: registry, timeout: timeout, logger: logger}
}

// Resolve 已存偏好原样返回；否则按偏好顺序查询平台服务目录，取第一个非空目录推导、归一后写回
func (r *SlotLengthResolver) Resolve(ctx context.Context, userID string, conns []provider.Connection) (int, error) {
	profile, err := r.repo.UserProfile.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if profile != nil && profile.SlotLengthMinutes != nil && *profile.SlotLengthMinutes > 0 {
		return *profile.SlotLengthMinutes, nil
	}

	for _, conn := range conns {
		types := r.fetchCatalog(ctx, conn)
		if len(types) == 0 {
			continue
		}
		minutes := DeriveSlotLength(types)
		if err := r.repo.UserProfile.UpdateSlotLength(ctx, userID, minutes); err != nil {
			applogger.FromContext(ctx, r.logger).Warn("写回时段长度失败",
				zap.String("user_id", userID),
				zap.Int("slot_length", minutes),
				zap.Error(err),
			)
		}
		return minutes, nil
	}
	return defaultSlotLength, nil
}

func (r *SlotLengthResolver) fetchCatalog(ctx context.Context, conn provider.Connection) []model.AppointmentType {
	adapter, ok := r.registry.Get(conn.Source)
	if !ok {
		return nil
	}
	fetcher, ok := adapter.(provider.AppointmentTypeFetcher)
	if !ok {
		return nil
	}

	fctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	types, err := fetcher.FetchAppointmentTypes(fctx, conn)
	if err != nil {
		applogger.FromContext(ctx, r.logger).Warn("获取服务类型目录失败",
			zap.String("user_id", conn.UserID),
			zap.String("source", conn.Source),
			zap.Error(err),
		)
		return nil
	}
	return types
}

// DeriveSlotLength 理发类服务中不少于 30 分钟的最短时长，向下取整到 15 分钟，下限 30
func DeriveSlotLength(types []model.AppointmentType) int {
	shortest := 0
	for _, t := range types {
		if !IsHaircutLike(t.Name) || t.DurationMinutes < minSlotLength {
			continue
		}
		if shortest == 0 || t.DurationMinutes < shortest {
			shortest = t.DurationMinutes
		}
	}
	if shortest == 0 {
		return defaultSlotLength
	}
	return NormalizeSlotLength(shortest)
}

// NormalizeSlotLength 向下取整到 15 的倍数，且不少于 30
func NormalizeSlotLength(minutes int) int {
	minutes -= minutes % slotLengthStep
	if minutes < minSlotLength {
		return minSlotLength
	}
	return minutes
}
