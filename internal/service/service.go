package service

import (
	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/config"
	"github.com/Avstn1/shearworkWEB-sub002/internal/provider"
	"github.com/Avstn1/shearworkWEB-sub002/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Availability AvailabilityService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	registry *provider.Registry,
	locker KeyLocker,
	metrics PullMetrics,
	logger *zap.Logger,
) (*Service, error) {
	loc, err := cfg.Availability.Location()
	if err != nil {
		return nil, err
	}

	cache := NewCacheGateway(repo, cfg.Availability.CacheTTL, nil, logger)
	availability := NewAvailabilityService(repo, registry, cache, locker, metrics, AvailabilityOptions{
		Location:        loc,
		ProviderTimeout: cfg.Availability.ProviderTimeout,
		LockWait:        cfg.Availability.ProviderTimeout,
		CapacitySource:  cfg.Availability.CapacitySource,
	}, logger)

	return &Service{
		Availability: availability,
		Export:       NewExportService(availability, logger),
	}, nil
}
