package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Avstn1/shearworkWEB-sub002/internal/dto"
	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
	"github.com/Avstn1/shearworkWEB-sub002/internal/provider"
	"github.com/Avstn1/shearworkWEB-sub002/internal/repository"
	applogger "github.com/Avstn1/shearworkWEB-sub002/pkg/logger"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/monitoring"
)

// ── 可预约时段模块业务错误 ──

var (
	ErrNoSourcesConnected   = errors.New("no sources connected")
	ErrAdapterNotRegistered = errors.New("未注册该平台的适配器")
)

// PullMetrics 拉取指标上报，monitoring.MetricsCollector 实现该接口
type PullMetrics interface {
	RecordPull(source, result string)
	RecordFetch(source string, duration time.Duration, slots int)
}

// AvailabilityService 可预约时段聚合业务接口
type AvailabilityService interface {
	PullAvailability(ctx context.Context, userID string, req *dto.PullAvailabilityRequest) (*dto.PullAvailabilityResponse, error)
	ResolveSlotLength(ctx context.Context, userID string) (int, error)
}

// AvailabilityOptions 聚合引擎运行参数
type AvailabilityOptions struct {
	Location        *time.Location
	ProviderTimeout time.Duration
	LockWait        time.Duration
	CapacitySource  string
	Now             func() time.Time
}

type availabilityService struct {
	repo       *repository.Repository
	registry   *provider.Registry
	cache      CacheGateway
	locker     KeyLocker
	slotLength *SlotLengthResolver
	metrics    PullMetrics
	opts       AvailabilityOptions
	logger     *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例，metrics 可为 nil
func NewAvailabilityService(
	repo *repository.Repository,
	registry *provider.Registry,
	cache CacheGateway,
	locker KeyLocker,
	metrics PullMetrics,
	opts AvailabilityOptions,
	logger *zap.Logger,
) AvailabilityService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 15 * time.Second
	}
	if opts.LockWait <= 0 {
		opts.LockWait = opts.ProviderTimeout
	}
	return &availabilityService{
		repo:       repo,
		registry:   registry,
		cache:      cache,
		locker:     locker,
		slotLength: NewSlotLengthResolver(repo, registry, opts.ProviderTimeout, logger),
		metrics:    metrics,
		opts:       opts,
		logger:     logger,
	}
}

// sourceResult 单个平台流水线的产出
type sourceResult struct {
	source    string
	slots     []model.Slot
	summaries []model.DailySummary
	hourly    []model.HourlyBucket
	capacity  []model.CapacityBucket
	fetchedAt time.Time
	cacheHit  bool
	err       error
}

// ────────────────────── PullAvailability ──────────────────────

func (s *availabilityService) PullAvailability(ctx context.Context, userID string, req *dto.PullAvailabilityRequest) (*dto.PullAvailabilityResponse, error) {
	now := s.opts.Now()
	r, err := ResolveWindow(now, s.opts.Location, req.WeekOffset)
	if err != nil {
		return nil, err
	}

	conns, err := s.connections(ctx, userID)
	if err != nil {
		applogger.FromContext(ctx, s.logger).Error("查询平台连接失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.PullAvailabilityResponse{
		Success:         true,
		FetchedAt:       formatTime(now),
		Range:           r,
		Slots:           []dto.SlotResponse{},
		Summaries:       []dto.DailySummaryResponse{},
		HourlyBuckets:   []model.HourlyBucket{},
		CapacityBuckets: []model.CapacityBucket{},
		Sources:         map[string]dto.SourceBreakdown{},
	}
	if len(conns) == 0 {
		resp.Errors = []string{ErrNoSourcesConnected.Error()}
		return resp, nil
	}

	slotLength, err := s.slotLength.Resolve(ctx, userID, conns)
	if err != nil {
		applogger.FromContext(ctx, s.logger).Error("确定标准时段长度失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defaultService := s.configuredDefaultService(ctx, userID)

	fetchedAt := now.UTC().Truncate(time.Microsecond)
	mode := pullMode{dryRun: req.DryRun, updateMode: req.UpdateMode}

	results := make([]sourceResult, len(conns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(conns))
	for i, conn := range conns {
		i, conn := i, conn
		g.Go(func() error {
			results[i] = s.pullSource(gctx, conn, r, slotLength, defaultService, fetchedAt, req.ForceRefresh, mode)
			return nil
		})
	}
	_ = g.Wait()

	s.merge(resp, results)
	return resp, nil
}

// pullSource 单个平台：锁 → 缓存 → 拉取 → 去重/汇总/分桶 → 持久化 → 清理，严格顺序执行
func (s *availabilityService) pullSource(
	ctx context.Context,
	conn provider.Connection,
	r model.DateRange,
	slotLength int,
	defaultService string,
	fetchedAt time.Time,
	forceRefresh bool,
	mode pullMode,
) sourceResult {
	res := sourceResult{source: conn.Source, fetchedAt: fetchedAt}
	fail := func(err error) sourceResult {
		applogger.FromContext(ctx, s.logger).Warn("平台拉取失败",
			zap.String("user_id", conn.UserID),
			zap.String("source", conn.Source),
			zap.Error(err),
		)
		s.recordPull(conn.Source, monitoring.PullResultError)
		return sourceResult{source: conn.Source, err: err}
	}

	adapter, ok := s.registry.Get(conn.Source)
	if !ok {
		return fail(ErrAdapterNotRegistered)
	}

	lockCtx, cancelLock := context.WithTimeout(ctx, s.opts.LockWait)
	unlock, err := s.locker.Lock(lockCtx, conn.UserID+":"+conn.Source)
	cancelLock()
	if err != nil {
		return fail(err)
	}
	defer unlock()

	var slots []model.Slot
	if !forceRefresh {
		if cached, cachedAt, hit := s.cache.GetCached(ctx, conn.UserID, conn.Source, r); hit {
			slots, res.fetchedAt, res.cacheHit = cached, cachedAt, true
		}
	}

	if !res.cacheHit {
		fctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
		started := time.Now()
		raw, err := adapter.FetchAvailabilitySlots(fctx, conn, r)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("拉取 %s 失败: %w", conn.Source, err))
		}
		slots = normalizeSlots(raw, conn, r, fetchedAt, s.opts.Location.String())
		if s.metrics != nil {
			s.metrics.RecordFetch(conn.Source, time.Since(started), len(slots))
		}
	}

	def := ResolveDefault(slots, defaultService)
	res.slots = Dedupe(slots, def.NormalizedName)

	fallback := ResolveHaircutFallbackPrice(res.slots)
	if fallback.IsZero() {
		fallback = def.Price
	}
	res.summaries = SummarizeDaily(res.slots, slotLength, fallback, s.opts.Location.String(), res.fetchedAt)
	res.hourly = BuildHourlyBuckets(res.slots)
	if conn.Source == s.opts.CapacitySource {
		res.capacity = BuildCapacityBuckets(res.slots, s.opts.CapacitySource)
	}

	if res.cacheHit {
		s.recordPull(conn.Source, monitoring.PullResultCacheHit)
		return res
	}
	if err := s.persistSource(ctx, conn.UserID, conn.Source, r, fetchedAt, res.slots, res.summaries, mode); err != nil {
		return fail(err)
	}
	s.recordPull(conn.Source, monitoring.PullResultFetched)
	return res
}

// merge 按平台偏好顺序合并结果，与完成先后无关
func (s *availabilityService) merge(resp *dto.PullAvailabilityResponse, results []sourceResult) {
	total := decimal.Zero
	contributing, hits := 0, 0
	var latest time.Time

	for _, res := range results {
		if res.err != nil {
			resp.Success = false
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %s", res.source, res.err.Error()))
			resp.Sources[res.source] = dto.SourceBreakdown{Errors: []string{res.err.Error()}}
			continue
		}

		contributing++
		if res.cacheHit {
			hits++
		}
		if res.fetchedAt.After(latest) {
			latest = res.fetchedAt
		}

		sourceRevenue := decimal.Zero
		for _, sum := range res.summaries {
			sourceRevenue = sourceRevenue.Add(sum.EstimatedRevenue)
			resp.Summaries = append(resp.Summaries, toSummaryResponse(sum))
		}
		for _, slot := range res.slots {
			resp.Slots = append(resp.Slots, toSlotResponse(slot))
		}
		resp.HourlyBuckets = append(resp.HourlyBuckets, res.hourly...)
		resp.CapacityBuckets = append(resp.CapacityBuckets, res.capacity...)
		total = total.Add(sourceRevenue)

		resp.Sources[res.source] = dto.SourceBreakdown{
			SlotCount:        len(res.slots),
			DayCount:         len(res.summaries),
			EstimatedRevenue: sourceRevenue.Round(2).InexactFloat64(),
			CacheHit:         res.cacheHit,
			FetchedAt:        formatTime(res.fetchedAt),
		}
	}

	resp.CacheHit = contributing > 0 && hits == contributing
	resp.TotalSlots = len(resp.Slots)
	resp.TotalEstimatedRevenue = total.Round(2).InexactFloat64()
	if !latest.IsZero() {
		resp.FetchedAt = formatTime(latest)
	}
}

// ────────────────────── ResolveSlotLength ──────────────────────

func (s *availabilityService) ResolveSlotLength(ctx context.Context, userID string) (int, error) {
	conns, err := s.connections(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.slotLength.Resolve(ctx, userID, conns)
}

// ── 辅助函数 ──

// connections 已启用的平台连接，按偏好顺序排列
func (s *availabilityService) connections(ctx context.Context, userID string) ([]provider.Connection, error) {
	rows, err := s.repo.SourceConnection.ListEnabledByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	conns := make([]provider.Connection, 0, len(rows))
	for _, row := range rows {
		conns = append(conns, provider.ConnectionFromModel(row))
	}
	sort.SliceStable(conns, func(i, j int) bool {
		ri, rj := s.registry.Rank(conns[i].Source), s.registry.Rank(conns[j].Source)
		if ri != rj {
			return ri < rj
		}
		return conns[i].Source < conns[j].Source
	})
	return conns, nil
}

func (s *availabilityService) configuredDefaultService(ctx context.Context, userID string) string {
	profile, err := s.repo.UserProfile.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			applogger.FromContext(ctx, s.logger).Warn("读取商家资料失败", zap.String("user_id", userID), zap.Error(err))
		}
		return ""
	}
	return profile.DefaultService
}

func (s *availabilityService) recordPull(source, result string) {
	if s.metrics != nil {
		s.metrics.RecordPull(source, result)
	}
}

// normalizeSlots 补齐归属字段，统一开始时间格式，丢弃无法解析或落在窗口外的时段
func normalizeSlots(raw []model.Slot, conn provider.Connection, r model.DateRange, fetchedAt time.Time, timezone string) []model.Slot {
	out := make([]model.Slot, 0, len(raw))
	for _, s := range raw {
		if _, err := time.Parse(model.DateLayout, s.SlotDate); err != nil || !r.Contains(s.SlotDate) {
			continue
		}
		start, ok := parseStartMinute(s.StartTime)
		if !ok || s.DurationMinutes <= 0 {
			continue
		}
		s.UserID = conn.UserID
		s.Source = conn.Source
		s.StartTime = formatMinute(start)
		s.AppointmentTypeName = NormalizeWhitespace(s.AppointmentTypeName)
		s.FetchedAt = fetchedAt
		if s.Timezone == "" {
			s.Timezone = timezone
		}
		out = append(out, s)
	}
	return out
}

func toSlotResponse(s model.Slot) dto.SlotResponse {
	var price *float64
	if s.Price != nil {
		p := s.Price.Round(2).InexactFloat64()
		price = &p
	}
	return dto.SlotResponse{
		Source:              s.Source,
		CalendarID:          s.CalendarID,
		AppointmentTypeID:   s.AppointmentTypeID,
		AppointmentTypeName: s.AppointmentTypeName,
		SlotDate:            s.SlotDate,
		StartTime:           s.StartTime,
		DurationMinutes:     s.DurationMinutes,
		Price:               price,
		Timezone:            s.Timezone,
		FetchedAt:           formatTime(s.FetchedAt),
	}
}

func toSummaryResponse(d model.DailySummary) dto.DailySummaryResponse {
	return dto.DailySummaryResponse{
		Source:           d.Source,
		SlotDate:         d.SlotDate,
		SlotCount:        d.SlotCount,
		SlotUnits:        d.SlotUnits,
		EstimatedRevenue: d.EstimatedRevenue.Round(2).InexactFloat64(),
		Timezone:         d.Timezone,
		FetchedAt:        formatTime(d.FetchedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
