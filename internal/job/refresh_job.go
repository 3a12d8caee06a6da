package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/internal/dto"
	"github.com/Avstn1/shearworkWEB-sub002/internal/service"
)

// UserLister 列出拥有已启用平台连接的商家
type UserLister interface {
	ListUserIDsWithEnabled(ctx context.Context) ([]string, error)
}

// RefreshJob 定时为所有商家预热本周可预约时段
//
// 走普通拉取流程（非强制刷新），缓存仍新鲜的平台直接复用
type RefreshJob struct {
	users   UserLister
	svc     service.AvailabilityService
	timeout time.Duration
	logger  *zap.Logger
}

// NewRefreshJob 创建 RefreshJob，timeout 为单个商家的拉取上限
func NewRefreshJob(users UserLister, svc service.AvailabilityService, timeout time.Duration, logger *zap.Logger) *RefreshJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &RefreshJob{users: users, svc: svc, timeout: timeout, logger: logger}
}

// RefreshResult 一轮刷新的统计
type RefreshResult struct {
	Users   int
	Failed  int
	Partial int
}

// RunOnce 依次刷新每个商家，单个商家失败不影响其他商家
func (j *RefreshJob) RunOnce(ctx context.Context) (RefreshResult, error) {
	var res RefreshResult

	userIDs, err := j.users.ListUserIDsWithEnabled(ctx)
	if err != nil {
		return res, fmt.Errorf("查询待刷新商家失败: %w", err)
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Users++

		uctx, cancel := context.WithTimeout(ctx, j.timeout)
		resp, err := j.svc.PullAvailability(uctx, userID, &dto.PullAvailabilityRequest{})
		cancel()

		switch {
		case err != nil:
			res.Failed++
			j.logger.Warn("定时刷新失败", zap.String("user_id", userID), zap.Error(err))
		case !resp.Success:
			res.Partial++
			j.logger.Warn("定时刷新部分平台失败",
				zap.String("user_id", userID),
				zap.Strings("errors", resp.Errors),
			)
		}
	}

	j.logger.Info("定时刷新完成",
		zap.Int("users", res.Users),
		zap.Int("failed", res.Failed),
		zap.Int("partial", res.Partial),
	)
	return res, nil
}

// NewScheduler 按 cron 表达式注册刷新任务，上一轮未结束时跳过本轮
// 调用方负责 Start / Stop
func NewScheduler(expr string, job *RefreshJob, logger *zap.Logger) (*cron.Cron, error) {
	cl := &cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddFunc(expr, func() {
		if _, err := job.RunOnce(context.Background()); err != nil {
			logger.Error("定时刷新中断", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("无效的 cron 表达式 %q: %w", expr, err)
	}
	return c, nil
}

// cronLogger 将 cron 内部日志转给 zap
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
