package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
	"github.com/Avstn1/shearworkWEB-sub002/internal/repository"
	applogger "github.com/Avstn1/shearworkWEB-sub002/pkg/logger"
)

// pullMode 持久化策略
type pullMode struct {
	dryRun     bool
	updateMode bool
}

// persistSource 写入单个平台本次拉取的结果
//
//   - dryRun：不写任何数据
//   - updateMode：只更新汇总计数，不写时段、不清理
//   - 其他：事务内 upsert 时段、汇总、拉取记录，提交后再清理旧数据
func (s *availabilityService) persistSource(
	ctx context.Context,
	userID, source string,
	r model.DateRange,
	fetchedAt time.Time,
	slots []model.Slot,
	summaries []model.DailySummary,
	mode pullMode,
) error {
	if mode.dryRun {
		return nil
	}
	if mode.updateMode {
		if err := s.repo.DailySummary.UpsertCounters(ctx, summaries); err != nil {
			return fmt.Errorf("更新汇总计数失败: %w", err)
		}
		return nil
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Slot.UpsertBatch(ctx, slots); err != nil {
			return fmt.Errorf("写入时段失败: %w", err)
		}
		if err := tx.DailySummary.Upsert(ctx, summaries); err != nil {
			return fmt.Errorf("写入汇总失败: %w", err)
		}
		if err := tx.PullLog.Upsert(ctx, &model.PullLog{
			UserID:     userID,
			Source:     source,
			RangeStart: r.StartDate,
			RangeEnd:   r.EndDate,
			FetchedAt:  fetchedAt,
			SlotCount:  len(slots),
		}); err != nil {
			return fmt.Errorf("写入拉取记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 清理必须在新数据提交之后
	slotsDeleted, err := s.repo.Slot.DeleteStale(ctx, userID, source, r, fetchedAt)
	if err != nil {
		return fmt.Errorf("清理旧时段失败: %w", err)
	}
	summariesDeleted, err := s.repo.DailySummary.DeleteStale(ctx, userID, source, r, fetchedAt)
	if err != nil {
		return fmt.Errorf("清理旧汇总失败: %w", err)
	}

	applogger.FromContext(ctx, s.logger).Debug("平台数据已持久化",
		zap.String("user_id", userID),
		zap.String("source", source),
		zap.Int("slots", len(slots)),
		zap.Int("summaries", len(summaries)),
		zap.Int64("slots_deleted", slotsDeleted),
		zap.Int64("summaries_deleted", summariesDeleted),
	)
	return nil
}
