package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// PullLogRepository 拉取记录数据访问接口
type PullLogRepository interface {
	Upsert(ctx context.Context, log *model.PullLog) error
	GetCovering(ctx context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) (*model.PullLog, error)
}

type pullLogRepo struct {
	db *gorm.DB
}

// NewPullLogRepo 创建 PullLogRepository 实例
func NewPullLogRepo(db *gorm.DB) PullLogRepository {
	return &pullLogRepo{db: db}
}

func (r *pullLogRepo) Upsert(ctx context.Context, log *model.PullLog) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "source"}, {Name: "range_start"}},
			DoUpdates: clause.AssignmentColumns([]string{"range_end", "fetched_at", "slot_count"}),
		}).
		Create(log).Error
}

// GetCovering 查找 fetched_at 完全一致且覆盖整个窗口的拉取记录
func (r *pullLogRepo) GetCovering(ctx context.Context, userID, source string, dr model.DateRange, fetchedAt time.Time) (*model.PullLog, error) {
	var log model.PullLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source = ?", userID, source).
		Where("range_start <= ? AND range_end >= ?", dr.StartDate, dr.EndDate).
		Where("fetched_at = ?", fetchedAt).
		Take(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}
