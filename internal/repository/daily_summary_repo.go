package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// DailySummaryRepository 每日汇总数据访问接口
type DailySummaryRepository interface {
	Upsert(ctx context.Context, rows []model.DailySummary) error
	UpsertCounters(ctx context.Context, rows []model.DailySummary) error
	LatestFetchedAt(ctx context.Context, userID, source string, r model.DateRange) (time.Time, error)
	DeleteStale(ctx context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) (int64, error)
}

type dailySummaryRepo struct {
	db *gorm.DB
}

// NewDailySummaryRepo 创建 DailySummaryRepository 实例
func NewDailySummaryRepo(db *gorm.DB) DailySummaryRepository {
	return &dailySummaryRepo{db: db}
}

var summaryKeyColumns = []clause.Column{{Name: "user_id"}, {Name: "source"}, {Name: "slot_date"}}

func (r *dailySummaryRepo) Upsert(ctx context.Context, rows []model.DailySummary) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   summaryKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{"slot_count", "slot_units", "estimated_revenue", "timezone", "fetched_at"}),
		}).
		Create(&rows).Error
}

// UpsertCounters 仅更新计数字段（update mode）
// 已存在的行保留原 fetched_at，不影响缓存判定
func (r *dailySummaryRepo) UpsertCounters(ctx context.Context, rows []model.DailySummary) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   summaryKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{"slot_count", "slot_units", "estimated_revenue"}),
		}).
		Create(&rows).Error
}

// LatestFetchedAt 窗口内最近一次汇总的 fetched_at，无记录返回 gorm.ErrRecordNotFound
func (r *dailySummaryRepo) LatestFetchedAt(ctx context.Context, userID, source string, dr model.DateRange) (time.Time, error) {
	var row model.DailySummary
	err := r.db.WithContext(ctx).
		Select("fetched_at").
		Where("user_id = ? AND source = ?", userID, source).
		Where("slot_date BETWEEN ? AND ?", dr.StartDate, dr.EndDate).
		Order("fetched_at DESC").
		Take(&row).Error
	if err != nil {
		return time.Time{}, err
	}
	return row.FetchedAt, nil
}

func (r *dailySummaryRepo) DeleteStale(ctx context.Context, userID, source string, dr model.DateRange, fetchedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND source = ?", userID, source).
		Where("slot_date < ? OR slot_date > ? OR fetched_at < ?", dr.StartDate, dr.EndDate, fetchedAt).
		Delete(&model.DailySummary{})
	return result.RowsAffected, result.Error
}
