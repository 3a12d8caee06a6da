package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// upsertBatchSize 单批写入行数
const upsertBatchSize = 500

// SlotRepository 可预约时段数据访问接口
type SlotRepository interface {
	UpsertBatch(ctx context.Context, slots []model.Slot) error
	ListByFetchedAt(ctx context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) ([]model.Slot, error)
	DeleteStale(ctx context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) (int64, error)
}

type slotRepo struct {
	db *gorm.DB
}

// NewSlotRepo 创建 SlotRepository 实例
func NewSlotRepo(db *gorm.DB) SlotRepository {
	return &slotRepo{db: db}
}

// UpsertBatch 按身份键幂等写入，冲突时整行覆盖
func (r *slotRepo) UpsertBatch(ctx context.Context, slots []model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "source"}, {Name: "appointment_type_id"},
				{Name: "calendar_id"}, {Name: "slot_date"}, {Name: "start_time"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"appointment_type_name", "duration_minutes", "price", "timezone", "fetched_at",
			}),
		}).
		CreateInBatches(&slots, upsertBatchSize).Error
}

func (r *slotRepo) ListByFetchedAt(ctx context.Context, userID, source string, dr model.DateRange, fetchedAt time.Time) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source = ?", userID, source).
		Where("slot_date BETWEEN ? AND ?", dr.StartDate, dr.EndDate).
		Where("fetched_at = ?", fetchedAt).
		Order("slot_date ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

// DeleteStale 删除窗口外或早于本次拉取的旧时段，仅限该用户该平台
func (r *slotRepo) DeleteStale(ctx context.Context, userID, source string, dr model.DateRange, fetchedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND source = ?", userID, source).
		Where("slot_date < ? OR slot_date > ? OR fetched_at < ?", dr.StartDate, dr.EndDate, fetchedAt).
		Delete(&model.Slot{})
	return result.RowsAffected, result.Error
}
