package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Slot             SlotRepository
	DailySummary     DailySummaryRepository
	UserProfile      UserProfileRepository
	SourceConnection SourceConnectionRepository
	PullLog          PullLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		Slot:             NewSlotRepo(db),
		DailySummary:     NewDailySummaryRepo(db),
		UserProfile:      NewUserProfileRepo(db),
		SourceConnection: NewSourceConnectionRepo(db),
		PullLog:          NewPullLogRepo(db),
	}
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
// 未绑定数据库（单元测试直接组装 mock）时在当前仓储上执行
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
