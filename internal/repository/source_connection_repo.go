package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// SourceConnectionRepository 预约平台连接数据访问接口
type SourceConnectionRepository interface {
	ListEnabledByUser(ctx context.Context, userID string) ([]model.SourceConnection, error)
	ListUserIDsWithEnabled(ctx context.Context) ([]string, error)
}

type sourceConnectionRepo struct {
	db *gorm.DB
}

// NewSourceConnectionRepo 创建 SourceConnectionRepository 实例
func NewSourceConnectionRepo(db *gorm.DB) SourceConnectionRepository {
	return &sourceConnectionRepo{db: db}
}

func (r *sourceConnectionRepo) ListEnabledByUser(ctx context.Context, userID string) ([]model.SourceConnection, error) {
	var conns []model.SourceConnection
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_enabled = ?", userID, true).
		Order("source ASC").
		Find(&conns).Error
	return conns, err
}

// ListUserIDsWithEnabled 至少有一个启用连接的商家，供定时刷新使用
func (r *sourceConnectionRepo) ListUserIDsWithEnabled(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.SourceConnection{}).
		Where("is_enabled = ?", true).
		Distinct().
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
