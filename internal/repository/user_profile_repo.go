package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// UserProfileRepository 商家资料数据访问接口
type UserProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateSlotLength(ctx context.Context, userID string, minutes int) error
}

type userProfileRepo struct {
	db *gorm.DB
}

// NewUserProfileRepo 创建 UserProfileRepository 实例
func NewUserProfileRepo(db *gorm.DB) UserProfileRepository {
	return &userProfileRepo{db: db}
}

func (r *userProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateSlotLength 写回推导出的时段长度，资料不存在时创建
func (r *userProfileRepo) UpdateSlotLength(ctx context.Context, userID string, minutes int) error {
	now := time.Now()
	profile := model.UserProfile{
		UserID:            userID,
		SlotLengthMinutes: &minutes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"slot_length_minutes", "updated_at"}),
		}).
		Create(&profile).Error
}
