package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary 每平台每日可预约机会汇总，对应 availability_daily_summaries
// 派生数据：每次刷新该平台时段时整体重算
type DailySummary struct {
	UserID           string          `gorm:"type:uuid;primaryKey"        json:"user_id"`
	Source           string          `gorm:"type:varchar(50);primaryKey" json:"source"`
	SlotDate         string          `gorm:"type:varchar(10);primaryKey" json:"slot_date"`
	SlotCount        int             `gorm:"not null"                    json:"slot_count"`
	SlotUnits        int             `gorm:"not null"                    json:"slot_units"`
	EstimatedRevenue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"estimated_revenue"`
	Timezone         string          `gorm:"type:varchar(64);not null"   json:"timezone"`
	FetchedAt        time.Time       `gorm:"not null"                    json:"fetched_at"`
}

// TableName 指定表名
func (DailySummary) TableName() string { return "availability_daily_summaries" }
