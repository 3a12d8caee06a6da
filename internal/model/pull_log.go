package model

import "time"

// PullLog 一次已持久化的拉取记录，对应 availability_pull_logs
// 缓存判定时用于确认某次 fetched_at 覆盖了请求的整个周窗口
type PullLog struct {
	UserID     string    `gorm:"type:uuid;primaryKey"        json:"user_id"`
	Source     string    `gorm:"type:varchar(50);primaryKey" json:"source"`
	RangeStart string    `gorm:"type:varchar(10);primaryKey" json:"range_start"`
	RangeEnd   string    `gorm:"type:varchar(10);not null"   json:"range_end"`
	FetchedAt  time.Time `gorm:"not null"                    json:"fetched_at"`
	SlotCount  int       `gorm:"not null"                    json:"slot_count"`
}

// TableName 指定表名
func (PullLog) TableName() string { return "availability_pull_logs" }
