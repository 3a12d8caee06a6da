package dto

import "github.com/Avstn1/shearworkWEB-sub002/internal/model"

// ── 可预约时段模块 DTO ──

// PullAvailabilityRequest 拉取可预约时段请求
type PullAvailabilityRequest struct {
	WeekOffset   int  `json:"week_offset"   form:"week_offset"   binding:"omitempty,min=-52,max=52"`
	ForceRefresh bool `json:"force_refresh" form:"force_refresh"`
	DryRun       bool `json:"dry_run"       form:"dry_run"`
	UpdateMode   bool `json:"update_mode"   form:"update_mode"`
}

// PullAvailabilityResponse 聚合拉取结果
type PullAvailabilityResponse struct {
	Success               bool                       `json:"success"`
	FetchedAt             string                     `json:"fetched_at"`
	CacheHit              bool                       `json:"cache_hit"`
	Range                 model.DateRange            `json:"range"`
	TotalSlots            int                        `json:"total_slots"`
	TotalEstimatedRevenue float64                    `json:"total_estimated_revenue"`
	Slots                 []SlotResponse             `json:"slots"`
	Summaries             []DailySummaryResponse     `json:"summaries"`
	HourlyBuckets         []model.HourlyBucket       `json:"hourly_buckets"`
	CapacityBuckets       []model.CapacityBucket     `json:"capacity_buckets"`
	Sources               map[string]SourceBreakdown `json:"sources"`
	Errors                []string                   `json:"errors,omitempty"`
}

// SourceBreakdown 单个平台的拉取概况
type SourceBreakdown struct {
	SlotCount        int      `json:"slot_count"`
	DayCount         int      `json:"day_count"`
	EstimatedRevenue float64  `json:"estimated_revenue"`
	CacheHit         bool     `json:"cache_hit"`
	FetchedAt        string   `json:"fetched_at,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// SlotResponse 单个可预约时段
type SlotResponse struct {
	Source              string   `json:"source"`
	CalendarID          string   `json:"calendar_id"`
	AppointmentTypeID   string   `json:"appointment_type_id"`
	AppointmentTypeName string   `json:"appointment_type_name"`
	SlotDate            string   `json:"slot_date"`
	StartTime           string   `json:"start_time"`
	DurationMinutes     int      `json:"duration_minutes"`
	Price               *float64 `json:"price,omitempty"`
	Timezone            string   `json:"timezone,omitempty"`
	FetchedAt           string   `json:"fetched_at"`
}

// DailySummaryResponse 每日汇总
type DailySummaryResponse struct {
	Source           string  `json:"source"`
	SlotDate         string  `json:"slot_date"`
	SlotCount        int     `json:"slot_count"`
	SlotUnits        int     `json:"slot_units"`
	EstimatedRevenue float64 `json:"estimated_revenue"`
	Timezone         string  `json:"timezone"`
	FetchedAt        string  `json:"fetched_at"`
}

// SlotLengthResponse 标准时段长度
type SlotLengthResponse struct {
	SlotLengthMinutes int `json:"slot_length_minutes"`
}

// ExportAvailabilityRequest 导出请求参数
type ExportAvailabilityRequest struct {
	WeekOffset int `form:"week_offset" binding:"omitempty,min=-52,max=52"`
}
