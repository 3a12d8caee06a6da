package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Slot 单个预约平台上报的可预约时刻，对应 availability_slots
// 主键即去重身份键：(user_id, source, appointment_type_id, calendar_id, slot_date, start_time)
type Slot struct {
	UserID              string           `gorm:"type:uuid;primaryKey"         json:"user_id"`
	Source              string           `gorm:"type:varchar(50);primaryKey"  json:"source"`
	AppointmentTypeID   string           `gorm:"type:varchar(100);primaryKey" json:"appointment_type_id"`
	CalendarID          string           `gorm:"type:varchar(100);primaryKey" json:"calendar_id"`
	SlotDate            string           `gorm:"type:varchar(10);primaryKey"  json:"slot_date"`  // 2006-01-02
	StartTime           string           `gorm:"type:varchar(8);primaryKey"   json:"start_time"` // 15:04
	AppointmentTypeName string           `gorm:"type:varchar(200);not null"   json:"appointment_type_name"`
	DurationMinutes     int              `gorm:"not null"                     json:"duration_minutes"`
	Price               *decimal.Decimal `gorm:"type:numeric(10,2)"           json:"price,omitempty"`
	Timezone            string           `gorm:"type:varchar(64);not null"    json:"timezone,omitempty"`
	FetchedAt           time.Time        `gorm:"not null"                     json:"fetched_at"`
}

// TableName 指定表名
func (Slot) TableName() string { return "availability_slots" }

// SlotKey 去重身份键
type SlotKey struct {
	UserID            string
	Source            string
	AppointmentTypeID string
	CalendarID        string
	SlotDate          string
	StartTime         string
}

// Key 返回时段的身份键
func (s *Slot) Key() SlotKey {
	return SlotKey{
		UserID:            s.UserID,
		Source:            s.Source,
		AppointmentTypeID: s.AppointmentTypeID,
		CalendarID:        s.CalendarID,
		SlotDate:          s.SlotDate,
		StartTime:         s.StartTime,
	}
}
