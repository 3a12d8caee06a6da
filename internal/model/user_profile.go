package model

import "time"

// UserProfile 商家资料中与可预约时段相关的字段，对应 user_profiles
type UserProfile struct {
	UserID            string    `gorm:"type:uuid;primaryKey"       json:"user_id"`
	SlotLengthMinutes *int      `gorm:""                           json:"slot_length_minutes,omitempty"` // NULL 表示尚未推导
	DefaultService    string    `gorm:"type:varchar(200);not null" json:"default_service"`
	CreatedAt         time.Time `gorm:"not null"                   json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null"                   json:"updated_at"`
}

// TableName 指定表名
func (UserProfile) TableName() string { return "user_profiles" }
