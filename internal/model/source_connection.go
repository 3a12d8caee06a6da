package model

import "time"

// SourceConnection 商家已连接的预约平台，对应 source_connections
type SourceConnection struct {
	ConnectionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"connection_id"`
	UserID       string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Source       string    `gorm:"type:varchar(50);not null"                      json:"source"`
	FeedURL      string    `gorm:"type:text;not null"                             json:"feed_url,omitempty"`
	AccessToken  string    `gorm:"type:text;not null"                             json:"-"`
	IsEnabled    bool      `gorm:"not null"                                       json:"is_enabled"`
	CreatedAt    time.Time `gorm:"not null"                                       json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null"                                       json:"updated_at"`
}

// TableName 指定表名
func (SourceConnection) TableName() string { return "source_connections" }
