package model

import "github.com/shopspring/decimal"

// AppointmentType 预约平台的服务类型目录项（不落库）
type AppointmentType struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	DurationMinutes int              `json:"duration_minutes"`
	Price           *decimal.Decimal `json:"price,omitempty"`
}
