// Package provider 预约平台适配器：每个平台一个实现，统一返回标准化的可预约时段
package provider

import (
	"context"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// Connection 商家在某个平台上的连接凭据
type Connection struct {
	UserID      string
	Source      string
	FeedURL     string
	AccessToken string
}

// ConnectionFromModel 由持久化的连接记录构造
func ConnectionFromModel(c model.SourceConnection) Connection {
	return Connection{
		UserID:      c.UserID,
		Source:      c.Source,
		FeedURL:     c.FeedURL,
		AccessToken: c.AccessToken,
	}
}

// Adapter 预约平台适配器
//
// 返回的时段 SlotDate/StartTime 已换算到业务时区，FetchedAt 由调用方统一赋值
type Adapter interface {
	Name() string
	FetchAvailabilitySlots(ctx context.Context, conn Connection, r model.DateRange) ([]model.Slot, error)
}

// AppointmentTypeFetcher 可选能力：返回平台的服务类型目录
type AppointmentTypeFetcher interface {
	FetchAppointmentTypes(ctx context.Context, conn Connection) ([]model.AppointmentType, error)
}
