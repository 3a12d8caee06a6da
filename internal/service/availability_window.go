package service

import (
	"errors"
	"time"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

var ErrInvalidTimezone = errors.New("业务时区未配置")

// ResolveWindow 计算 now 所在周（周一至周日，业务时区）平移 offset 周后的窗口
// 纯函数：now 与时区均由调用方传入
func ResolveWindow(now time.Time, loc *time.Location, offset int) (model.DateRange, error) {
	if loc == nil {
		return model.DateRange{}, ErrInvalidTimezone
	}
	local := now.In(loc)

	// time.Weekday: 0=Sunday，换算成距周一的天数
	sinceMonday := (int(local.Weekday()) + 6) % 7
	monday := time.Date(local.Year(), local.Month(), local.Day()-sinceMonday+offset*7, 0, 0, 0, 0, loc)

	dates := make([]string, 7)
	for i := range dates {
		dates[i] = time.Date(monday.Year(), monday.Month(), monday.Day()+i, 0, 0, 0, 0, loc).Format(model.DateLayout)
	}
	return model.DateRange{
		StartDate: dates[0],
		EndDate:   dates[6],
		Dates:     dates,
	}, nil
}
