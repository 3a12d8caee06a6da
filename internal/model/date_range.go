package model

// DateLayout 日期字符串格式
const DateLayout = "2006-01-02"

// DateRange 周一至周日的闭区间窗口（业务时区）
type DateRange struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Dates     []string `json:"dates"`
}

// Contains 判断日期是否落在窗口内
// 日期格式固定为 2006-01-02，字典序即时间序
func (r DateRange) Contains(date string) bool {
	return date >= r.StartDate && date <= r.EndDate
}
