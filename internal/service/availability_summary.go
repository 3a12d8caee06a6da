package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// interval 标准时长的一个候选时段
type interval struct {
	start  int
	end    int
	weight decimal.Decimal
}

type dayKey struct {
	userID string
	source string
	date   string
}

// SummarizeDaily 按 (用户, 平台, 日期) 计算可同时提供的最大不重叠标准时段数
//
// 仅统计理发类且时长恰为 slotLength 的时段；同一开始时刻只留最低价；
// 缺价按 fallback 计价。没有合格时段的日期不产生行。
func SummarizeDaily(slots []model.Slot, slotLength int, fallback decimal.Decimal, timezone string, fetchedAt time.Time) []model.DailySummary {
	groups := make(map[dayKey]map[int]interval)
	var order []dayKey

	for _, s := range slots {
		if !IsHaircutLike(s.AppointmentTypeName) || s.DurationMinutes != slotLength {
			continue
		}
		start, ok := parseStartMinute(s.StartTime)
		if !ok {
			continue
		}
		weight := fallback
		if s.Price != nil {
			weight = *s.Price
		}

		k := dayKey{userID: s.UserID, source: s.Source, date: s.SlotDate}
		byStart, ok := groups[k]
		if !ok {
			byStart = make(map[int]interval)
			groups[k] = byStart
			order = append(order, k)
		}
		if cur, exists := byStart[start]; !exists || weight.LessThan(cur.weight) {
			byStart[start] = interval{start: start, end: start + slotLength, weight: weight}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].source != order[j].source {
			return order[i].source < order[j].source
		}
		return order[i].date < order[j].date
	})

	summaries := make([]model.DailySummary, 0, len(order))
	for _, k := range order {
		intervals := make([]interval, 0, len(groups[k]))
		for _, iv := range groups[k] {
			intervals = append(intervals, iv)
		}
		count, revenue := scheduleIntervals(intervals)
		summaries = append(summaries, model.DailySummary{
			UserID:           k.userID,
			Source:           k.source,
			SlotDate:         k.date,
			SlotCount:        count,
			SlotUnits:        count,
			EstimatedRevenue: revenue,
			Timezone:         timezone,
			FetchedAt:        fetchedAt,
		})
	}
	return summaries
}

// scheduleIntervals 活动选择：按结束时间（再按开始时间）排序后贪心接受不重叠区间
// 最大化的是数量而非收入
func scheduleIntervals(intervals []interval) (int, decimal.Decimal) {
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].end != intervals[j].end {
			return intervals[i].end < intervals[j].end
		}
		return intervals[i].start < intervals[j].start
	})

	count := 0
	revenue := decimal.Zero
	lastEnd := -1
	for _, iv := range intervals {
		if iv.start < lastEnd {
			continue
		}
		count++
		revenue = revenue.Add(iv.weight)
		lastEnd = iv.end
	}
	return count, revenue.Round(2)
}
