package service

import (
	"sort"
	"strings"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// BuildHourlyBuckets 按开始小时计数，不区分服务类型与时长
func BuildHourlyBuckets(slots []model.Slot) []model.HourlyBucket {
	type key struct {
		userID, source, date string
		hour                 int
	}
	counts := make(map[key]int)
	for _, s := range slots {
		start, ok := parseStartMinute(s.StartTime)
		if !ok {
			continue
		}
		counts[key{s.UserID, s.Source, s.SlotDate, start / 60}]++
	}

	buckets := make([]model.HourlyBucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, model.HourlyBucket{
			UserID:    k.userID,
			Source:    k.source,
			SlotDate:  k.date,
			Hour:      k.hour,
			SlotCount: n,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if c := compareBucketKey(a.UserID, a.Source, a.SlotDate, b.UserID, b.Source, b.SlotDate); c != 0 {
			return c < 0
		}
		return a.Hour < b.Hour
	})
	return buckets
}

// BuildCapacityBuckets 半小时块内有空档的不同资源数，仅统计指定平台、时长不少于 30 分钟的时段
func BuildCapacityBuckets(slots []model.Slot, capacitySource string) []model.CapacityBucket {
	type key struct {
		userID, source, date string
		block                int
	}
	resources := make(map[key]map[string]struct{})
	for _, s := range slots {
		if s.Source != capacitySource || s.DurationMinutes < 30 {
			continue
		}
		start, ok := parseStartMinute(s.StartTime)
		if !ok {
			continue
		}
		k := key{s.UserID, s.Source, s.SlotDate, start - start%30}
		if resources[k] == nil {
			resources[k] = make(map[string]struct{})
		}
		resources[k][s.CalendarID] = struct{}{}
	}

	buckets := make([]model.CapacityBucket, 0, len(resources))
	for k, set := range resources {
		buckets = append(buckets, model.CapacityBucket{
			UserID:   k.userID,
			Source:   k.source,
			SlotDate: k.date,
			Block:    formatMinute(k.block),
			Capacity: len(set),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if c := compareBucketKey(a.UserID, a.Source, a.SlotDate, b.UserID, b.Source, b.SlotDate); c != 0 {
			return c < 0
		}
		return a.Block < b.Block
	})
	return buckets
}

// compareBucketKey 按 用户、平台、日期 依次比较
func compareBucketKey(userA, sourceA, dateA, userB, sourceB, dateB string) int {
	switch {
	case userA != userB:
		return strings.Compare(userA, userB)
	case sourceA != sourceB:
		return strings.Compare(sourceA, sourceB)
	default:
		return strings.Compare(dateA, dateB)
	}
}
