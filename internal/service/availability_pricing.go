package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
)

// DefaultService 默认服务判定结果
type DefaultService struct {
	NormalizedName string
	Price          decimal.Decimal
}

// serviceUsage 某个服务名称在时段池中的使用情况
type serviceUsage struct {
	name     string
	count    int
	minPrice *decimal.Decimal
}

// ResolveDefault 推断默认服务及其兜底价格
//
// 统计池优先取命中商家默认服务配置的时段，无命中时退回全部具名时段
func ResolveDefault(slots []model.Slot, configured string) DefaultService {
	pool := filterSlots(slots, func(s model.Slot) bool {
		return IsDefaultServiceLike(s.AppointmentTypeName, configured)
	})
	if len(pool) == 0 {
		pool = filterSlots(slots, func(s model.Slot) bool {
			return NormalizeServiceName(s.AppointmentTypeName) != ""
		})
	}
	ranked := rankServiceUsage(pool)
	if len(ranked) == 0 {
		return DefaultService{Price: decimal.Zero}
	}
	return DefaultService{
		NormalizedName: ranked[0].name,
		Price:          topTwoMeanPrice(ranked),
	}
}

// ResolveHaircutFallbackPrice 理发类时段的兜底价格，用于每日汇总中缺价的时段
func ResolveHaircutFallbackPrice(slots []model.Slot) decimal.Decimal {
	pool := filterSlots(slots, func(s model.Slot) bool {
		return IsHaircutLike(s.AppointmentTypeName)
	})
	return topTwoMeanPrice(rankServiceUsage(pool))
}

// rankServiceUsage 按使用次数降序，次数相同按最低价升序（无价格排后），再按名称
func rankServiceUsage(slots []model.Slot) []serviceUsage {
	index := make(map[string]int)
	var usage []serviceUsage
	for _, s := range slots {
		name := NormalizeServiceName(s.AppointmentTypeName)
		i, ok := index[name]
		if !ok {
			i = len(usage)
			index[name] = i
			usage = append(usage, serviceUsage{name: name})
		}
		u := &usage[i]
		u.count++
		if s.Price != nil && (u.minPrice == nil || s.Price.LessThan(*u.minPrice)) {
			p := *s.Price
			u.minPrice = &p
		}
	}

	sort.SliceStable(usage, func(i, j int) bool {
		a, b := usage[i], usage[j]
		if a.count != b.count {
			return a.count > b.count
		}
		if (a.minPrice == nil) != (b.minPrice == nil) {
			return a.minPrice != nil
		}
		if a.minPrice != nil && !a.minPrice.Equal(*b.minPrice) {
			return a.minPrice.LessThan(*b.minPrice)
		}
		return a.name < b.name
	})
	return usage
}

// topTwoMeanPrice 前两名中有价格者的最低价均值，均无价格返回 0
func topTwoMeanPrice(ranked []serviceUsage) decimal.Decimal {
	if len(ranked) > 2 {
		ranked = ranked[:2]
	}
	sum := decimal.Zero
	n := 0
	for _, u := range ranked {
		if u.minPrice == nil {
			continue
		}
		sum = sum.Add(*u.minPrice)
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

func filterSlots(slots []model.Slot, keep func(model.Slot) bool) []model.Slot {
	var out []model.Slot
	for _, s := range slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
