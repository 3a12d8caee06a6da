package service

import "github.com/Avstn1/shearworkWEB-sub002/internal/model"

// Dedupe 每个身份键只保留一个时段
//
// 按键维护当前最优者，逐个与新来者比较：
//  1. 命中默认服务的优先
//  2. 其次价格低者优先，无价格输给有价格，均无价格保留先到者
//
// 输出顺序为各键首次出现的顺序
func Dedupe(slots []model.Slot, defaultName string) []model.Slot {
	best := make(map[model.SlotKey]int, len(slots))
	out := make([]model.Slot, 0, len(slots))
	for _, s := range slots {
		key := s.Key()
		idx, seen := best[key]
		if !seen {
			best[key] = len(out)
			out = append(out, s)
			continue
		}
		if preferSlot(s, out[idx], defaultName) {
			out[idx] = s
		}
	}
	return out
}

// preferSlot candidate 是否应替换 current
func preferSlot(candidate, current model.Slot, defaultName string) bool {
	candDefault := isDefaultName(candidate.AppointmentTypeName, defaultName)
	currDefault := isDefaultName(current.AppointmentTypeName, defaultName)
	if candDefault != currDefault {
		return candDefault
	}
	switch {
	case candidate.Price == nil:
		return false
	case current.Price == nil:
		return true
	default:
		return candidate.Price.LessThan(*current.Price)
	}
}

func isDefaultName(name, defaultName string) bool {
	return defaultName != "" && NormalizeServiceName(name) == defaultName
}
