package model

// HourlyBucket 某小时开始的原始时段数（纯观测值，不参与区间调度）
type HourlyBucket struct {
	UserID    string `json:"user_id"`
	Source    string `json:"source"`
	SlotDate  string `json:"slot_date"`
	Hour      int    `json:"hour"`
	SlotCount int    `json:"slot_count"`
}

// CapacityBucket 半小时块内有空档的不同资源数
type CapacityBucket struct {
	UserID   string `json:"user_id"`
	Source   string `json:"source"`
	SlotDate string `json:"slot_date"`
	Block    string `json:"block"` // "09:00" / "09:30"
	Capacity int    `json:"capacity"`
}
