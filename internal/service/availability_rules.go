package service

import (
	"fmt"
	"strconv"
	"strings"
)

// ── 服务类型判定规则 ──
//
// 以下谓词是业务口径，调整时只改这里

// IsHaircutLike 是否为理发类服务：包含 haircut / scissor，且不含 kid
func IsHaircutLike(name string) bool {
	n := NormalizeServiceName(name)
	if strings.Contains(n, "kid") {
		return false
	}
	return strings.Contains(n, "haircut") || strings.Contains(n, "scissor")
}

// IsDefaultServiceLike 名称是否命中商家配置的默认服务
// 未配置默认服务时一律不命中
func IsDefaultServiceLike(name, configured string) bool {
	c := NormalizeServiceName(configured)
	if c == "" {
		return false
	}
	return strings.Contains(NormalizeServiceName(name), c)
}

// NormalizeServiceName 小写、去首尾空白、合并连续空白
func NormalizeServiceName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// parseStartMinute "09:00" / "9:00" / "09:00:00" → 距零点分钟数
func parseStartMinute(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	if len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// formatMinute 分钟数 → "HH:MM"
func formatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// NormalizeWhitespace 去首尾空白并合并连续空白，保留大小写用于展示
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
