package service

import (
	"errors"
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	return loc
}

func TestResolveWindow_MondayToSunday(t *testing.T) {
	loc := mustLoc(t, "America/Toronto")
	now := time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC) // 周三

	r, err := ResolveWindow(now, loc, 0)
	if err != nil {
		t.Fatalf("ResolveWindow 应成功: %v", err)
	}
	if r.StartDate != "2026-10-12" || r.EndDate != "2026-10-18" {
		t.Errorf("期望 2026-10-12 ~ 2026-10-18，实际 %s ~ %s", r.StartDate, r.EndDate)
	}
	if len(r.Dates) != 7 {
		t.Fatalf("期望 7 天，实际 %d", len(r.Dates))
	}
	if r.Dates[3] != "2026-10-15" {
		t.Errorf("期望第 4 天为 2026-10-15，实际 %s", r.Dates[3])
	}
}

func TestResolveWindow_UsesBusinessTimezone(t *testing.T) {
	loc := mustLoc(t, "America/Toronto")
	// UTC 已是周一 03:00，多伦多仍是周日 23:00
	now := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)

	r, _ := ResolveWindow(now, loc, 0)
	if r.StartDate != "2026-10-12" {
		t.Errorf("期望仍属于 2026-10-12 开始的周，实际 %s", r.StartDate)
	}
}

func TestResolveWindow_Offset(t *testing.T) {
	loc := mustLoc(t, "America/Toronto")
	now := time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC)

	cases := []struct {
		offset int
		start  string
		end    string
	}{
		{1, "2026-10-19", "2026-10-25"},
		{-1, "2026-10-05", "2026-10-11"},
		{3, "2026-11-02", "2026-11-08"},
	}
	for _, c := range cases {
		r, _ := ResolveWindow(now, loc, c.offset)
		if r.StartDate != c.start || r.EndDate != c.end {
			t.Errorf("offset=%d 期望 %s ~ %s，实际 %s ~ %s", c.offset, c.start, c.end, r.StartDate, r.EndDate)
		}
	}
}

func TestResolveWindow_AcrossDSTChange(t *testing.T) {
	loc := mustLoc(t, "America/Toronto")
	// 2026-11-01 夏令时结束
	now := time.Date(2026, 11, 1, 12, 0, 0, 0, loc)

	r, _ := ResolveWindow(now, loc, 0)
	want := []string{"2026-10-26", "2026-10-27", "2026-10-28", "2026-10-29", "2026-10-30", "2026-10-31", "2026-11-01"}
	for i, d := range want {
		if r.Dates[i] != d {
			t.Errorf("第 %d 天期望 %s，实际 %s", i, d, r.Dates[i])
		}
	}
}

func TestResolveWindow_Deterministic(t *testing.T) {
	loc := mustLoc(t, "America/Toronto")
	now := time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC)
	a, _ := ResolveWindow(now, loc, 2)
	b, _ := ResolveWindow(now, loc, 2)
	if a.StartDate != b.StartDate || a.EndDate != b.EndDate {
		t.Error("相同输入应得到相同窗口")
	}
}

func TestResolveWindow_NilLocation(t *testing.T) {
	_, err := ResolveWindow(time.Now(), nil, 0)
	if !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("期望 ErrInvalidTimezone，实际: %v", err)
	}
}
