package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Avstn1/shearworkWEB-sub002/config"
	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
	pkgerrors "github.com/Avstn1/shearworkWEB-sub002/pkg/errors"
)

// ── ICS 适配器 ──────────────────────────────────────────────
//
// 平台以 iCalendar 订阅源发布空档，每个 VEVENT 即一个可预约时刻：
//   - SUMMARY              → 服务类型名称
//   - X-APPOINTMENT-TYPE-ID → 服务类型 ID（缺省取小写 SUMMARY）
//   - X-CALENDAR-ID        → 资源 ID（缺省取 LOCATION）
//   - X-PRICE              → 价格
//   - DTSTART/DTEND        → 日期、开始时间、时长（无 DTEND 时取 DURATION）
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize       = 5 * 1024 * 1024 // 5MB
	icsPropTypeID        = ics.ComponentProperty("X-APPOINTMENT-TYPE-ID")
	icsPropCalendarID    = ics.ComponentProperty("X-CALENDAR-ID")
	icsPropPrice         = ics.ComponentProperty("X-PRICE")
	icsPropDuration      = ics.ComponentProperty("DURATION")
	icsDefaultCalendarID = "default"
)

// ICSAdapter 订阅源适配器，源地址来自商家的连接记录
type ICSAdapter struct {
	name    string
	loc     *time.Location
	client  *http.Client
	limiter *rate.Limiter
}

// NewICSAdapter 创建 ICS 适配器
func NewICSAdapter(sc config.SourceConfig, loc *time.Location, timeout time.Duration) *ICSAdapter {
	rps := sc.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	return &ICSAdapter{
		name:    sc.Name,
		loc:     loc,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name 平台名
func (a *ICSAdapter) Name() string { return a.name }

// FetchAvailabilitySlots 下载订阅源并返回窗口内的时段
func (a *ICSAdapter) FetchAvailabilitySlots(ctx context.Context, conn Connection, r model.DateRange) ([]model.Slot, error) {
	if conn.FeedURL == "" {
		return nil, fmt.Errorf("%s 未配置订阅地址", a.name)
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s 限流等待中断: %w", a.name, err)
	}

	body, err := a.fetch(ctx, conn.FeedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseAvailabilityICS(body, conn.UserID, a.name, r, a.loc)
}

func (a *ICSAdapter) fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("构造 %s 请求失败: %w", a.name, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取 %s 订阅源失败: %w", a.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s HTTP %d", pkgerrors.ErrUpstreamStatus, a.name, resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseAvailabilityICS 解析订阅源，仅保留落在窗口内的事件
// 缺少 SUMMARY、DTSTART 或时长无法确定的事件直接跳过
func ParseAvailabilityICS(reader io.Reader, userID, source string, r model.DateRange, loc *time.Location) ([]model.Slot, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	var slots []model.Slot
	for _, evt := range cal.Events() {
		slot, ok := parseSlotEvent(evt, loc)
		if !ok || !r.Contains(slot.SlotDate) {
			continue
		}
		slot.UserID = userID
		slot.Source = source
		slots = append(slots, slot)
	}
	return slots, nil
}

func parseSlotEvent(evt *ics.VEvent, loc *time.Location) (model.Slot, bool) {
	name := propValue(evt, ics.ComponentPropertySummary)
	if name == "" {
		return model.Slot{}, false
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return model.Slot{}, false
	}
	var span time.Duration
	if dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc); err == nil {
		span = dtEnd.Sub(dtStart)
	} else if raw := propValue(evt, icsPropDuration); raw != "" {
		if span, err = parseICSDuration(raw); err != nil {
			return model.Slot{}, false
		}
	} else {
		return model.Slot{}, false
	}
	duration := int(span.Minutes())
	if duration <= 0 {
		return model.Slot{}, false
	}

	typeID := propValue(evt, icsPropTypeID)
	if typeID == "" {
		typeID = strings.ToLower(name)
	}
	calendarID := propValue(evt, icsPropCalendarID)
	if calendarID == "" {
		calendarID = propValue(evt, ics.ComponentPropertyLocation)
	}
	if calendarID == "" {
		calendarID = icsDefaultCalendarID
	}

	var price *decimal.Decimal
	if raw := propValue(evt, icsPropPrice); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			price = &d
		}
	}

	return model.Slot{
		CalendarID:          calendarID,
		AppointmentTypeID:   typeID,
		AppointmentTypeName: name,
		SlotDate:            dtStart.Format(model.DateLayout),
		StartTime:           dtStart.Format("15:04"),
		DurationMinutes:     duration,
		Price:               price,
		Timezone:            loc.String(),
	}, true
}

func propValue(evt *ics.VEvent, prop ics.ComponentProperty) string {
	p := evt.GetProperty(prop)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

// parseICSDateTime 解析日期时间属性并换算到业务时区
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// parseICSDuration 解析 RFC 5545 DURATION 值，如 PT30M、P1DT2H、P1W
func parseICSDuration(val string) (time.Duration, error) {
	s := strings.ToUpper(strings.TrimSpace(val))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, fmt.Errorf("无法解析时长: %s", val)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := 0
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			digits++
			continue
		case r == 'T':
			if inTime || digits > 0 {
				return 0, fmt.Errorf("无法解析时长: %s", val)
			}
			inTime = true
			continue
		}
		if digits == 0 {
			return 0, fmt.Errorf("无法解析时长: %s", val)
		}
		var unit time.Duration
		switch {
		case r == 'W' && !inTime:
			unit = 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			unit = 24 * time.Hour
		case r == 'H' && inTime:
			unit = time.Hour
		case r == 'M' && inTime:
			unit = time.Minute
		case r == 'S' && inTime:
			unit = time.Second
		default:
			return 0, fmt.Errorf("无法解析时长: %s", val)
		}
		total += time.Duration(num) * unit
		num, digits = 0, 0
	}
	if digits > 0 {
		return 0, fmt.Errorf("无法解析时长: %s", val)
	}
	return sign * total, nil
}
