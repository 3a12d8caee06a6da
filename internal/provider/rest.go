package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Avstn1/shearworkWEB-sub002/config"
	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
	pkgerrors "github.com/Avstn1/shearworkWEB-sub002/pkg/errors"
)

const restMaxBodySize = 5 * 1024 * 1024 // 5MB

// RESTAdapter 通过 JSON 接口拉取可预约时段
//
//	GET {base}/availability?start=YYYY-MM-DD&end=YYYY-MM-DD
//	GET {base}/appointment-types
type RESTAdapter struct {
	name    string
	baseURL string
	loc     *time.Location
	client  *http.Client
	limiter *rate.Limiter
}

// NewRESTAdapter 创建 REST 适配器
func NewRESTAdapter(sc config.SourceConfig, loc *time.Location, timeout time.Duration) *RESTAdapter {
	rps := sc.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	return &RESTAdapter{
		name:    sc.Name,
		baseURL: strings.TrimRight(sc.BaseURL, "/"),
		loc:     loc,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name 平台名
func (a *RESTAdapter) Name() string { return a.name }

type restSlot struct {
	CalendarID          string   `json:"calendar_id"`
	AppointmentTypeID   string   `json:"appointment_type_id"`
	AppointmentTypeName string   `json:"appointment_type_name"`
	Date                string   `json:"date"`
	Time                string   `json:"time"`
	DateTime            string   `json:"datetime"` // RFC3339，优先于 date/time
	Duration            int      `json:"duration"`
	Price               *float64 `json:"price"`
}

type restAvailabilityResponse struct {
	Slots []restSlot `json:"slots"`
}

type restAppointmentType struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Duration int      `json:"duration"`
	Price    *float64 `json:"price"`
}

type restAppointmentTypesResponse struct {
	AppointmentTypes []restAppointmentType `json:"appointment_types"`
}

// FetchAvailabilitySlots 拉取窗口内的原始时段
func (a *RESTAdapter) FetchAvailabilitySlots(ctx context.Context, conn Connection, r model.DateRange) ([]model.Slot, error) {
	q := url.Values{}
	q.Set("start", r.StartDate)
	q.Set("end", r.EndDate)

	var body restAvailabilityResponse
	if err := a.getJSON(ctx, conn, "/availability?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	slots := make([]model.Slot, 0, len(body.Slots))
	for _, rs := range body.Slots {
		date, start := rs.Date, rs.Time
		if rs.DateTime != "" {
			t, err := time.Parse(time.RFC3339, rs.DateTime)
			if err != nil {
				continue
			}
			t = t.In(a.loc)
			date, start = t.Format(model.DateLayout), t.Format("15:04")
		}
		slots = append(slots, model.Slot{
			UserID:              conn.UserID,
			Source:              a.name,
			CalendarID:          rs.CalendarID,
			AppointmentTypeID:   rs.AppointmentTypeID,
			AppointmentTypeName: rs.AppointmentTypeName,
			SlotDate:            date,
			StartTime:           start,
			DurationMinutes:     rs.Duration,
			Price:               toDecimal(rs.Price),
			Timezone:            a.loc.String(),
		})
	}
	return slots, nil
}

// FetchAppointmentTypes 拉取服务类型目录
func (a *RESTAdapter) FetchAppointmentTypes(ctx context.Context, conn Connection) ([]model.AppointmentType, error) {
	var body restAppointmentTypesResponse
	if err := a.getJSON(ctx, conn, "/appointment-types", &body); err != nil {
		return nil, err
	}
	types := make([]model.AppointmentType, 0, len(body.AppointmentTypes))
	for _, t := range body.AppointmentTypes {
		types = append(types, model.AppointmentType{
			ID:              t.ID,
			Name:            t.Name,
			DurationMinutes: t.Duration,
			Price:           toDecimal(t.Price),
		})
	}
	return types, nil
}

func (a *RESTAdapter) getJSON(ctx context.Context, conn Connection, path string, dst interface{}) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s 限流等待中断: %w", a.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("构造 %s 请求失败: %w", a.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if conn.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+conn.AccessToken)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s HTTP %d", pkgerrors.ErrUpstreamStatus, a.name, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, restMaxBodySize)).Decode(dst); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", a.name, err)
	}
	return nil
}

func toDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
