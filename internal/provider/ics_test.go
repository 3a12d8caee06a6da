package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avstn1/shearworkWEB-sub002/config"
)

func sampleFeed() string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//shearwork//availability//EN",
		"BEGIN:VEVENT",
		"UID:slot-1",
		"SUMMARY:Haircut",
		"DTSTART;TZID=America/Toronto:20261014T090000",
		"DTEND;TZID=America/Toronto:20261014T093000",
		"X-APPOINTMENT-TYPE-ID:hc",
		"X-CALENDAR-ID:barber-1",
		"X-PRICE:40.00",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:slot-2",
		"SUMMARY:Haircut",
		"DTSTART:20261014T140000Z",
		"DTEND:20261014T143000Z",
		"LOCATION:Chair 2",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:slot-3",
		"SUMMARY:Haircut",
		"DTSTART;TZID=America/Toronto:20261020T090000",
		"DTEND;TZID=America/Toronto:20261020T093000",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:slot-4",
		"DTSTART;TZID=America/Toronto:20261015T090000",
		"DTEND;TZID=America/Toronto:20261015T093000",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestParseAvailabilityICS(t *testing.T) {
	slots, err := ParseAvailabilityICS(strings.NewReader(sampleFeed()), "u1", "booksy", week(), toronto(t))
	require.NoError(t, err)
	require.Len(t, slots, 2, "窗口外与缺少 SUMMARY 的事件应被跳过")

	first := slots[0]
	assert.Equal(t, "hc", first.AppointmentTypeID)
	assert.Equal(t, "barber-1", first.CalendarID)
	assert.Equal(t, "2026-10-14", first.SlotDate)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, 30, first.DurationMinutes)
	require.NotNil(t, first.Price)
	assert.True(t, first.Price.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "booksy", first.Source)
	assert.Equal(t, "u1", first.UserID)

	second := slots[1]
	assert.Equal(t, "haircut", second.AppointmentTypeID)
	assert.Equal(t, "Chair 2", second.CalendarID)
	assert.Equal(t, "10:00", second.StartTime) // 14:00Z → 10:00 EDT
	assert.Nil(t, second.Price)
}

func TestICSAdapter_FetchFromFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(sampleFeed()))
	}))
	defer srv.Close()

	a := NewICSAdapter(config.SourceConfig{Name: "booksy", RatePerSecond: 100}, toronto(t), 5*time.Second)
	slots, err := a.FetchAvailabilitySlots(context.Background(), Connection{UserID: "u1", FeedURL: srv.URL}, week())
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestICSAdapter_MissingFeedURL(t *testing.T) {
	a := NewICSAdapter(config.SourceConfig{Name: "booksy"}, toronto(t), time.Second)
	_, err := a.FetchAvailabilitySlots(context.Background(), Connection{UserID: "u1"}, week())
	assert.Error(t, err)
}

func TestParseAvailabilityICS_DurationWithoutDTEND(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//shearwork//availability//EN",
		"BEGIN:VEVENT",
		"UID:slot-d",
		"SUMMARY:Haircut",
		"DTSTART:20261014T130000Z",
		"DURATION:PT30M",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:slot-bad",
		"SUMMARY:Haircut",
		"DTSTART:20261014T150000Z",
		"DURATION:30M",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n") + "\r\n"

	slots, err := ParseAvailabilityICS(strings.NewReader(feed), "u1", "booksy", week(), toronto(t))
	require.NoError(t, err)
	require.Len(t, slots, 1, "DURATION 非法的事件应被跳过")
	assert.Equal(t, "2026-10-14", slots[0].SlotDate)
	assert.Equal(t, "09:00", slots[0].StartTime) // 13:00Z → 09:00 EDT
	assert.Equal(t, 30, slots[0].DurationMinutes)
}

func TestParseICSDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"PT30M":     30 * time.Minute,
		"PT1H15M":   75 * time.Minute,
		"P1DT2H":    26 * time.Hour,
		"P1W":       7 * 24 * time.Hour,
		"+PT45M":    45 * time.Minute,
		"-PT15M":    -15 * time.Minute,
		"PT1H0M30S": time.Hour + 30*time.Second,
	}
	for in, want := range cases {
		got, err := parseICSDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "P", "PT", "30M", "PT30", "P1H", "PT1D", "PTM"} {
		_, err := parseICSDuration(bad)
		assert.Error(t, err, bad)
	}
}
