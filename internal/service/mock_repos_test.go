package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Avstn1/shearworkWEB-sub002/internal/model"
	"github.com/Avstn1/shearworkWEB-sub002/internal/provider"
	"github.com/Avstn1/shearworkWEB-sub002/internal/repository"
)

// ── 调用记录（校验持久化顺序） ──

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// ── Mock SlotRepository ──

type mockSlotRepo struct {
	mu        sync.Mutex
	log       *callLog
	slots     map[model.SlotKey]model.Slot
	upsertErr error
	listErr   error
}

func newMockSlotRepo(log *callLog) *mockSlotRepo {
	return &mockSlotRepo{log: log, slots: make(map[model.SlotKey]model.Slot)}
}

func (m *mockSlotRepo) UpsertBatch(_ context.Context, slots []model.Slot) error {
	m.log.add("slot.upsert:" + sourceOf(slots))
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range slots {
		m.slots[s.Key()] = s
	}
	return nil
}

func (m *mockSlotRepo) ListByFetchedAt(_ context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) ([]model.Slot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Slot
	for _, s := range m.slots {
		if s.UserID == userID && s.Source == source && r.Contains(s.SlotDate) && s.FetchedAt.Equal(fetchedAt) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SlotDate != out[j].SlotDate {
			return out[i].SlotDate < out[j].SlotDate
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *mockSlotRepo) DeleteStale(_ context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) (int64, error) {
	m.log.add("slot.delete:" + source)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.slots {
		if s.UserID == userID && s.Source == source && (!r.Contains(s.SlotDate) || s.FetchedAt.Before(fetchedAt)) {
			delete(m.slots, k)
			n++
		}
	}
	return n, nil
}

func (m *mockSlotRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// ── Mock DailySummaryRepository ──

type summaryKey struct {
	userID, source, date string
}

type mockSummaryRepo struct {
	mu          sync.Mutex
	log         *callLog
	rows        map[summaryKey]model.DailySummary
	latestErr   error
	upsertErr   error
	counterRows int
}

func newMockSummaryRepo(log *callLog) *mockSummaryRepo {
	return &mockSummaryRepo{log: log, rows: make(map[summaryKey]model.DailySummary)}
}

func (m *mockSummaryRepo) Upsert(_ context.Context, rows []model.DailySummary) error {
	m.log.add("summary.upsert:" + summarySourceOf(rows))
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[summaryKey{r.UserID, r.Source, r.SlotDate}] = r
	}
	return nil
}

func (m *mockSummaryRepo) UpsertCounters(_ context.Context, rows []model.DailySummary) error {
	m.log.add("summary.counters:" + summarySourceOf(rows))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		k := summaryKey{r.UserID, r.Source, r.SlotDate}
		if existing, ok := m.rows[k]; ok {
			existing.SlotCount = r.SlotCount
			existing.SlotUnits = r.SlotUnits
			existing.EstimatedRevenue = r.EstimatedRevenue
			m.rows[k] = existing
		} else {
			m.rows[k] = r
		}
		m.counterRows++
	}
	return nil
}

func (m *mockSummaryRepo) LatestFetchedAt(_ context.Context, userID, source string, r model.DateRange) (time.Time, error) {
	if m.latestErr != nil {
		return time.Time{}, m.latestErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	found := false
	for _, row := range m.rows {
		if row.UserID == userID && row.Source == source && r.Contains(row.SlotDate) {
			if !found || row.FetchedAt.After(latest) {
				latest = row.FetchedAt
				found = true
			}
		}
	}
	if !found {
		return time.Time{}, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockSummaryRepo) DeleteStale(_ context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) (int64, error) {
	m.log.add("summary.delete:" + source)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, row := range m.rows {
		if row.UserID == userID && row.Source == source && (!r.Contains(row.SlotDate) || row.FetchedAt.Before(fetchedAt)) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

func (m *mockSummaryRepo) get(userID, source, date string) (model.DailySummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[summaryKey{userID, source, date}]
	return row, ok
}

// ── Mock UserProfileRepository ──

type mockProfileRepo struct {
	mu        sync.Mutex
	profiles  map[string]*model.UserProfile
	getErr    error
	updateErr error
	updates   int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.UserProfile)}
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.UserProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) UpdateSlotLength(_ context.Context, userID string, minutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		p = &model.UserProfile{UserID: userID}
		m.profiles[userID] = p
	}
	p.SlotLengthMinutes = &minutes
	return nil
}

// ── Mock SourceConnectionRepository ──

type mockConnRepo struct {
	conns   []model.SourceConnection
	listErr error
}

func newMockConnRepo() *mockConnRepo {
	return &mockConnRepo{}
}

func (m *mockConnRepo) connect(userID string, sources ...string) {
	for _, s := range sources {
		m.conns = append(m.conns, model.SourceConnection{UserID: userID, Source: s, IsEnabled: true})
	}
}

func (m *mockConnRepo) ListEnabledByUser(_ context.Context, userID string) ([]model.SourceConnection, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.SourceConnection
	for _, c := range m.conns {
		if c.UserID == userID && c.IsEnabled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConnRepo) ListUserIDsWithEnabled(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range m.conns {
		if c.IsEnabled && !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ── Mock PullLogRepository ──

type pullLogKey struct {
	userID, source, start string
}

type mockPullLogRepo struct {
	mu   sync.Mutex
	log  *callLog
	logs map[pullLogKey]model.PullLog
}

func newMockPullLogRepo(log *callLog) *mockPullLogRepo {
	return &mockPullLogRepo{log: log, logs: make(map[pullLogKey]model.PullLog)}
}

func (m *mockPullLogRepo) Upsert(_ context.Context, l *model.PullLog) error {
	m.log.add("pulllog.upsert:" + l.Source)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[pullLogKey{l.UserID, l.Source, l.RangeStart}] = *l
	return nil
}

func (m *mockPullLogRepo) GetCovering(_ context.Context, userID, source string, r model.DateRange, fetchedAt time.Time) (*model.PullLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.UserID == userID && l.Source == source && l.RangeStart <= r.StartDate && l.RangeEnd >= r.EndDate && l.FetchedAt.Equal(fetchedAt) {
			cp := l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock 仓储聚合 ──

type mockRepos struct {
	log     *callLog
	slot    *mockSlotRepo
	summary *mockSummaryRepo
	profile *mockProfileRepo
	conn    *mockConnRepo
	pullLog *mockPullLogRepo
	repo    *repository.Repository
}

func newMockRepos() *mockRepos {
	log := &callLog{}
	m := &mockRepos{
		log:     log,
		slot:    newMockSlotRepo(log),
		summary: newMockSummaryRepo(log),
		profile: newMockProfileRepo(),
		conn:    newMockConnRepo(),
		pullLog: newMockPullLogRepo(log),
	}
	m.repo = &repository.Repository{
		Slot:             m.slot,
		DailySummary:     m.summary,
		UserProfile:      m.profile,
		SourceConnection: m.conn,
		PullLog:          m.pullLog,
	}
	return m
}

// ── Mock 适配器 ──

type mockAdapter struct {
	mu    sync.Mutex
	name  string
	slots []model.Slot
	err   error
	delay time.Duration
	calls int
}

func (a *mockAdapter) Name() string { return a.name }

func (a *mockAdapter) FetchAvailabilitySlots(ctx context.Context, conn provider.Connection, _ model.DateRange) ([]model.Slot, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	out := make([]model.Slot, len(a.slots))
	copy(out, a.slots)
	return out, nil
}

func (a *mockAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// mockCatalogAdapter 额外提供服务类型目录
type mockCatalogAdapter struct {
	mockAdapter
	types        []model.AppointmentType
	typesErr     error
	catalogCalls int
}

func (a *mockCatalogAdapter) FetchAppointmentTypes(_ context.Context, _ provider.Connection) ([]model.AppointmentType, error) {
	a.mu.Lock()
	a.catalogCalls++
	a.mu.Unlock()
	if a.typesErr != nil {
		return nil, a.typesErr
	}
	return a.types, nil
}

// ── 辅助函数 ──

func sourceOf(slots []model.Slot) string {
	if len(slots) == 0 {
		return ""
	}
	return slots[0].Source
}

func summarySourceOf(rows []model.DailySummary) string {
	if len(rows) == 0 {
		return ""
	}
	return rows[0].Source
}
