package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/config"
	"github.com/Avstn1/shearworkWEB-sub002/internal/api/handler"
	"github.com/Avstn1/shearworkWEB-sub002/internal/dto"
	"github.com/Avstn1/shearworkWEB-sub002/internal/service"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/jwt"
	applogger "github.com/Avstn1/shearworkWEB-sub002/pkg/logger"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/monitoring"
)

type stubAvailability struct {
	requestID string
}

func (s *stubAvailability) PullAvailability(ctx context.Context, _ string, _ *dto.PullAvailabilityRequest) (*dto.PullAvailabilityResponse, error) {
	s.requestID = applogger.RequestIDFromContext(ctx)
	return &dto.PullAvailabilityResponse{Success: true}, nil
}

func (s *stubAvailability) ResolveSlotLength(context.Context, string) (int, error) {
	return 30, nil
}

type stubExport struct{}

func (stubExport) ExportAvailability(context.Context, string, int) (*bytes.Buffer, string, error) {
	return nil, "", service.ErrExportNoData
}

func setupEngine(t *testing.T) (*jwt.Manager, *monitoring.MetricsCollector, http.Handler) {
	t.Helper()
	jwtMgr, metrics, _, engine := setupEngineWith(t, nil)
	return jwtMgr, metrics, engine
}

func setupEngineWith(t *testing.T, tweak func(*config.Config)) (*jwt.Manager, *monitoring.MetricsCollector, *stubAvailability, http.Handler) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{BodyLimit: 1 << 20, PullRateMax: 30, PullRateSpan: "1m"},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret-key", AccessTokenTTL: time.Minute},
	}
	if tweak != nil {
		tweak(cfg)
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	metrics := monitoring.NewMetricsCollector()
	avail := &stubAvailability{}
	h := handler.NewHandler(&service.Service{Availability: avail, Export: stubExport{}})
	return jwtMgr, metrics, avail, Setup(cfg, h, jwtMgr, nil, metrics, zap.NewNop())
}

func bearer(t *testing.T, jwtMgr *jwt.Manager, req *http.Request) *http.Request {
	t.Helper()
	token, err := jwtMgr.GenerateAccessToken("u1")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouter_Health(t *testing.T) {
	_, _, engine := setupEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_RequiresAuth(t *testing.T) {
	_, _, engine := setupEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/availability/pull", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_PullWithToken(t *testing.T) {
	jwtMgr, _, engine := setupEngine(t)
	token, err := jwtMgr.GenerateAccessToken("u1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/availability/pull", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/v1/availability/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	_, _, engine := setupEngine(t)

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `http_requests_total{endpoint="/health",method="GET",status_code="200"} 1`))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	_, _, engine := setupEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("X-XSS-Protection"))
	assert.Empty(t, w.Header().Get("Cache-Control"), "健康检查不应禁止缓存")
}

func TestRouter_AvailabilityNoStore(t *testing.T) {
	jwtMgr, _, engine := setupEngine(t)

	for _, tc := range []struct{ method, path string }{
		{"POST", "/api/v1/availability/pull"},
		{"GET", "/api/v1/availability/export"},
		{"GET", "/api/v1/availability/slot-length"},
	} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, bearer(t, jwtMgr, httptest.NewRequest(tc.method, tc.path, nil)))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"), tc.path)
		assert.Equal(t, "no-cache", w.Header().Get("Pragma"), tc.path)
	}
}

func TestRouter_CORSExposesExportHeaders(t *testing.T) {
	_, _, _, engine := setupEngineWith(t, func(cfg *config.Config) {
		cfg.Server.CORS.AllowOrigins = []string{"https://app.example.com/"}
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/api/v1/availability/export", nil)
	req.Header.Set("Origin", "https://app.example.com")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID")
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest("OPTIONS", "/api/v1/availability/export", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), "未登记的来源不应放行")
}

func TestRouter_PullBodyTooLarge(t *testing.T) {
	jwtMgr, _, avail, engine := setupEngineWith(t, func(cfg *config.Config) {
		cfg.Server.BodyLimit = 64
	})

	body := `{"force_refresh":true,"padding":"` + strings.Repeat("x", 128) + `"}`
	w := httptest.NewRecorder()
	req := bearer(t, jwtMgr, httptest.NewRequest("POST", "/api/v1/availability/pull", strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, avail.requestID, "超限请求不应到达服务层")
}

func TestRouter_RequestIDReachesService(t *testing.T) {
	jwtMgr, _, avail, engine := setupEngineWith(t, nil)

	w := httptest.NewRecorder()
	req := bearer(t, jwtMgr, httptest.NewRequest("POST", "/api/v1/availability/pull", nil))
	req.Header.Set("X-Request-ID", "gw-req-42")
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gw-req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "gw-req-42", avail.requestID)

	w = httptest.NewRecorder()
	req = bearer(t, jwtMgr, httptest.NewRequest("POST", "/api/v1/availability/pull", nil))
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	engine.ServeHTTP(w, req)
	assert.Len(t, avail.requestID, 36, "过长的外部 ID 应替换为 UUID")
	assert.Equal(t, avail.requestID, w.Header().Get("X-Request-ID"))
}
