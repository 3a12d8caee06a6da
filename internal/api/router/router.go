package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/config"
	"github.com/Avstn1/shearworkWEB-sub002/internal/api/handler"
	"github.com/Avstn1/shearworkWEB-sub002/internal/api/middleware"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/jwt"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/monitoring"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时拉取接口不限流；metrics 为 nil 时不暴露 /metrics
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, metrics *monitoring.MetricsCollector, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if metrics != nil {
		r.Use(middleware.Metrics(metrics))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	pullWindow, err := time.ParseDuration(cfg.Server.PullRateSpan)
	if err != nil || pullWindow <= 0 {
		pullWindow = time.Minute
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		availability := v1.Group("/availability")
		availability.Use(middleware.NoStore(), middleware.BodyLimit(cfg.Server.BodyLimit))
		{
			availability.POST("/pull", middleware.RateLimit(rdb, cfg.Server.PullRateMax, pullWindow), h.Availability.PullAvailability)
			availability.GET("/export", h.Export.ExportAvailability)
			availability.GET("/slot-length", h.Availability.GetSlotLength)
		}
	}

	return r
}
