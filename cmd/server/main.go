package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/config"
	"github.com/Avstn1/shearworkWEB-sub002/internal/api/handler"
	"github.com/Avstn1/shearworkWEB-sub002/internal/api/router"
	"github.com/Avstn1/shearworkWEB-sub002/internal/job"
	"github.com/Avstn1/shearworkWEB-sub002/internal/provider"
	"github.com/Avstn1/shearworkWEB-sub002/internal/repository"
	"github.com/Avstn1/shearworkWEB-sub002/internal/service"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/database"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/jwt"
	applogger "github.com/Avstn1/shearworkWEB-sub002/pkg/logger"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/monitoring"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Availability.Timezone),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时锁降级为进程内锁，拉取接口不限流）
	var locker service.KeyLocker
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，降级为进程内锁", zap.Error(err))
		rdb = nil
		locker = service.NewLocalLocker()
	} else {
		locker = service.NewRedisLocker(rdb, cfg.Availability.LockTTL)
	}

	// 5. 预约平台适配器
	loc, err := cfg.Availability.Location()
	if err != nil {
		logger.Fatal("加载业务时区失败", zap.Error(err))
	}
	registry, err := provider.NewRegistryFromConfig(&cfg.Availability, loc, logger)
	if err != nil {
		logger.Fatal("初始化预约平台适配器失败", zap.Error(err))
	}

	// 6. 监控（未启用时传入无类型 nil）
	var metrics *monitoring.MetricsCollector
	var pullMetrics service.PullMetrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetricsCollector()
		pullMetrics = metrics
	}

	// 7. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, registry, locker, pullMetrics, logger)
	if err != nil {
		logger.Fatal("初始化业务服务失败", zap.Error(err))
	}
	h := handler.NewHandler(svc)

	// 8. 定时刷新
	refresh := job.NewRefreshJob(repo.SourceConnection, svc.Availability, 2*cfg.Availability.ProviderTimeout, logger)
	scheduler, err := job.NewScheduler(cfg.Availability.RefreshCron, refresh, logger)
	if err != nil {
		logger.Fatal("注册定时刷新失败", zap.Error(err))
	}
	scheduler.Start()
	logger.Info("定时刷新已启动", zap.String("cron", cfg.Availability.RefreshCron))

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, metrics, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.Availability.ProviderTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待正在执行的刷新任务结束
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		logger.Warn("定时刷新未在超时前结束")
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
