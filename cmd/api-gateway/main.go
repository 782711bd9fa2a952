// Package main 是应用程序入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/cache"
	"github.com/dumeirei/hotel-booking-backend/internal/common/clock"
	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
	"github.com/dumeirei/hotel-booking-backend/internal/common/database"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/internal/scheduler"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
)

const version = "1.0.0"

func main() {
	// 加载配置
	cfg, err := config.Load(os.Getenv("HOTEL_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Hotel Booking Backend",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化链路追踪
	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database migrated")
	}

	// 初始化 Redis 连接，不可用时限流和清理锁降级
	var redisClient *redis.Client
	if client, err := cache.Init(&cfg.Redis); err != nil {
		log.Warn("Redis unavailable, rate limit and sweep lock disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
		log.Info("Redis connected successfully")
	}

	// 监控指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Metrics.Namespace)
	}

	// 通知链路
	notify, err := setupNotification(cfg, db, redisClient, m)
	if err != nil {
		log.Fatal("Failed to init notification", zap.Error(err))
	}

	// 预订服务
	bookingSvc := bookingService.NewService(
		db,
		repository.NewBookingRepository(db),
		repository.NewRoomRepository(db),
		notify.dispatcher,
		clock.NewSystem(),
		&cfg.Booking,
		m,
	)

	// 后台任务
	sched := scheduler.NewScheduler()
	scheduler.SetupTasks(sched,
		scheduler.NewTaskHandler(bookingSvc, redisClient, cfg.Booking.SweepLockDuration()),
		cfg.Booking.SweepIntervalDuration(),
	)
	if notify.worker != nil {
		scheduler.SetupWorkers(sched, notify.worker, cfg.Notification.Workers)
	}
	sched.Start()

	// 设置 Gin 模式
	if cfg.Server.Mode == "production" || cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 设置路由
	setupRouter(engine, &routerDeps{
		cfg:         cfg,
		logger:      log,
		db:          db,
		redisClient: redisClient,
		metrics:     m,
		bookingSvc:  bookingSvc,
	})

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 创建超时上下文用于优雅关闭
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 先停后台任务，再等待未完成的事件投递
	sched.Stop()
	if err := notify.Close(ctx); err != nil {
		log.Error("Failed to close notification", zap.Error(err))
	}

	if err := tracer.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown tracer", zap.Error(err))
	}

	if err := database.Close(db); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	log.Info("Server exited")
}
