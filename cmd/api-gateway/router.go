// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	adminHandler "github.com/dumeirei/hotel-booking-backend/internal/handler/admin"
	hotelHandler "github.com/dumeirei/hotel-booking-backend/internal/handler/hotel"
	userHandler "github.com/dumeirei/hotel-booking-backend/internal/handler/user"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
	notificationService "github.com/dumeirei/hotel-booking-backend/internal/service/notification"
)

// maxRequestBody 单个请求体上限
const maxRequestBody = 1 << 20

// routerDeps 路由依赖
type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *gorm.DB
	redisClient *redis.Client
	metrics     *metrics.Metrics
	bookingSvc  *bookingService.Service
}

// setupRouter 设置路由
func setupRouter(r *gin.Engine, deps *routerDeps) {
	cfg := deps.cfg

	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	})

	// 初始化仓储
	hotelRepo := repository.NewHotelRepository(deps.db)
	roomRepo := repository.NewRoomRepository(deps.db)
	notifyRepo := repository.NewNotificationRepository(deps.db)

	// 初始化服务
	hotelSvc := hotelService.NewHotelService(hotelRepo, roomRepo)
	inboxSvc := notificationService.NewInboxService(notifyRepo)

	// 初始化处理器
	catalogH := hotelHandler.NewCatalogHandler(hotelSvc, deps.bookingSvc)
	bookingH := hotelHandler.NewBookingHandler(deps.bookingSvc)
	notificationH := userHandler.NewNotificationHandler(inboxSvc)
	adminBookingH := adminHandler.NewBookingHandler(deps.bookingSvc)
	cronH := adminHandler.NewCronHandler(deps.bookingSvc)

	// 全局中间件
	r.Use(middleware.Recovery(deps.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.BodyLimit(maxRequestBody))
	r.Use(middleware.CORSFromConfig(&cfg.CORS))
	r.Use(middleware.AccessLog(deps.logger, cfg.Metrics.Path))
	if deps.metrics != nil {
		r.Use(deps.metrics.Middleware())
	}
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}
	if cfg.RateLimit.Enabled {
		r.Use(middleware.IPRateLimit(deps.redisClient, cfg.RateLimit.RequestsPerMinute, time.Minute))
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(deps.db, deps.redisClient))

	// Prometheus 指标
	if deps.metrics != nil {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		public.Use(middleware.OptionalAuth(jwtManager))
		{
			public.GET("/hotels", catalogH.ListHotels)
			public.GET("/hotels/:id", catalogH.GetHotel)
			public.GET("/hotels/:id/rooms", catalogH.ListRooms)
			public.GET("/rooms/:id", catalogH.GetRoom)
		}

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager), middleware.NoStore())
		{
			// 房态查询
			user.GET("/rooms/:id/availability", bookingH.GetRoomAvailability)
			user.GET("/rooms/:id/booked-dates", bookingH.GetBookedDates)

			// 预订相关
			bookingLimit := middleware.UserRateLimit(deps.redisClient, "booking", cfg.RateLimit.BookingPerMinute, time.Minute)
			if !cfg.RateLimit.Enabled {
				bookingLimit = func(c *gin.Context) { c.Next() }
			}
			user.POST("/bookings", bookingLimit, bookingH.CreateBooking)
			user.GET("/bookings", bookingH.GetMyBookings)
			user.GET("/bookings/:id", bookingH.GetBookingDetail)
			user.POST("/bookings/:id/pay", bookingH.PayBooking)
			user.PUT("/bookings/:id/status", bookingH.UpdateBookingStatus)

			// 站内信
			user.GET("/notifications", notificationH.ListNotifications)
			user.PUT("/notifications/:id/read", notificationH.MarkRead)
		}

		// 预订凭证，允许通过查询参数携带令牌
		v1.GET("/bookings/:id/voucher", middleware.VoucherAuth(jwtManager), middleware.NoStore(), bookingH.GetVoucher)
	}

	// 管理后台 API
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(jwtManager), middleware.NoStore())
	{
		admin.GET("/bookings", adminBookingH.ListBookings)
		admin.GET("/bookings/:id", adminBookingH.GetBookingDetail)
		admin.PUT("/bookings/:id/status", adminBookingH.UpdateBookingStatus)
		admin.POST("/bookings/sweep", adminBookingH.SweepExpired)
	}

	// 外部定时任务与支付回调
	cron := r.Group("/api/cron")
	cron.Use(middleware.CronSecret(cfg.Booking.CronSecret), middleware.NoStore())
	{
		cron.POST("/bookings/sweep", cronH.SweepExpired)
		cron.POST("/bookings/:id/paid", cronH.PaymentPaid)
		cron.POST("/bookings/:id/settled", cronH.PaymentSettled)
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在")
	})
}
