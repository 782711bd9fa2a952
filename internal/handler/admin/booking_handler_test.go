package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/common/clock"
	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
	"github.com/dumeirei/hotel-booking-backend/internal/common/database"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
)

const cronSecret = "cron-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
	room   *models.Room
}

// asUser 注入登录用户
func asUser(userID int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeyRole, role)
		c.Next()
	}
}

// setupTestServer 当前时间为 2025-06-10 13:00 UTC，已过当日截止时刻
func setupTestServer(t *testing.T, role string) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	hotel := &models.Hotel{Name: "测试酒店", City: "深圳", Address: "科技园路 1 号", Status: models.HotelStatusActive}
	require.NoError(t, db.Create(hotel).Error)
	room := &models.Room{
		HotelID:       hotel.ID,
		RoomNo:        "101",
		Type:          models.RoomTypeStandard,
		MaxGuests:     2,
		PricePerNight: 300,
		Status:        models.RoomStatusAvailable,
	}
	require.NoError(t, db.Create(room).Error)

	svc := bookingService.NewService(
		db,
		repository.NewBookingRepository(db),
		repository.NewRoomRepository(db),
		nil,
		clock.NewFixed(time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)),
		&config.BookingConfig{Timezone: "UTC", CutoffHour: 12, MaxNights: 30},
		nil,
	)
	bookingHandler := NewBookingHandler(svc)
	cronHandler := NewCronHandler(svc)

	r := gin.New()
	adminGroup := r.Group("/api/admin", asUser(1, role))
	adminGroup.GET("/bookings", bookingHandler.ListBookings)
	adminGroup.GET("/bookings/:id", bookingHandler.GetBookingDetail)
	adminGroup.PUT("/bookings/:id/status", bookingHandler.UpdateBookingStatus)
	adminGroup.POST("/bookings/sweep", bookingHandler.SweepExpired)
	cron := r.Group("/api/cron", middleware.CronSecret(cronSecret))
	cron.POST("/bookings/sweep", cronHandler.SweepExpired)
	cron.POST("/bookings/:id/paid", cronHandler.PaymentPaid)
	cron.POST("/bookings/:id/settled", cronHandler.PaymentSettled)

	return &testServer{db: db, router: r, room: room}
}

func (s *testServer) seedBooking(t *testing.T, userID int64, checkIn, checkOut string, status models.BookingStatus) *models.Booking {
	t.Helper()
	in, _ := time.Parse("2006-01-02", checkIn)
	out, _ := time.Parse("2006-01-02", checkOut)
	booking := &models.Booking{
		ID:         uuid.NewString(),
		UserID:     userID,
		HotelID:    s.room.HotelID,
		CheckIn:    in,
		CheckOut:   out,
		Status:     status,
		TotalPrice: 300,
		Guests:     1,
		Details: []models.BookingDetail{{
			RoomID:        s.room.ID,
			Quantity:      1,
			PricePerNight: 300,
			Nights:        1,
			Subtotal:      300,
			CheckIn:       in,
			CheckOut:      out,
			Active:        true,
		}},
	}
	require.NoError(t, s.db.Create(booking).Error)
	return booking
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) response.Response {
	t.Helper()
	resp := response.Response{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBookingHandler_AdminFlow(t *testing.T) {
	s := setupTestServer(t, "admin")
	booking := s.seedBooking(t, 100, "2025-06-20", "2025-06-21", models.BookingStatusPending)
	s.seedBooking(t, 200, "2025-06-22", "2025-06-23", models.BookingStatusUnconfirmed)
	base := "/api/admin/bookings/" + booking.ID

	t.Run("按用户筛选", func(t *testing.T) {
		var page struct {
			List  []bookingService.BookingInfo `json:"list"`
			Total int64                        `json:"total"`
		}
		resp := decode(t, s.do(t, http.MethodGet, "/api/admin/bookings?user_id=100", nil, nil), &page)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, booking.ID, page.List[0].ID)
	})

	t.Run("无效的筛选ID", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/admin/bookings?room_id=abc", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("确认后结清", func(t *testing.T) {
		var info bookingService.BookingInfo
		resp := decode(t, s.do(t, http.MethodPut, base+"/status", gin.H{"status": "confirmed"}, nil), &info)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, "confirmed", info.Status)

		resp = decode(t, s.do(t, http.MethodPut, base+"/status", gin.H{"status": "paid"}, nil), &info)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, "paid", info.Status)
	})

	t.Run("管理员取消", func(t *testing.T) {
		var info bookingService.BookingInfo
		resp := decode(t, s.do(t, http.MethodPut, base+"/status", gin.H{
			"status":              "cancelled",
			"cancellation_reason": "酒店维修",
		}, nil), &info)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, "cancelled", info.Status)
		assert.Equal(t, "admin", info.CancellationType)
	})

	t.Run("取消后不能再确认", func(t *testing.T) {
		resp := decode(t, s.do(t, http.MethodPut, base+"/status", gin.H{"status": "confirmed"}, nil), nil)
		assert.Equal(t, errors.ErrBookingStatusError.Code, resp.Code)
	})

	t.Run("预订详情", func(t *testing.T) {
		var info bookingService.BookingInfo
		resp := decode(t, s.do(t, http.MethodGet, base, nil, nil), &info)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, int64(100), info.UserID)
	})
}

func TestBookingHandler_RequiresAdmin(t *testing.T) {
	s := setupTestServer(t, "user")

	w := s.do(t, http.MethodGet, "/api/admin/bookings", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/admin/bookings/sweep", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSweepEndpoints(t *testing.T) {
	t.Run("管理员手动清理", func(t *testing.T) {
		s := setupTestServer(t, "admin")
		expired := s.seedBooking(t, 100, "2025-06-09", "2025-06-10", models.BookingStatusPending)
		s.seedBooking(t, 100, "2025-06-20", "2025-06-21", models.BookingStatusPending)

		var result bookingService.SweepResult
		resp := decode(t, s.do(t, http.MethodPost, "/api/admin/bookings/sweep", nil, nil), &result)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, 1, result.CancelledCount)
		assert.Equal(t, []string{expired.ID}, result.CancelledIDs)
		assert.Empty(t, result.Errors)
	})

	t.Run("定时任务密钥错误", func(t *testing.T) {
		s := setupTestServer(t, "admin")
		w := s.do(t, http.MethodPost, "/api/cron/bookings/sweep", nil, map[string]string{
			middleware.HeaderCronSecret: "wrong",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("定时任务清理幂等", func(t *testing.T) {
		s := setupTestServer(t, "admin")
		s.seedBooking(t, 100, "2025-06-08", "2025-06-09", models.BookingStatusPending)
		header := map[string]string{middleware.HeaderCronSecret: cronSecret}

		var result bookingService.SweepResult
		resp := decode(t, s.do(t, http.MethodPost, "/api/cron/bookings/sweep", nil, header), &result)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, 1, result.CancelledCount)

		result = bookingService.SweepResult{}
		resp = decode(t, s.do(t, http.MethodPost, "/api/cron/bookings/sweep", nil, header), &result)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, 0, result.CancelledCount)
		assert.Empty(t, result.CancelledIDs)
	})
}

func TestPaymentCallbacks(t *testing.T) {
	s := setupTestServer(t, "admin")
	booking := s.seedBooking(t, 100, "2025-06-20", "2025-06-21", models.BookingStatusUnconfirmed)
	header := map[string]string{middleware.HeaderCronSecret: cronSecret}
	base := "/api/cron/bookings/" + booking.ID

	t.Run("密钥错误不改状态", func(t *testing.T) {
		w := s.do(t, http.MethodPost, base+"/paid", gin.H{"payment_method": "alipay"}, map[string]string{
			middleware.HeaderCronSecret: "wrong",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)

		var reloaded models.Booking
		require.NoError(t, s.db.First(&reloaded, "id = ?", booking.ID).Error)
		assert.Equal(t, models.BookingStatusUnconfirmed, reloaded.Status)
	})

	t.Run("无效的预订ID", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/cron/bookings/abc/paid", nil, header)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("未确认前不能结清", func(t *testing.T) {
		resp := decode(t, s.do(t, http.MethodPost, base+"/settled", nil, header), nil)
		assert.Equal(t, errors.ErrBookingStatusError.Code, resp.Code)
	})

	t.Run("支付回调", func(t *testing.T) {
		var info bookingService.BookingInfo
		resp := decode(t, s.do(t, http.MethodPost, base+"/paid", gin.H{"payment_method": "wechat"}, header), &info)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, "pending", info.Status)
		assert.Equal(t, "wechat", info.PaymentMethod)
	})

	t.Run("重复回调返回状态错误", func(t *testing.T) {
		resp := decode(t, s.do(t, http.MethodPost, base+"/paid", nil, header), nil)
		assert.Equal(t, errors.ErrBookingStatusError.Code, resp.Code)
	})

	t.Run("确认后结清回调", func(t *testing.T) {
		resp := decode(t, s.do(t, http.MethodPut, "/api/admin/bookings/"+booking.ID+"/status", gin.H{"status": "confirmed"}, nil), nil)
		require.Equal(t, 0, resp.Code, resp.Message)

		var info bookingService.BookingInfo
		resp = decode(t, s.do(t, http.MethodPost, base+"/settled", nil, header), &info)
		require.Equal(t, 0, resp.Code, resp.Message)
		assert.Equal(t, "paid", info.Status)
	})
}
