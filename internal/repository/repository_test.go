package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/common/database"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// setupTestDB 创建内存 SQLite 并迁移全部模型
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// day 解析日历日期
func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// seedRoom 创建酒店和一间房
func seedRoom(t *testing.T, db *gorm.DB, price float64) (*models.Hotel, *models.Room) {
	t.Helper()
	hotel := &models.Hotel{Name: "测试酒店", City: "上海", Address: "南京东路 1 号", Status: models.HotelStatusActive}
	require.NoError(t, db.Create(hotel).Error)

	room := &models.Room{
		HotelID:       hotel.ID,
		RoomNo:        "101",
		Type:          models.RoomTypeStandard,
		MaxGuests:     2,
		PricePerNight: price,
		Status:        models.RoomStatusAvailable,
	}
	require.NoError(t, db.Create(room).Error)
	return hotel, room
}

// seedBooking 直接写入一条预订及明细
func seedBooking(t *testing.T, db *gorm.DB, room *models.Room, userID int64, checkIn, checkOut string, status models.BookingStatus) *models.Booking {
	t.Helper()
	in, out := day(checkIn), day(checkOut)
	nights := int(out.Sub(in).Hours() / 24)
	booking := &models.Booking{
		ID:         uuid.NewString(),
		UserID:     userID,
		HotelID:    room.HotelID,
		CheckIn:    in,
		CheckOut:   out,
		Status:     status,
		TotalPrice: room.PricePerNight * float64(nights),
		Guests:     1,
		Details: []models.BookingDetail{{
			RoomID:        room.ID,
			Quantity:      1,
			PricePerNight: room.PricePerNight,
			Nights:        nights,
			Subtotal:      room.PricePerNight * float64(nights),
			CheckIn:       in,
			CheckOut:      out,
			Active:        status.IsActive(),
		}},
	}
	require.NoError(t, db.Create(booking).Error)
	if !status.IsActive() {
		require.NoError(t, db.Model(&models.BookingDetail{}).Where("booking_id = ?", booking.ID).Update("active", false).Error)
	}
	return booking
}
