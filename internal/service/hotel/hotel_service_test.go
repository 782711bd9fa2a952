package hotel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/common/database"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

type testHotelService struct {
	*HotelService
	db *gorm.DB
}

func setupTestHotelService(t *testing.T) *testHotelService {
	db := setupTestDB(t)
	svc := NewHotelService(repository.NewHotelRepository(db), repository.NewRoomRepository(db))
	return &testHotelService{HotelService: svc, db: db}
}

// createHotel 创建酒店，disabled 时先创建再更新状态，避免 default:1 覆盖零值
func createHotel(t *testing.T, db *gorm.DB, name, city string, disabled bool) *models.Hotel {
	t.Helper()
	hotel := &models.Hotel{
		Name:    name,
		City:    city,
		Address: "测试路1号",
		Status:  models.HotelStatusActive,
	}
	require.NoError(t, db.Create(hotel).Error)
	if disabled {
		require.NoError(t, db.Model(hotel).Update("status", models.HotelStatusDisabled).Error)
	}
	return hotel
}

func createRoom(t *testing.T, db *gorm.DB, hotelID int64, roomNo string, price float64, onSale bool) *models.Room {
	t.Helper()
	room := &models.Room{
		HotelID:       hotelID,
		RoomNo:        roomNo,
		Type:          models.RoomTypeStandard,
		MaxGuests:     2,
		PricePerNight: price,
		Status:        models.RoomStatusAvailable,
	}
	require.NoError(t, db.Create(room).Error)
	if !onSale {
		require.NoError(t, db.Model(room).Update("status", models.RoomStatusUnavailable).Error)
	}
	return room
}

func TestHotelService_GetHotelList(t *testing.T) {
	svc := setupTestHotelService(t)
	ctx := context.Background()

	createHotel(t, svc.db, "深圳湾酒店", "深圳市", false)
	createHotel(t, svc.db, "广州塔酒店", "广州市", false)
	createHotel(t, svc.db, "东莞酒店", "东莞市", false)
	createHotel(t, svc.db, "已下架酒店", "深圳市", true)

	t.Run("只返回上架酒店", func(t *testing.T) {
		hotels, total, err := svc.GetHotelList(ctx, &HotelListRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, hotels, 3)
	})

	t.Run("按城市过滤", func(t *testing.T) {
		hotels, total, err := svc.GetHotelList(ctx, &HotelListRequest{Page: 1, PageSize: 10, City: "深圳市"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "深圳湾酒店", hotels[0].Name)
	})

	t.Run("关键词搜索", func(t *testing.T) {
		hotels, total, err := svc.GetHotelList(ctx, &HotelListRequest{Page: 1, PageSize: 10, Keyword: "广州"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Contains(t, hotels[0].Name, "广州")
	})

	t.Run("分页", func(t *testing.T) {
		req := &HotelListRequest{Page: 1, PageSize: 2}
		hotels, total, err := svc.GetHotelList(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, hotels, 2)

		req.Page = 2
		hotels, _, err = svc.GetHotelList(ctx, req)
		require.NoError(t, err)
		assert.Len(t, hotels, 1)
	})

	t.Run("规范化分页参数", func(t *testing.T) {
		req := &HotelListRequest{PageSize: 100}
		_, _, err := svc.GetHotelList(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 50, req.PageSize)
	})
}

func TestHotelService_GetHotelDetail(t *testing.T) {
	svc := setupTestHotelService(t)
	ctx := context.Background()

	hotel := createHotel(t, svc.db, "测试酒店", "深圳市", false)
	createRoom(t, svc.db, hotel.ID, "101", 388, true)
	createRoom(t, svc.db, hotel.ID, "102", 288, true)
	createRoom(t, svc.db, hotel.ID, "103", 88, false)
	disabled := createHotel(t, svc.db, "已下架酒店", "深圳市", true)

	t.Run("只统计可售房间", func(t *testing.T) {
		info, err := svc.GetHotelDetail(ctx, hotel.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, info.RoomCount)
		assert.Len(t, info.Rooms, 2)
		assert.Equal(t, 288.0, info.MinPrice)
	})

	t.Run("下架酒店不可见", func(t *testing.T) {
		_, err := svc.GetHotelDetail(ctx, disabled.ID)
		assert.ErrorIs(t, err, errors.ErrHotelNotFound)
	})

	t.Run("酒店不存在", func(t *testing.T) {
		_, err := svc.GetHotelDetail(ctx, 99999)
		assert.ErrorIs(t, err, errors.ErrHotelNotFound)
	})
}

func TestHotelService_Rooms(t *testing.T) {
	svc := setupTestHotelService(t)
	ctx := context.Background()

	hotel := createHotel(t, svc.db, "测试酒店", "深圳市", false)
	onSale := createRoom(t, svc.db, hotel.ID, "201", 388, true)
	createRoom(t, svc.db, hotel.ID, "202", 388, false)
	disabled := createHotel(t, svc.db, "已下架酒店", "深圳市", true)
	hidden := createRoom(t, svc.db, disabled.ID, "301", 188, true)

	t.Run("房间列表只含可售房间", func(t *testing.T) {
		rooms, err := svc.GetRoomList(ctx, hotel.ID)
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, "201", rooms[0].RoomNo)
		assert.Equal(t, "可售", rooms[0].StatusName)
	})

	t.Run("下架酒店的房间列表", func(t *testing.T) {
		_, err := svc.GetRoomList(ctx, disabled.ID)
		assert.ErrorIs(t, err, errors.ErrHotelNotFound)
	})

	t.Run("房间详情带酒店名", func(t *testing.T) {
		info, err := svc.GetRoomDetail(ctx, onSale.ID)
		require.NoError(t, err)
		assert.Equal(t, "测试酒店", info.HotelName)
		assert.Equal(t, 388.0, info.PricePerNight)
	})

	t.Run("下架酒店的房间不可见", func(t *testing.T) {
		_, err := svc.GetRoomDetail(ctx, hidden.ID)
		assert.ErrorIs(t, err, errors.ErrRoomNotFound)
	})

	t.Run("房间不存在", func(t *testing.T) {
		_, err := svc.GetRoomDetail(ctx, 99999)
		assert.ErrorIs(t, err, errors.ErrRoomNotFound)
	})
}
