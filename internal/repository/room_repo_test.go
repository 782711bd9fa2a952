// Package repository 房间与酒店仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

func TestRoomRepository_GetAndLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	hotel, room := seedRoom(t, db, 300)
	second := &models.Room{HotelID: hotel.ID, RoomNo: "102", Type: models.RoomTypeSuite, MaxGuests: 4, PricePerNight: 800, Status: models.RoomStatusAvailable}
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByIDWithHotel(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Hotel)
	assert.Equal(t, hotel.Name, got.Hotel.Name)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = db.Transaction(func(tx *gorm.DB) error {
		rooms, err := repo.WithTx(tx).LockByIDs(ctx, []int64{second.ID, room.ID})
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, room.ID, rooms[0].ID)
		assert.Equal(t, second.ID, rooms[1].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestRoomRepository_ListByHotel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	hotel, room := seedRoom(t, db, 300)
	closed := &models.Room{HotelID: hotel.ID, RoomNo: "201", Type: models.RoomTypeDeluxe, MaxGuests: 2, PricePerNight: 500, Status: models.RoomStatusAvailable}
	require.NoError(t, repo.Create(ctx, closed))
	require.NoError(t, db.Model(closed).Update("status", models.RoomStatusUnavailable).Error)

	all, err := repo.ListByHotel(ctx, hotel.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := int8(models.RoomStatusAvailable)
	available, err := repo.ListByHotel(ctx, hotel.ID, &status)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, room.ID, available[0].ID)
}

func TestHotelRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHotelRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Hotel{Name: "外滩酒店", City: "上海", Address: "中山东一路", Status: models.HotelStatusActive}))
	require.NoError(t, repo.Create(ctx, &models.Hotel{Name: "西湖酒店", City: "杭州", Address: "北山街", Status: models.HotelStatusActive}))
	disabled := &models.Hotel{Name: "停业酒店", City: "上海", Address: "外滩", Status: models.HotelStatusActive}
	require.NoError(t, repo.Create(ctx, disabled))
	require.NoError(t, db.Model(disabled).Update("status", models.HotelStatusDisabled).Error)

	_, total, err := repo.List(ctx, 0, 10, HotelFilter{City: "上海"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	list, total, err := repo.ListActive(ctx, 0, 10, HotelFilter{City: "上海"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "外滩酒店", list[0].Name)

	_, total, err = repo.ListActive(ctx, 0, 10, HotelFilter{Keyword: "北山"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestHotelRepository_GetByIDWithRooms(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHotelRepository(db)
	ctx := context.Background()

	hotel, _ := seedRoom(t, db, 300)
	closed := &models.Room{HotelID: hotel.ID, RoomNo: "999", Type: models.RoomTypeStandard, MaxGuests: 1, PricePerNight: 100, Status: models.RoomStatusAvailable}
	require.NoError(t, db.Create(closed).Error)
	require.NoError(t, db.Model(closed).Update("status", models.RoomStatusUnavailable).Error)

	got, err := repo.GetByIDWithRooms(ctx, hotel.ID)
	require.NoError(t, err)
	assert.Len(t, got.Rooms, 1)

	_, err = repo.GetByID(ctx, 12345)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
