// Package repository 预订仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

func TestBookingRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	_, room := seedRoom(t, db, 500000)

	booking := &models.Booking{
		ID:         uuid.NewString(),
		UserID:     1,
		HotelID:    room.HotelID,
		CheckIn:    day("2025-06-10"),
		CheckOut:   day("2025-06-12"),
		Status:     models.BookingStatusUnconfirmed,
		TotalPrice: 1000000,
		Guests:     2,
		Details: []models.BookingDetail{{
			RoomID: room.ID, Quantity: 1, PricePerNight: 500000, Nights: 2, Subtotal: 1000000,
			CheckIn: day("2025-06-10"), CheckOut: day("2025-06-12"), Active: true,
		}},
	}
	require.NoError(t, repo.Create(ctx, booking))

	got, err := repo.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusUnconfirmed, got.Status)
	assert.Equal(t, 1000000.0, got.TotalPrice)
	assert.Equal(t, "2025-06-10", got.CheckIn.Format("2006-01-02"))
	assert.Equal(t, 2, got.Nights())
	require.Len(t, got.Details, 1)
	assert.True(t, got.Details[0].Active)

	full, err := repo.GetByIDWithDetails(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, full.Hotel)
	require.NotNil(t, full.Details[0].Room)
	assert.Equal(t, "101", full.Details[0].Room.RoomNo)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.Error(t, err)
}

func TestBookingRepository_FindConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	_, room := seedRoom(t, db, 100)
	_, other := seedRoom(t, db, 100)

	existing := seedBooking(t, db, room, 1, "2025-06-10", "2025-06-12", models.BookingStatusPending)
	seedBooking(t, db, room, 1, "2025-06-20", "2025-06-22", models.BookingStatusCancelled)
	seedBooking(t, db, room, 1, "2025-06-25", "2025-06-27", models.BookingStatusCompleted)

	tests := []struct {
		name      string
		roomID    int64
		in, out   string
		wantFound bool
	}{
		{"部分重叠", room.ID, "2025-06-11", "2025-06-13", true},
		{"完全包含", room.ID, "2025-06-09", "2025-06-14", true},
		{"同区间", room.ID, "2025-06-10", "2025-06-12", true},
		{"背靠背入住", room.ID, "2025-06-12", "2025-06-14", false},
		{"背靠背离店", room.ID, "2025-06-08", "2025-06-10", false},
		{"已取消不占用", room.ID, "2025-06-20", "2025-06-22", false},
		{"已完成不占用", room.ID, "2025-06-25", "2025-06-26", false},
		{"其他房间", other.ID, "2025-06-10", "2025-06-12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflict, err := repo.FindConflict(ctx, tt.roomID, day(tt.in), day(tt.out))
			require.NoError(t, err)
			if !tt.wantFound {
				assert.Nil(t, conflict)
				return
			}
			require.NotNil(t, conflict)
			assert.Equal(t, existing.ID, conflict.BookingID)
			assert.Equal(t, "2025-06-10", conflict.CheckIn.Format("2006-01-02"))
			assert.Equal(t, "2025-06-12", conflict.CheckOut.Format("2006-01-02"))
		})
	}
}

func TestBookingRepository_FindConflict_LegacyNullStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	_, room := seedRoom(t, db, 100)

	legacy := seedBooking(t, db, room, 1, "2025-07-01", "2025-07-03", models.BookingStatusUnconfirmed)
	require.NoError(t, db.Exec("UPDATE bookings SET status = NULL WHERE id = ?", legacy.ID).Error)

	conflict, err := repo.FindConflict(ctx, room.ID, day("2025-07-02"), day("2025-07-04"))
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, legacy.ID, conflict.BookingID)

	got, err := repo.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusUnconfirmed, got.Status.Normalize())
}

func TestBookingRepository_ListBookedRanges(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	_, room := seedRoom(t, db, 100)

	seedBooking(t, db, room, 1, "2025-06-12", "2025-06-14", models.BookingStatusConfirmed)
	seedBooking(t, db, room, 1, "2025-06-01", "2025-06-03", models.BookingStatusPaid)
	seedBooking(t, db, room, 1, "2025-06-05", "2025-06-07", models.BookingStatusCancelled)
	seedBooking(t, db, room, 1, "2025-07-01", "2025-07-02", models.BookingStatusPending)

	ranges, err := repo.ListBookedRanges(ctx, room.ID, day("2025-06-01"), day("2025-07-01"))
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, "2025-06-01", ranges[0].CheckIn.Format("2006-01-02"))
	assert.Equal(t, "2025-06-12", ranges[1].CheckIn.Format("2006-01-02"))
}

func TestBookingRepository_Transition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	_, room := seedRoom(t, db, 100)

	t.Run("条件满足时更新", func(t *testing.T) {
		b := seedBooking(t, db, room, 1, "2025-06-10", "2025-06-12", models.BookingStatusUnconfirmed)

		ok, err := repo.Transition(ctx, StatusTransition{
			BookingID: b.ID,
			From:      models.BookingStatusUnconfirmed,
			To:        models.BookingStatusPending,
			Fields:    map[string]interface{}{"payment_method": "card"},
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPending, got.Status)
		require.NotNil(t, got.PaymentMethod)
		assert.Equal(t, "card", *got.PaymentMethod)

		ok, err = repo.Transition(ctx, StatusTransition{
			BookingID: b.ID,
			From:      models.BookingStatusUnconfirmed,
			To:        models.BookingStatusPending,
		})
		require.NoError(t, err)
		assert.False(t, ok, "状态已变化时不应再次生效")
	})

	t.Run("空状态按 unconfirmed 匹配", func(t *testing.T) {
		b := seedBooking(t, db, room, 1, "2025-08-10", "2025-08-12", models.BookingStatusUnconfirmed)
		require.NoError(t, db.Exec("UPDATE bookings SET status = '' WHERE id = ?", b.ID).Error)

		ok, err := repo.Transition(ctx, StatusTransition{
			BookingID: b.ID,
			From:      models.BookingStatusUnconfirmed,
			To:        models.BookingStatusPending,
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("取消时释放明细", func(t *testing.T) {
		b := seedBooking(t, db, room, 1, "2025-09-10", "2025-09-12", models.BookingStatusConfirmed)

		ok, err := repo.Transition(ctx, StatusTransition{
			BookingID:         b.ID,
			From:              models.BookingStatusConfirmed,
			To:                models.BookingStatusCancelled,
			Fields:            map[string]interface{}{"cancellation_type": models.CancellationTypeAdmin},
			DeactivateDetails: true,
		})
		require.NoError(t, err)
		assert.True(t, ok)

		var active int64
		require.NoError(t, db.Model(&models.BookingDetail{}).Where("booking_id = ? AND active = ?", b.ID, true).Count(&active).Error)
		assert.Zero(t, active)

		conflict, err := repo.FindConflict(ctx, room.ID, day("2025-09-10"), day("2025-09-12"))
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})
}

func TestBookingRepository_ListExpiredPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	_, room := seedRoom(t, db, 100)

	a := seedBooking(t, db, room, 1, "2025-06-01", "2025-06-03", models.BookingStatusPending)
	b := seedBooking(t, db, room, 1, "2025-06-10", "2025-06-12", models.BookingStatusPending)
	seedBooking(t, db, room, 1, "2025-06-12", "2025-06-13", models.BookingStatusPending)
	seedBooking(t, db, room, 1, "2025-06-04", "2025-06-05", models.BookingStatusConfirmed)

	expired, err := repo.ListExpiredPending(ctx, day("2025-06-13"), "", 10)
	require.NoError(t, err)
	ids := []string{}
	for _, e := range expired {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	first, err := repo.ListExpiredPending(ctx, day("2025-06-13"), "", 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	rest, err := repo.ListExpiredPending(ctx, day("2025-06-13"), first[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.NotEqual(t, first[0].ID, rest[0].ID)
}

func TestBookingRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	_, room := seedRoom(t, db, 100)
	_, other := seedRoom(t, db, 200)

	seedBooking(t, db, room, 1, "2025-06-01", "2025-06-02", models.BookingStatusPending)
	seedBooking(t, db, room, 2, "2025-06-03", "2025-06-04", models.BookingStatusConfirmed)
	seedBooking(t, db, other, 1, "2025-06-05", "2025-06-06", models.BookingStatusUnconfirmed)

	list, total, err := repo.ListByUser(ctx, 1, 0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(ctx, 0, 10, BookingFilter{RoomID: room.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.List(ctx, 0, 10, BookingFilter{HotelID: other.HotelID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	list, total, err = repo.List(ctx, 0, 10, BookingFilter{Status: string(models.BookingStatusUnconfirmed)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.NotNil(t, list[0].Hotel)

	list, total, err = repo.List(ctx, 0, 1, BookingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 1)
}
