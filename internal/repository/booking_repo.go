// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/database"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// activeStatusCondition 占用房间的状态条件，兼容历史数据中的空状态
const activeStatusCondition = "(bookings.status IN ? OR bookings.status IS NULL OR bookings.status = '')"

// activeStatuses 占用房间的状态取值
func activeStatuses() []string {
	statuses := make([]string, 0, len(models.ActiveBookingStatuses))
	for _, s := range models.ActiveBookingStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

// BookedRange 房间被占用的区间
type BookedRange struct {
	BookingID string    `json:"booking_id"`
	RoomID    int64     `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
}

// BookingFilter 预订列表筛选条件
type BookingFilter struct {
	UserID  int64
	HotelID int64
	RoomID  int64
	Status  string
}

// StatusTransition 一次带条件的状态更新
type StatusTransition struct {
	BookingID         string
	From              models.BookingStatus
	To                models.BookingStatus
	Fields            map[string]interface{} // 随状态一起更新的字段
	DeactivateDetails bool                   // 释放房间占用
}

// BookingRepository 预订仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Create 创建预订及其明细
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID 根据 ID 获取预订（包含明细）
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails 根据 ID 获取预订（包含酒店、房间信息）
func (r *BookingRepository) GetByIDWithDetails(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Hotel").
		Preload("Details.Room").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindConflict 查找与 [checkIn, checkOut) 重叠的最早一条占用，无冲突返回 nil
func (r *BookingRepository) FindConflict(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (*BookedRange, error) {
	var ranges []BookedRange
	err := r.bookedQuery(ctx, roomID).
		Where("bookings.check_in < ? AND bookings.check_out > ?", checkOut, checkIn).
		Order("bookings.check_in ASC").
		Limit(1).
		Scan(&ranges).Error
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, nil
	}
	return &ranges[0], nil
}

// ListBookedRanges 获取与 [from, to) 重叠的全部占用区间
func (r *BookingRepository) ListBookedRanges(ctx context.Context, roomID int64, from, to time.Time) ([]BookedRange, error) {
	var ranges []BookedRange
	err := r.bookedQuery(ctx, roomID).
		Where("bookings.check_in < ? AND bookings.check_out > ?", to, from).
		Order("bookings.check_in ASC").
		Scan(&ranges).Error
	return ranges, err
}

func (r *BookingRepository) bookedQuery(ctx context.Context, roomID int64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("booking_details").
		Select("bookings.id AS booking_id, booking_details.room_id, bookings.check_in, bookings.check_out").
		Joins("JOIN bookings ON bookings.id = booking_details.booking_id").
		Where("booking_details.room_id = ?", roomID).
		Where(activeStatusCondition, activeStatuses())
}

// Transition 条件更新状态：仅当当前状态仍为 From 时生效
// 返回 false 表示状态已被其他请求修改
func (r *BookingRepository) Transition(ctx context.Context, t StatusTransition) (bool, error) {
	var applied bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := make(map[string]interface{}, len(t.Fields)+1)
		for k, v := range t.Fields {
			updates[k] = v
		}
		updates["status"] = t.To

		query := tx.Model(&models.Booking{}).Where("id = ?", t.BookingID)
		if t.From.Normalize() == models.BookingStatusUnconfirmed {
			query = query.Where("(status = ? OR status IS NULL OR status = '')", models.BookingStatusUnconfirmed)
		} else {
			query = query.Where("status = ?", t.From)
		}

		result := query.Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if t.DeactivateDetails {
			if err := tx.Model(&models.BookingDetail{}).
				Where("booking_id = ?", t.BookingID).
				Update("active", false).Error; err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	return applied, err
}

// ListExpiredPending 获取离店日期早于 bound 的待确认预订，按 ID 游标分批
func (r *BookingRepository) ListExpiredPending(ctx context.Context, bound time.Time, afterID string, limit int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := r.db.WithContext(ctx).
		Where("status = ?", models.BookingStatusPending).
		Where("check_out < ?", bound)
	if afterID != "" {
		query = query.Where("id > ?", afterID)
	}
	err := query.Order("id ASC").Limit(limit).Find(&bookings).Error
	return bookings, err
}

// List 获取预订列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filter BookingFilter) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.HotelID > 0 {
		query = query.Where("hotel_id = ?", filter.HotelID)
	}
	if filter.RoomID > 0 {
		query = query.Where("id IN (?)",
			r.db.Model(&models.BookingDetail{}).Select("booking_id").Where("room_id = ?", filter.RoomID))
	}
	if filter.Status != "" {
		if models.BookingStatus(filter.Status) == models.BookingStatusUnconfirmed {
			query = query.Where("(status = ? OR status IS NULL OR status = '')", filter.Status)
		} else {
			query = query.Where("status = ?", filter.Status)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Hotel").
		Preload("Details").
		Scopes(database.OrderByCreatedDesc).
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ListByUser 获取用户的预订列表
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, offset, limit int, status string) ([]*models.Booking, int64, error) {
	return r.List(ctx, offset, limit, BookingFilter{UserID: userID, Status: status})
}
