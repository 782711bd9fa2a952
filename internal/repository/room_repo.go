// Package repository 提供数据访问层
package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// RoomRepository 房间仓储
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// Create 创建房间
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetByID 根据 ID 获取房间
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByIDWithHotel 根据 ID 获取房间（包含酒店信息）
func (r *RoomRepository) GetByIDWithHotel(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("Hotel").
		First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// LockByIDs 按 ID 升序加行锁读取房间，需在事务中调用
// 固定加锁顺序避免多房间预订之间死锁
func (r *RoomRepository) LockByIDs(ctx context.Context, ids []int64) ([]*models.Room, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&rooms).Error
	return rooms, err
}

// ListByHotel 获取酒店的房间列表
func (r *RoomRepository) ListByHotel(ctx context.Context, hotelID int64, status *int8) ([]*models.Room, error) {
	var rooms []*models.Room
	query := r.db.WithContext(ctx).Where("hotel_id = ?", hotelID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("room_no ASC").Find(&rooms).Error
	return rooms, err
}
