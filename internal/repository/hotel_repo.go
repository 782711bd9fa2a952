package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// HotelFilter 酒店列表筛选条件，零值字段不参与过滤
type HotelFilter struct {
	City    string
	Keyword string // 匹配名称或地址
	Status  *int8
}

func (f HotelFilter) apply(db *gorm.DB) *gorm.DB {
	if f.City != "" {
		db = db.Where("city = ?", f.City)
	}
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		db = db.Where("(name LIKE ? OR address LIKE ?)", like, like)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

// HotelRepository 酒店仓储
type HotelRepository struct {
	db *gorm.DB
}

// NewHotelRepository 创建酒店仓储
func NewHotelRepository(db *gorm.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

// Create 创建酒店
func (r *HotelRepository) Create(ctx context.Context, hotel *models.Hotel) error {
	return r.db.WithContext(ctx).Create(hotel).Error
}

// GetByID 根据 ID 获取酒店
func (r *HotelRepository) GetByID(ctx context.Context, id int64) (*models.Hotel, error) {
	hotel := new(models.Hotel)
	if err := r.db.WithContext(ctx).First(hotel, id).Error; err != nil {
		return nil, err
	}
	return hotel, nil
}

// GetByIDWithRooms 获取酒店并按房号预加载可售房间
func (r *HotelRepository) GetByIDWithRooms(ctx context.Context, id int64) (*models.Hotel, error) {
	hotel := new(models.Hotel)
	err := r.db.WithContext(ctx).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.RoomStatusAvailable).Order("room_no ASC")
		}).
		First(hotel, id).Error
	if err != nil {
		return nil, err
	}
	return hotel, nil
}

// List 分页查询酒店，按 ID 倒序
func (r *HotelRepository) List(ctx context.Context, offset, limit int, filter HotelFilter) ([]*models.Hotel, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Hotel{}).Scopes(filter.apply)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Hotel{}, 0, nil
	}

	var hotels []*models.Hotel
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&hotels).Error
	return hotels, total, err
}

// ListActive 只查询上架酒店
func (r *HotelRepository) ListActive(ctx context.Context, offset, limit int, filter HotelFilter) ([]*models.Hotel, int64, error) {
	active := int8(models.HotelStatusActive)
	filter.Status = &active
	return r.List(ctx, offset, limit, filter)
}
