// Package hotel 提供酒店与房间目录查询服务
package hotel

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// HotelService 酒店服务
type HotelService struct {
	hotelRepo *repository.HotelRepository
	roomRepo  *repository.RoomRepository
}

// NewHotelService 创建酒店服务
func NewHotelService(hotelRepo *repository.HotelRepository, roomRepo *repository.RoomRepository) *HotelService {
	return &HotelService{
		hotelRepo: hotelRepo,
		roomRepo:  roomRepo,
	}
}

// HotelListRequest 酒店列表请求
type HotelListRequest struct {
	Page     int    `form:"page" json:"page"`
	PageSize int    `form:"page_size" json:"page_size"`
	City     string `form:"city" json:"city"`
	Keyword  string `form:"keyword" json:"keyword"`
}

// HotelInfo 酒店信息
type HotelInfo struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Stars       *int        `json:"stars,omitempty"`
	City        string      `json:"city"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	Description string      `json:"description"`
	MinPrice    float64     `json:"min_price"`
	RoomCount   int         `json:"room_count"`
	Rooms       []*RoomInfo `json:"rooms,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// RoomInfo 房间信息
type RoomInfo struct {
	ID            int64     `json:"id"`
	HotelID       int64     `json:"hotel_id"`
	HotelName     string    `json:"hotel_name,omitempty"`
	RoomNo        string    `json:"room_no"`
	Type          string    `json:"type"`
	BedType       *string   `json:"bed_type,omitempty"`
	MaxGuests     int       `json:"max_guests"`
	PricePerNight float64   `json:"price_per_night"`
	Description   string    `json:"description"`
	Status        int8      `json:"status"`
	StatusName    string    `json:"status_name"`
	Available     *bool     `json:"available,omitempty"` // 仅按日期查询时返回
	CreatedAt     time.Time `json:"created_at"`
}

// GetHotelList 获取上架酒店列表
func (s *HotelService) GetHotelList(ctx context.Context, req *HotelListRequest) ([]*HotelInfo, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 50 {
		req.PageSize = 50
	}

	offset := (req.Page - 1) * req.PageSize
	hotels, total, err := s.hotelRepo.ListActive(ctx, offset, req.PageSize, repository.HotelFilter{
		City:    req.City,
		Keyword: req.Keyword,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*HotelInfo, 0, len(hotels))
	for _, hotel := range hotels {
		result = append(result, convertHotelInfo(hotel))
	}
	return result, total, nil
}

// GetHotelDetail 获取酒店详情（包含可售房间）
func (s *HotelService) GetHotelDetail(ctx context.Context, hotelID int64) (*HotelInfo, error) {
	hotel, err := s.hotelRepo.GetByIDWithRooms(ctx, hotelID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrHotelNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if hotel.Status != models.HotelStatusActive {
		return nil, errors.ErrHotelNotFound
	}

	info := convertHotelInfo(hotel)
	for i := range hotel.Rooms {
		room := &hotel.Rooms[i]
		info.Rooms = append(info.Rooms, convertRoomInfo(room))
		if info.MinPrice == 0 || room.PricePerNight < info.MinPrice {
			info.MinPrice = room.PricePerNight
		}
	}
	info.RoomCount = len(hotel.Rooms)
	return info, nil
}

// GetRoomList 获取酒店的可售房间列表
func (s *HotelService) GetRoomList(ctx context.Context, hotelID int64) ([]*RoomInfo, error) {
	hotel, err := s.hotelRepo.GetByID(ctx, hotelID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrHotelNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if hotel.Status != models.HotelStatusActive {
		return nil, errors.ErrHotelNotFound
	}

	status := int8(models.RoomStatusAvailable)
	rooms, err := s.roomRepo.ListByHotel(ctx, hotelID, &status)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, convertRoomInfo(room))
	}
	return result, nil
}

// GetRoomDetail 获取房间详情
func (s *HotelService) GetRoomDetail(ctx context.Context, roomID int64) (*RoomInfo, error) {
	room, err := s.roomRepo.GetByIDWithHotel(ctx, roomID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if room.Hotel != nil && room.Hotel.Status != models.HotelStatusActive {
		return nil, errors.ErrRoomNotFound
	}

	return convertRoomInfo(room), nil
}

func convertHotelInfo(hotel *models.Hotel) *HotelInfo {
	info := &HotelInfo{
		ID:        hotel.ID,
		Name:      hotel.Name,
		Stars:     hotel.Stars,
		City:      hotel.City,
		Address:   hotel.Address,
		CreatedAt: hotel.CreatedAt,
	}
	if hotel.Phone != nil {
		info.Phone = *hotel.Phone
	}
	if hotel.Description != nil {
		info.Description = *hotel.Description
	}
	return info
}

func convertRoomInfo(room *models.Room) *RoomInfo {
	info := &RoomInfo{
		ID:            room.ID,
		HotelID:       room.HotelID,
		RoomNo:        room.RoomNo,
		Type:          room.Type,
		BedType:       room.BedType,
		MaxGuests:     room.MaxGuests,
		PricePerNight: room.PricePerNight,
		Status:        room.Status,
		StatusName:    roomStatusName(room.Status),
		CreatedAt:     room.CreatedAt,
	}
	if room.Description != nil {
		info.Description = *room.Description
	}
	if room.Hotel != nil {
		info.HotelName = room.Hotel.Name
	}
	return info
}

// roomStatusName 获取房间状态名称
func roomStatusName(status int8) string {
	switch status {
	case models.RoomStatusUnavailable:
		return "停售"
	case models.RoomStatusAvailable:
		return "可售"
	default:
		return "未知"
	}
}
