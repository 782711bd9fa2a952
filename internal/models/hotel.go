package models

import (
	"time"
)

// Hotel 酒店模型
type Hotel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Stars       *int      `json:"stars,omitempty"`
	City        string    `gorm:"type:varchar(50);not null;index" json:"city"`
	Address     string    `gorm:"type:varchar(255);not null" json:"address"`
	Phone       *string   `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Status      int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Rooms []Room `gorm:"foreignKey:HotelID" json:"rooms,omitempty"`
}

// TableName 表名
func (Hotel) TableName() string {
	return "hotels"
}

// HotelStatus 酒店状态
const (
	HotelStatusDisabled = 0 // 禁用
	HotelStatusActive   = 1 // 正常
)

// Room 房间模型
//
// Status 仅表示管理上是否可售，某一日期是否被占用由预订明细决定
type Room struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	HotelID       int64     `gorm:"index;not null" json:"hotel_id"`
	RoomNo        string    `gorm:"type:varchar(20);not null" json:"room_no"`
	Type          string    `gorm:"type:varchar(50);not null" json:"type"`
	BedType       *string   `gorm:"type:varchar(50)" json:"bed_type,omitempty"`
	MaxGuests     int       `gorm:"not null;default:2" json:"max_guests"`
	PricePerNight float64   `gorm:"type:decimal(12,2);not null" json:"price_per_night"`
	Description   *string   `gorm:"type:text" json:"description,omitempty"`
	Status        int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Hotel *Hotel `gorm:"foreignKey:HotelID" json:"hotel,omitempty"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}

// RoomType 房间类型
const (
	RoomTypeStandard = "standard" // 标准间
	RoomTypeBusiness = "business" // 商务间
	RoomTypeDeluxe   = "deluxe"   // 豪华间
	RoomTypeSuite    = "suite"    // 套房
)

// RoomStatus 房间状态
const (
	RoomStatusUnavailable = 0 // 停售
	RoomStatusAvailable   = 1 // 可售
)

// IsAvailable 房间是否可售
func (r *Room) IsAvailable() bool {
	return r.Status == RoomStatusAvailable
}
