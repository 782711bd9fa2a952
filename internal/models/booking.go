package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// BookingStatus 预订状态
type BookingStatus string

// 预订状态取值
const (
	BookingStatusUnconfirmed BookingStatus = "unconfirmed" // 已创建，待支付
	BookingStatusPending     BookingStatus = "pending"     // 已支付，待确认
	BookingStatusConfirmed   BookingStatus = "confirmed"   // 已确认
	BookingStatusPaid        BookingStatus = "paid"        // 已结清
	BookingStatusCancelled   BookingStatus = "cancelled"   // 已取消
	BookingStatusCompleted   BookingStatus = "completed"   // 已完成
)

// ActiveBookingStatuses 占用房间的状态集合
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusUnconfirmed,
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusPaid,
}

// Normalize 历史数据中空状态视为 unconfirmed
func (s BookingStatus) Normalize() BookingStatus {
	if s == "" {
		return BookingStatusUnconfirmed
	}
	return s
}

// IsActive 是否占用房间
func (s BookingStatus) IsActive() bool {
	switch s.Normalize() {
	case BookingStatusUnconfirmed, BookingStatusPending, BookingStatusConfirmed, BookingStatusPaid:
		return true
	}
	return false
}

// IsTerminal 是否为终态
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// Valid 是否为已知状态
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusUnconfirmed, BookingStatusPending, BookingStatusConfirmed,
		BookingStatusPaid, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// Label 状态中文名称
func (s BookingStatus) Label() string {
	switch s.Normalize() {
	case BookingStatusUnconfirmed:
		return "待支付"
	case BookingStatusPending:
		return "待确认"
	case BookingStatusConfirmed:
		return "已确认"
	case BookingStatusPaid:
		return "已结清"
	case BookingStatusCancelled:
		return "已取消"
	case BookingStatusCompleted:
		return "已完成"
	default:
		return "未知"
	}
}

// Scan 实现 sql.Scanner，NULL 读作空状态
func (s *BookingStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = BookingStatus(v)
	case []byte:
		*s = BookingStatus(v)
	default:
		return fmt.Errorf("unsupported booking status type %T", value)
	}
	return nil
}

// Value 实现 driver.Valuer
func (s BookingStatus) Value() (driver.Value, error) {
	return string(s.Normalize()), nil
}

// CancellationType 取消发起方
type CancellationType string

// 取消发起方取值
const (
	CancellationTypeUser   CancellationType = "user"
	CancellationTypeAdmin  CancellationType = "admin"
	CancellationTypeSystem CancellationType = "system"
)

// Valid 是否为已知取消类型
func (t CancellationType) Valid() bool {
	return t == CancellationTypeUser || t == CancellationTypeAdmin || t == CancellationTypeSystem
}

// Booking 预订模型
//
// CheckIn/CheckOut 为 UTC 零点的日历日期，区间语义为 [CheckIn, CheckOut)
type Booking struct {
	ID                 string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID             int64             `gorm:"index;not null" json:"user_id"`
	HotelID            int64             `gorm:"index;not null" json:"hotel_id"`
	CheckIn            time.Time         `gorm:"type:date;not null" json:"check_in"`
	CheckOut           time.Time         `gorm:"type:date;not null;index" json:"check_out"`
	Status             BookingStatus     `gorm:"type:varchar(20);index" json:"status"`
	TotalPrice         float64           `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Guests             int               `gorm:"not null;default:1" json:"guests"`
	PaymentMethod      *string           `gorm:"type:varchar(32)" json:"payment_method,omitempty"`
	CancellationReason *string           `gorm:"type:varchar(255)" json:"cancellation_reason,omitempty"`
	CancellationType   *CancellationType `gorm:"type:varchar(16)" json:"cancellation_type,omitempty"`
	PaidAt             *time.Time        `json:"paid_at,omitempty"`
	ConfirmedAt        *time.Time        `json:"confirmed_at,omitempty"`
	SettledAt          *time.Time        `json:"settled_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User    *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Hotel   *Hotel          `gorm:"foreignKey:HotelID" json:"hotel,omitempty"`
	Details []BookingDetail `gorm:"foreignKey:BookingID" json:"details,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// Nights 入住晚数
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// BookingDetail 预订明细，每个房间一条
//
// CheckIn/CheckOut/Active 冗余自预订主表，供 Postgres 排他约束使用
type BookingDetail struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID     string    `gorm:"type:varchar(36);index;not null" json:"booking_id"`
	RoomID        int64     `gorm:"index;not null" json:"room_id"`
	Quantity      int       `gorm:"not null;default:1" json:"quantity"`
	PricePerNight float64   `gorm:"type:decimal(12,2);not null" json:"price_per_night"`
	Nights        int       `gorm:"not null" json:"nights"`
	Subtotal      float64   `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CheckIn       time.Time `gorm:"type:date;not null" json:"check_in"`
	CheckOut      time.Time `gorm:"type:date;not null" json:"check_out"`
	Active        bool      `gorm:"not null;default:true" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName 表名
func (BookingDetail) TableName() string {
	return "booking_details"
}
