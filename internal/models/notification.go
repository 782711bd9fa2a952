package models

import (
	"time"
)

// Notification 站内通知
type Notification struct {
	ID        int64      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID    int64      `gorm:"index;not null;column:user_id" json:"user_id"`
	Type      string     `gorm:"type:varchar(32);not null;column:type" json:"type"`
	Title     string     `gorm:"type:varchar(100);not null;column:title" json:"title"`
	Content   string     `gorm:"type:text;not null;column:content" json:"content"`
	Link      *string    `gorm:"type:varchar(255);column:link" json:"link,omitempty"`
	EventID   string     `gorm:"type:varchar(36);index;column:event_id" json:"event_id"`
	IsRead    bool       `gorm:"not null;default:false;column:is_read" json:"is_read"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

// TableName 表名
func (Notification) TableName() string {
	return "notifications"
}

// NotificationType 通知类型
const (
	NotificationTypeBookingConfirmed = "booking_confirmed" // 预订已确认
	NotificationTypeBookingCancelled = "booking_cancelled" // 预订已取消
	NotificationTypeBookingUpdated   = "booking_updated"   // 预订状态更新
)

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Hotel{},
		&Room{},
		&Booking{},
		&BookingDetail{},
		&Notification{},
	}
}
