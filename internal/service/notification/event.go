// Package notification 预订事件通知：投递、消费与站内信
package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// EventType 事件类型，同时作为 RabbitMQ routing key
type EventType string

// 预订事件
const (
	EventBookingPaid      EventType = "booking.paid"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingSettled   EventType = "booking.settled"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"
)

// EventTypes 全部事件类型
func EventTypes() []EventType {
	return []EventType{
		EventBookingPaid,
		EventBookingConfirmed,
		EventBookingSettled,
		EventBookingCancelled,
		EventBookingCompleted,
	}
}

// Event 预订状态变更事件
type Event struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	BookingID        string    `json:"booking_id"`
	UserID           int64     `json:"user_id"`
	HotelID          int64     `json:"hotel_id"`
	CheckIn          string    `json:"check_in"`
	CheckOut         string    `json:"check_out"`
	Status           string    `json:"status"`
	CancellationType string    `json:"cancellation_type,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewBookingEvent 根据预订当前状态构造事件
func NewBookingEvent(eventType EventType, booking *models.Booking, at time.Time) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		HotelID:    booking.HotelID,
		CheckIn:    booking.CheckIn.Format("2006-01-02"),
		CheckOut:   booking.CheckOut.Format("2006-01-02"),
		Status:     string(booking.Status.Normalize()),
		OccurredAt: at,
	}
	if booking.CancellationType != nil {
		ev.CancellationType = string(*booking.CancellationType)
	}
	if booking.CancellationReason != nil {
		ev.Reason = *booking.CancellationReason
	}
	return ev
}

// Audience 通知对象
type Audience string

// 通知对象取值
const (
	AudienceUser  Audience = "user"
	AudienceAdmin Audience = "admin"
)

// Recipients 事件的通知对象
//
// 用户或系统取消时同时通知管理员，管理员取消只通知用户
func Recipients(ev Event) []Audience {
	if ev.Type != EventBookingCancelled {
		return []Audience{AudienceUser}
	}
	switch models.CancellationType(ev.CancellationType) {
	case models.CancellationTypeAdmin:
		return []Audience{AudienceUser}
	default:
		return []Audience{AudienceUser, AudienceAdmin}
	}
}
