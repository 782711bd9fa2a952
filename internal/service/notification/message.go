package notification

import (
	"fmt"

	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/pkg/sms"
)

// Message 渲染后的站内信内容
type Message struct {
	Type    string
	Title   string
	Content string
}

// stay 入住区间文本
func stay(ev Event) string {
	return fmt.Sprintf("%s ~ %s", ev.CheckIn, ev.CheckOut)
}

// Render 按事件和通知对象生成站内信
func Render(ev Event, audience Audience) Message {
	switch ev.Type {
	case EventBookingConfirmed:
		return Message{
			Type:    models.NotificationTypeBookingConfirmed,
			Title:   "预订已确认",
			Content: fmt.Sprintf("您的预订 %s（%s）已确认，期待您的光临", ev.BookingID, stay(ev)),
		}
	case EventBookingCancelled:
		if audience == AudienceAdmin {
			return Message{
				Type:    models.NotificationTypeBookingCancelled,
				Title:   "预订已取消",
				Content: fmt.Sprintf("用户 %d 的预订 %s（%s）已取消，取消方式：%s", ev.UserID, ev.BookingID, stay(ev), cancellationLabel(ev.CancellationType)),
			}
		}
		content := fmt.Sprintf("您的预订 %s（%s）已取消", ev.BookingID, stay(ev))
		if ev.Reason != "" {
			content += "，原因：" + ev.Reason
		}
		return Message{
			Type:    models.NotificationTypeBookingCancelled,
			Title:   "预订已取消",
			Content: content,
		}
	default:
		status := models.BookingStatus(ev.Status)
		return Message{
			Type:    models.NotificationTypeBookingUpdated,
			Title:   "预订状态更新",
			Content: fmt.Sprintf("您的预订 %s（%s）状态已更新为%s", ev.BookingID, stay(ev), status.Label()),
		}
	}
}

func cancellationLabel(t string) string {
	switch models.CancellationType(t) {
	case models.CancellationTypeUser:
		return "用户取消"
	case models.CancellationTypeAdmin:
		return "管理员取消"
	case models.CancellationTypeSystem:
		return "超时自动取消"
	default:
		return "未知"
	}
}

// smsTemplate 事件对应的短信模板，仅确认和取消会发送短信给用户
func smsTemplate(ev Event, audience Audience) (string, bool) {
	if audience != AudienceUser {
		return "", false
	}
	switch ev.Type {
	case EventBookingConfirmed:
		return sms.TemplateBookingConfirmed, true
	case EventBookingCancelled:
		return sms.TemplateBookingCancelled, true
	}
	return "", false
}

// smsParams 短信模板参数
func smsParams(ev Event) map[string]string {
	return map[string]string{
		"booking_id": ev.BookingID,
		"check_in":   ev.CheckIn,
		"check_out":  ev.CheckOut,
	}
}
