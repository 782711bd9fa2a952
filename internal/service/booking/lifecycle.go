package booking

import (
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
)

// Action 状态流转动作
type Action string

// 状态流转动作
const (
	ActionPay      Action = "pay"
	ActionConfirm  Action = "confirm"
	ActionSettle   Action = "settle"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// transitions 状态流转表，缺失的组合均为非法流转
var transitions = map[models.BookingStatus]map[Action]models.BookingStatus{
	models.BookingStatusUnconfirmed: {
		ActionPay:      models.BookingStatusPending,
		ActionCancel:   models.BookingStatusCancelled,
		ActionComplete: models.BookingStatusCompleted,
	},
	models.BookingStatusPending: {
		ActionConfirm:  models.BookingStatusConfirmed,
		ActionCancel:   models.BookingStatusCancelled,
		ActionComplete: models.BookingStatusCompleted,
	},
	models.BookingStatusConfirmed: {
		ActionSettle:   models.BookingStatusPaid,
		ActionCancel:   models.BookingStatusCancelled,
		ActionComplete: models.BookingStatusCompleted,
	},
	models.BookingStatusPaid: {
		ActionCancel:   models.BookingStatusCancelled,
		ActionComplete: models.BookingStatusCompleted,
	},
}

// NextStatus 查询流转后的状态
func NextStatus(from models.BookingStatus, action Action) (models.BookingStatus, bool) {
	to, ok := transitions[from.Normalize()][action]
	return to, ok
}

// ActionForStatus 目标状态对应的动作
func ActionForStatus(target models.BookingStatus) (Action, bool) {
	switch target {
	case models.BookingStatusPending:
		return ActionPay, true
	case models.BookingStatusConfirmed:
		return ActionConfirm, true
	case models.BookingStatusPaid:
		return ActionSettle, true
	case models.BookingStatusCancelled:
		return ActionCancel, true
	case models.BookingStatusCompleted:
		return ActionComplete, true
	}
	return "", false
}

// Label 动作中文名称
func (a Action) Label() string {
	switch a {
	case ActionPay:
		return "支付"
	case ActionConfirm:
		return "确认"
	case ActionSettle:
		return "结清"
	case ActionCancel:
		return "取消"
	case ActionComplete:
		return "完成"
	}
	return string(a)
}

// Authorize 校验操作者是否可以对预订执行动作，不检查状态
func Authorize(actor Actor, action Action, booking *models.Booking) error {
	owner := actor.Owns(booking.UserID)

	var allowed bool
	switch action {
	case ActionPay:
		allowed = owner || actor.IsAdmin() || actor.IsSystem()
	case ActionConfirm:
		allowed = actor.IsAdmin()
	case ActionSettle:
		allowed = actor.IsAdmin() || actor.IsSystem()
	case ActionCancel:
		allowed = owner || actor.IsAdmin() || actor.IsSystem()
	case ActionComplete:
		allowed = owner
	}

	if !allowed {
		return errors.ErrPermissionDenied.WithMessagef("无权%s该预订", action.Label())
	}
	return nil
}

// stateError 当前状态不允许该动作
func stateError(from models.BookingStatus, action Action) *errors.AppError {
	return errors.ErrBookingStatusError.WithMessagef("预订%s，不能%s", from.Normalize().Label(), action.Label())
}

// ResolveCancellationType 计算取消类型
//
// 显式传入时直接使用；否则管理员为 admin，系统为 system，其余为 user。
// system 只能由系统操作者使用，admin 只能由管理员使用
func ResolveCancellationType(actor Actor, explicit string) (models.CancellationType, error) {
	if explicit != "" {
		t := models.CancellationType(explicit)
		if !t.Valid() {
			return "", errors.ErrInvalidCancellationType
		}
		if t == models.CancellationTypeSystem && !actor.IsSystem() {
			return "", errors.ErrInvalidCancellationType.WithMessage("system 取消类型仅用于系统自动取消")
		}
		if t == models.CancellationTypeAdmin && !actor.IsAdmin() {
			return "", errors.ErrInvalidCancellationType.WithMessage("admin 取消类型仅限管理员使用")
		}
		return t, nil
	}

	switch {
	case actor.IsSystem():
		return models.CancellationTypeSystem, nil
	case actor.IsAdmin():
		return models.CancellationTypeAdmin, nil
	default:
		return models.CancellationTypeUser, nil
	}
}
