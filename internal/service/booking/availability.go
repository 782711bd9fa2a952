package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/clock"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/tracing"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// maxCalendarDays 已订日期查询的最大跨度（含首尾）
const maxCalendarDays = 366

// Interval 左闭右开的入住区间 [CheckIn, CheckOut)
type Interval struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewInterval 创建区间，日期规整为 UTC 零点
func NewInterval(checkIn, checkOut time.Time) Interval {
	return Interval{CheckIn: clock.Date(checkIn), CheckOut: clock.Date(checkOut)}
}

// Overlaps 两个区间是否重叠，首尾相接不算重叠
func (i Interval) Overlaps(other Interval) bool {
	return i.CheckIn.Before(other.CheckOut) && i.CheckOut.After(other.CheckIn)
}

// Nights 入住晚数
func (i Interval) Nights() int {
	return int(i.CheckOut.Sub(i.CheckIn).Hours() / 24)
}

// String 形如 2025-06-10 ~ 2025-06-12
func (i Interval) String() string {
	return fmt.Sprintf("%s ~ %s", i.CheckIn.Format(DateLayout), i.CheckOut.Format(DateLayout))
}

// Range 区间的 JSON 表示
func (i Interval) Range() *DateRange {
	return &DateRange{
		CheckIn:  i.CheckIn.Format(DateLayout),
		CheckOut: i.CheckOut.Format(DateLayout),
	}
}

// DateRange 日期区间
type DateRange struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// Availability 房间可用性
type Availability struct {
	RoomID    int64      `json:"room_id"`
	CheckIn   string     `json:"check_in"`
	CheckOut  string     `json:"check_out"`
	Available bool       `json:"available"`
	Conflict  *DateRange `json:"conflict,omitempty"`
}

// ValidateStay 校验入住区间，today 为业务时区下的当天
func ValidateStay(checkIn, checkOut, today time.Time, maxNights int) error {
	stay := NewInterval(checkIn, checkOut)
	if stay.CheckIn.Before(clock.Date(today)) {
		return errors.ErrCheckInPast
	}
	if !stay.CheckOut.After(stay.CheckIn) {
		return errors.ErrInvalidDateRange
	}
	if maxNights > 0 && stay.Nights() > maxNights {
		return errors.ErrStayTooLong.WithMessagef("最多可连续预订 %d 晚", maxNights)
	}
	return nil
}

// conflictError 冲突错误，消息和数据中都包含已占用区间
func conflictError(booked Interval) *errors.AppError {
	return errors.ErrBookingConflict.
		WithMessagef("房间在 %s 已被预订", booked).
		WithData(booked.Range())
}

// IsRoomAvailable 房间在区间内是否可订，不可订时返回最早的冲突区间
func (s *Service) IsRoomAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, *Interval, error) {
	stay := NewInterval(checkIn, checkOut)
	booked, err := s.bookingRepo.FindConflict(ctx, roomID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return false, nil, errors.ErrDatabaseError.WithError(err)
	}
	if booked == nil {
		return true, nil, nil
	}
	conflict := NewInterval(booked.CheckIn, booked.CheckOut)
	return false, &conflict, nil
}

// GetRoomAvailability 查询房间在区间内的可用性
func (s *Service) GetRoomAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (result *Availability, err error) {
	ctx, span := tracing.Start(ctx, "booking.availability", tracing.WithRoomID(roomID))
	defer func() { tracing.End(span, err) }()

	if err := ValidateStay(checkIn, checkOut, s.today(), s.maxNights); err != nil {
		return nil, err
	}
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	available, conflict, err := s.IsRoomAvailable(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	stay := NewInterval(checkIn, checkOut)
	result = &Availability{
		RoomID:    roomID,
		CheckIn:   stay.CheckIn.Format(DateLayout),
		CheckOut:  stay.CheckOut.Format(DateLayout),
		Available: available,
	}
	if conflict != nil {
		result.Conflict = conflict.Range()
	}
	return result, nil
}

// AvailableRooms 批量判断房间在区间内是否可订
func (s *Service) AvailableRooms(ctx context.Context, roomIDs []int64, checkIn, checkOut time.Time) (map[int64]bool, error) {
	if err := ValidateStay(checkIn, checkOut, s.today(), s.maxNights); err != nil {
		return nil, err
	}
	result := make(map[int64]bool, len(roomIDs))
	for _, id := range roomIDs {
		available, _, err := s.IsRoomAvailable(ctx, id, checkIn, checkOut)
		if err != nil {
			return nil, err
		}
		result[id] = available
	}
	return result, nil
}

// GetBookedDates 获取 [startDate, endDate] 内被占用的日期，升序去重
func (s *Service) GetBookedDates(ctx context.Context, roomID int64, startDate, endDate time.Time) ([]string, error) {
	start, end := clock.Date(startDate), clock.Date(endDate)
	if end.Before(start) {
		return nil, errors.ErrInvalidDateRange.WithMessage("结束日期不能早于开始日期")
	}
	if int(end.Sub(start).Hours()/24)+1 > maxCalendarDays {
		return nil, errors.ErrInvalidParams.WithMessagef("查询范围不能超过 %d 天", maxCalendarDays)
	}

	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	// 查询区间为左闭右开，结束日期需包含在内
	ranges, err := s.bookingRepo.ListBookedRanges(ctx, roomID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	seen := make(map[string]struct{})
	for _, r := range ranges {
		stay := NewInterval(r.CheckIn, r.CheckOut)
		for d := stay.CheckIn; d.Before(stay.CheckOut); d = d.AddDate(0, 0, 1) {
			if d.Before(start) || d.After(end) {
				continue
			}
			seen[d.Format(DateLayout)] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}
