package booking

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/clock"
	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
	"github.com/dumeirei/hotel-booking-backend/internal/common/database"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/common/qrcode"
	"github.com/dumeirei/hotel-booking-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/internal/service/notification"
)

// 默认配置
const (
	defaultMaxNights  = 30
	defaultCutoffHour = 12
	defaultBatchSize  = 100
)

// EventDispatcher 事件投递，实现方不得阻塞调用方
type EventDispatcher interface {
	Dispatch(ev notification.Event)
}

// Service 预订服务
type Service struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
	roomRepo    *repository.RoomRepository
	dispatcher  EventDispatcher
	clock       clock.Clock
	metrics     *metrics.Metrics
	validate    *validator.Validate
	qr          *qrcode.Generator

	loc        *time.Location
	maxNights  int
	cutoffHour int
	batchSize  int
}

// NewService 创建预订服务
func NewService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	roomRepo *repository.RoomRepository,
	dispatcher EventDispatcher,
	clk clock.Clock,
	cfg *config.BookingConfig,
	m *metrics.Metrics,
) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	s := &Service{
		db:          db,
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		dispatcher:  dispatcher,
		clock:       clk,
		metrics:     m,
		validate:    newValidator(),
		qr:          qrcode.NewGenerator(qrcode.WithSize(320)),
		loc:         time.UTC,
		maxNights:   defaultMaxNights,
		cutoffHour:  defaultCutoffHour,
		batchSize:   defaultBatchSize,
	}
	if cfg != nil {
		s.loc = cfg.Location()
		if cfg.MaxNights > 0 {
			s.maxNights = cfg.MaxNights
		}
		if cfg.CutoffHour >= 0 && cfg.CutoffHour < 24 {
			s.cutoffHour = cfg.CutoffHour
		}
		if cfg.SweepBatchSize > 0 {
			s.batchSize = cfg.SweepBatchSize
		}
	}
	return s
}

// newValidator 使用 json 标签作为字段名
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest 校验请求，返回第一个字段错误
func (s *Service) validateRequest(req interface{}) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.ErrInvalidParams.WithMessagef("参数 %s 不合法（%s）", fe.Field(), fe.Tag())
	}
	return errors.ErrInvalidParams.WithError(err)
}

// today 业务时区下的当天
func (s *Service) today() time.Time {
	return clock.Today(s.clock.Now(), s.loc)
}

// RoomLine 预订的一个房间
type RoomLine struct {
	RoomID   int64 `json:"room_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"omitempty,min=1,max=10"`
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	HotelID       int64      `json:"hotel_id" validate:"omitempty,gt=0"`
	Rooms         []RoomLine `json:"rooms" validate:"required,min=1,max=20,dive"`
	CheckIn       time.Time  `json:"check_in" validate:"required"`
	CheckOut      time.Time  `json:"check_out" validate:"required"`
	Guests        int        `json:"guests" validate:"min=1"`
	TotalPrice    *float64   `json:"total_price"`
	PaymentMethod string     `json:"payment_method" validate:"omitempty,max=32"`
}

// UpdateStatusRequest 更新预订状态请求
type UpdateStatusRequest struct {
	Status             string `json:"status" validate:"required"`
	CancellationReason string `json:"cancellation_reason" validate:"omitempty,max=255"`
	CancellationType   string `json:"cancellation_type" validate:"omitempty,oneof=user admin system"`
	PaymentMethod      string `json:"payment_method" validate:"omitempty,max=32"`
}

// BookingRoomInfo 预订房间信息
type BookingRoomInfo struct {
	RoomID        int64   `json:"room_id"`
	RoomNo        string  `json:"room_no,omitempty"`
	RoomType      string  `json:"room_type,omitempty"`
	Quantity      int     `json:"quantity"`
	PricePerNight float64 `json:"price_per_night"`
	Subtotal      float64 `json:"subtotal"`
}

// BookingInfo 预订信息
type BookingInfo struct {
	ID                 string            `json:"id"`
	UserID             int64             `json:"user_id"`
	HotelID            int64             `json:"hotel_id"`
	HotelName          string            `json:"hotel_name,omitempty"`
	CheckIn            string            `json:"check_in"`
	CheckOut           string            `json:"check_out"`
	Nights             int               `json:"nights"`
	Guests             int               `json:"guests"`
	Status             string            `json:"status"`
	StatusName         string            `json:"status_name"`
	TotalPrice         float64           `json:"total_price"`
	PaymentMethod      string            `json:"payment_method,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CancellationType   string            `json:"cancellation_type,omitempty"`
	Rooms              []BookingRoomInfo `json:"rooms"`
	PaidAt             *time.Time        `json:"paid_at,omitempty"`
	ConfirmedAt        *time.Time        `json:"confirmed_at,omitempty"`
	SettledAt          *time.Time        `json:"settled_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// toBookingInfo 转换为预订信息
func toBookingInfo(b *models.Booking) *BookingInfo {
	status := b.Status.Normalize()
	info := &BookingInfo{
		ID:                 b.ID,
		UserID:             b.UserID,
		HotelID:            b.HotelID,
		CheckIn:            b.CheckIn.Format(DateLayout),
		CheckOut:           b.CheckOut.Format(DateLayout),
		Nights:             b.Nights(),
		Guests:             b.Guests,
		Status:             string(status),
		StatusName:         status.Label(),
		TotalPrice:         b.TotalPrice,
		PaymentMethod:      utils.SafeString(b.PaymentMethod),
		CancellationReason: utils.SafeString(b.CancellationReason),
		Rooms:              make([]BookingRoomInfo, 0, len(b.Details)),
		PaidAt:             b.PaidAt,
		ConfirmedAt:        b.ConfirmedAt,
		SettledAt:          b.SettledAt,
		CancelledAt:        b.CancelledAt,
		CompletedAt:        b.CompletedAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.CancellationType != nil {
		info.CancellationType = string(*b.CancellationType)
	}
	if b.Hotel != nil {
		info.HotelName = b.Hotel.Name
	}
	for _, d := range b.Details {
		room := BookingRoomInfo{
			RoomID:        d.RoomID,
			Quantity:      d.Quantity,
			PricePerNight: d.PricePerNight,
			Subtotal:      d.Subtotal,
		}
		if d.Room != nil {
			room.RoomNo = d.Room.RoomNo
			room.RoomType = d.Room.Type
		}
		info.Rooms = append(info.Rooms, room)
	}
	return info
}

// lines 合并重复房间前的请求行，数量缺省为 1
func (req *CreateBookingRequest) lines() []RoomLine {
	lines := make([]RoomLine, 0, len(req.Rooms))
	for _, l := range req.Rooms {
		if l.Quantity <= 0 {
			l.Quantity = 1
		}
		lines = append(lines, l)
	}
	return lines
}

// CreateBooking 创建预订
//
// 在事务内按 ID 升序锁定房间行后检查区间冲突并写入，状态为待支付
func (s *Service) CreateBooking(ctx context.Context, actor Actor, req *CreateBookingRequest) (info *BookingInfo, err error) {
	ctx, span := tracing.Start(ctx, "booking.create", tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	if actor.IsSystem() || actor.UserID <= 0 {
		return nil, errors.ErrPermissionDenied.WithMessage("仅登录用户可以创建预订")
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	stay := NewInterval(req.CheckIn, req.CheckOut)
	if err := ValidateStay(stay.CheckIn, stay.CheckOut, s.today(), s.maxNights); err != nil {
		return nil, err
	}
	if req.TotalPrice != nil && *req.TotalPrice <= 0 {
		return nil, errors.ErrInvalidPrice.WithMessage("总价必须大于 0")
	}

	lines := req.lines()
	roomIDs := make([]int64, 0, len(lines))
	for _, l := range lines {
		roomIDs = append(roomIDs, l.RoomID)
	}
	if len(utils.Unique(roomIDs)) != len(roomIDs) {
		return nil, errors.ErrInvalidParams.WithMessage("同一房间不能重复出现")
	}

	nights := stay.Nights()
	var booking *models.Booking

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms, err := s.roomRepo.WithTx(tx).LockByIDs(ctx, roomIDs)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		tracing.AddEvent(ctx, "rooms.locked")
		if len(rooms) != len(roomIDs) {
			return errors.ErrRoomNotFound
		}

		roomByID := make(map[int64]*models.Room, len(rooms))
		hotelID := rooms[0].HotelID
		for _, room := range rooms {
			if room.HotelID != hotelID {
				return errors.ErrInvalidParams.WithMessage("一个预订中的房间必须属于同一酒店")
			}
			roomByID[room.ID] = room
		}
		if req.HotelID > 0 && req.HotelID != hotelID {
			return errors.ErrInvalidParams.WithMessage("房间不属于该酒店")
		}

		var capacity int
		var total float64
		details := make([]models.BookingDetail, 0, len(lines))
		for _, l := range lines {
			room := roomByID[l.RoomID]
			if !room.IsAvailable() {
				return errors.ErrRoomNotAvailable.WithMessagef("房间 %s 暂停预订", room.RoomNo)
			}
			if room.PricePerNight <= 0 {
				return errors.ErrInvalidPrice.WithMessagef("房间 %s 价格无效", room.RoomNo)
			}
			capacity += room.MaxGuests * l.Quantity
			subtotal := utils.RoundMoney(room.PricePerNight * float64(nights*l.Quantity))
			total += subtotal
			details = append(details, models.BookingDetail{
				RoomID:        room.ID,
				Quantity:      l.Quantity,
				PricePerNight: room.PricePerNight,
				Nights:        nights,
				Subtotal:      subtotal,
				CheckIn:       stay.CheckIn,
				CheckOut:      stay.CheckOut,
				Active:        true,
			})
		}
		total = utils.RoundMoney(total)

		if req.Guests > capacity {
			return errors.ErrGuestsExceeded.WithMessagef("入住人数不能超过 %d 人", capacity)
		}
		if req.TotalPrice != nil && !utils.MoneyEqual(*req.TotalPrice, total) {
			return errors.ErrInvalidPrice.WithMessagef("总价不一致，应为 %.2f", total)
		}

		bookingRepo := s.bookingRepo.WithTx(tx)
		for _, room := range rooms {
			booked, err := bookingRepo.FindConflict(ctx, room.ID, stay.CheckIn, stay.CheckOut)
			if err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			if booked != nil {
				s.metrics.RecordBookingConflict("check")
				return conflictError(NewInterval(booked.CheckIn, booked.CheckOut))
			}
		}

		booking = &models.Booking{
			ID:         uuid.NewString(),
			UserID:     actor.UserID,
			HotelID:    hotelID,
			CheckIn:    stay.CheckIn,
			CheckOut:   stay.CheckOut,
			Status:     models.BookingStatusUnconfirmed,
			TotalPrice: total,
			Guests:     req.Guests,
			Details:    details,
		}
		if req.PaymentMethod != "" {
			booking.PaymentMethod = utils.StringPtr(req.PaymentMethod)
		}
		if err := bookingRepo.Create(ctx, booking); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		if database.IsOverlapViolation(err) {
			s.metrics.RecordBookingConflict("constraint")
			return nil, errors.ErrBookingConflict.WithMessagef("房间在 %s 期间已被预订", stay).WithData(stay.Range())
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.metrics.RecordBookingCreated()
	logger.Info("预订已创建",
		logger.BookingID(booking.ID),
		logger.UserID(actor.UserID),
		zap.String("stay", stay.String()),
		zap.Float64("total_price", booking.TotalPrice),
	)
	return toBookingInfo(booking), nil
}

// getBooking 获取预订，不存在时返回 NotFound
func (s *Service) getBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

// transitionParams 状态流转附加参数
type transitionParams struct {
	paymentMethod      string
	cancellationReason string
	cancellationType   string
}

// eventFor 动作对应的通知事件
func eventFor(action Action) notification.EventType {
	switch action {
	case ActionPay:
		return notification.EventBookingPaid
	case ActionConfirm:
		return notification.EventBookingConfirmed
	case ActionSettle:
		return notification.EventBookingSettled
	case ActionCancel:
		return notification.EventBookingCancelled
	default:
		return notification.EventBookingCompleted
	}
}

// transition 执行一次状态流转：先鉴权，再查流转表，最后按原状态条件更新
func (s *Service) transition(ctx context.Context, actor Actor, id string, action Action, params transitionParams) (info *BookingInfo, err error) {
	ctx, span := tracing.Start(ctx, "booking.transition",
		tracing.WithBookingID(id),
		tracing.WithAction(string(action)),
		tracing.WithUserID(actor.UserID),
	)
	defer func() { tracing.End(span, err) }()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, action, booking); err != nil {
		s.metrics.RecordTransition(string(action), "forbidden")
		return nil, err
	}

	from := booking.Status.Normalize()
	if action == ActionComplete && from == models.BookingStatusCompleted {
		return toBookingInfo(booking), nil
	}
	to, ok := NextStatus(from, action)
	if !ok {
		s.metrics.RecordTransition(string(action), "rejected")
		return nil, stateError(from, action)
	}

	now := s.clock.Now()
	fields := map[string]interface{}{}
	switch action {
	case ActionPay:
		fields["paid_at"] = now
		if params.paymentMethod != "" {
			fields["payment_method"] = params.paymentMethod
		}
	case ActionConfirm:
		fields["confirmed_at"] = now
	case ActionSettle:
		fields["settled_at"] = now
	case ActionCancel:
		cancellationType, err := ResolveCancellationType(actor, params.cancellationType)
		if err != nil {
			return nil, err
		}
		fields["cancelled_at"] = now
		fields["cancellation_type"] = cancellationType
		if params.cancellationReason != "" {
			fields["cancellation_reason"] = params.cancellationReason
		}
	case ActionComplete:
		fields["completed_at"] = now
	}

	applied, err := s.bookingRepo.Transition(ctx, repository.StatusTransition{
		BookingID:         id,
		From:              from,
		To:                to,
		Fields:            fields,
		DeactivateDetails: !to.IsActive(),
	})
	if err != nil {
		s.metrics.RecordTransition(string(action), "error")
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !applied {
		s.metrics.RecordTransition(string(action), "rejected")
		return nil, errors.ErrBookingStatusError.WithMessage("预订状态已变更，请刷新后重试")
	}
	s.metrics.RecordTransition(string(action), "ok")

	updated, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Info("预订状态已更新",
		logger.BookingID(id),
		logger.Action(string(action)),
		logger.Status(string(to)),
		logger.UserID(actor.UserID),
		zap.String("role", string(actor.Role)),
	)
	s.emit(eventFor(action), updated, now)
	return toBookingInfo(updated), nil
}

// emit 提交后投递事件，失败不影响状态流转
func (s *Service) emit(eventType notification.EventType, booking *models.Booking, at time.Time) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(notification.NewBookingEvent(eventType, booking, at))
}

// PayBooking 支付预订：待支付 -> 待确认，重复支付返回状态错误
func (s *Service) PayBooking(ctx context.Context, actor Actor, id, paymentMethod string) (*BookingInfo, error) {
	if len(paymentMethod) > 32 {
		return nil, errors.ErrInvalidParams.WithMessage("支付方式过长")
	}
	return s.transition(ctx, actor, id, ActionPay, transitionParams{paymentMethod: paymentMethod})
}

// UpdateBookingStatus 按目标状态执行对应动作
func (s *Service) UpdateBookingStatus(ctx context.Context, actor Actor, id string, req *UpdateStatusRequest) (*BookingInfo, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	action, ok := ActionForStatus(models.BookingStatus(req.Status))
	if !ok {
		return nil, errors.ErrInvalidParams.WithMessagef("不支持的目标状态: %s", req.Status)
	}
	return s.transition(ctx, actor, id, action, transitionParams{
		paymentMethod:      req.PaymentMethod,
		cancellationReason: req.CancellationReason,
		cancellationType:   req.CancellationType,
	})
}

// GetBooking 获取预订详情，所有者或管理员可见
func (s *Service) GetBooking(ctx context.Context, actor Actor, id string) (*BookingInfo, error) {
	booking, err := s.bookingRepo.GetByIDWithDetails(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !actor.Owns(booking.UserID) && !actor.IsAdmin() && !actor.IsSystem() {
		return nil, errors.ErrPermissionDenied.WithMessage("无权查看该预订")
	}
	return toBookingInfo(booking), nil
}

// ListMyBookings 获取当前用户的预订
func (s *Service) ListMyBookings(ctx context.Context, actor Actor, page, pageSize int, status string) ([]*BookingInfo, int64, error) {
	if status != "" && !models.BookingStatus(status).Valid() {
		return nil, 0, errors.ErrInvalidParams.WithMessagef("无效的状态: %s", status)
	}
	p := utils.Pagination{Page: page, PageSize: pageSize}
	p.Normalize()

	bookings, total, err := s.bookingRepo.ListByUser(ctx, actor.UserID, p.GetOffset(), p.GetLimit(), status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return toBookingInfos(bookings), total, nil
}

// ListBookingsRequest 管理端预订列表筛选
type ListBookingsRequest struct {
	Page     int
	PageSize int
	UserID   int64
	HotelID  int64
	RoomID   int64
	Status   string
}

// ListBookings 管理端预订列表
func (s *Service) ListBookings(ctx context.Context, actor Actor, req *ListBookingsRequest) ([]*BookingInfo, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, errors.ErrPermissionDenied
	}
	if req.Status != "" && !models.BookingStatus(req.Status).Valid() {
		return nil, 0, errors.ErrInvalidParams.WithMessagef("无效的状态: %s", req.Status)
	}
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()

	bookings, total, err := s.bookingRepo.List(ctx, p.GetOffset(), p.GetLimit(), repository.BookingFilter{
		UserID:  req.UserID,
		HotelID: req.HotelID,
		RoomID:  req.RoomID,
		Status:  req.Status,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return toBookingInfos(bookings), total, nil
}

func toBookingInfos(bookings []*models.Booking) []*BookingInfo {
	list := make([]*BookingInfo, 0, len(bookings))
	for _, b := range bookings {
		list = append(list, toBookingInfo(b))
	}
	return list
}

// Voucher 生成入住凭证二维码，仅所有者在已确认或已结清时可用
func (s *Service) Voucher(ctx context.Context, actor Actor, id string) ([]byte, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(booking.UserID) {
		return nil, errors.ErrPermissionDenied.WithMessage("无权获取该预订凭证")
	}
	switch booking.Status.Normalize() {
	case models.BookingStatusConfirmed, models.BookingStatusPaid:
	default:
		return nil, errors.ErrBookingStatusError.WithMessagef("预订%s，暂无入住凭证", booking.Status.Normalize().Label())
	}

	data, err := s.qr.Voucher(booking.ID)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(fmt.Errorf("生成凭证失败: %w", err))
	}
	return data, nil
}
