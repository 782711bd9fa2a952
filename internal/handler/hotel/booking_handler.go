// Package hotel 提供酒店目录与用户预订相关的 HTTP Handler
package hotel

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/qrcode"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
)

// BookingHandler 预订处理器
type BookingHandler struct {
	bookingService *bookingService.Service
}

// NewBookingHandler 创建预订处理器
func NewBookingHandler(bookingSvc *bookingService.Service) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingSvc,
	}
}

// CreateBookingRequest 创建预订请求
// 单房间可只传 room_id，多房间使用 rooms
type CreateBookingRequest struct {
	HotelID       int64                     `json:"hotel_id"`
	RoomID        int64                     `json:"room_id"`
	Rooms         []bookingService.RoomLine `json:"rooms"`
	CheckIn       string                    `json:"check_in" binding:"required"`
	CheckOut      string                    `json:"check_out" binding:"required"`
	Guests        int                       `json:"guests"`
	TotalPrice    *float64                  `json:"total_price"`
	PaymentMethod string                    `json:"payment_method"`
}

// PayBookingRequest 支付预订请求
type PayBookingRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// requireActor 获取当前登录用户对应的操作者
func requireActor(c *gin.Context) (bookingService.Actor, bool) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return bookingService.Actor{}, false
	}
	return bookingService.NewActor(userID, middleware.GetRole(c)), true
}

// parseBookingID 解析路径中的预订 ID
func parseBookingID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, "无效的预订ID")
		return "", false
	}
	return id, true
}

// CreateBooking 创建预订
// @Summary 创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateBookingRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	checkIn, err := handler.ParseDate(req.CheckIn)
	if err != nil {
		response.BadRequest(c, "入住日期格式错误，应为 YYYY-MM-DD")
		return
	}
	checkOut, err := handler.ParseDate(req.CheckOut)
	if err != nil {
		response.BadRequest(c, "离店日期格式错误，应为 YYYY-MM-DD")
		return
	}

	rooms := req.Rooms
	if len(rooms) == 0 && req.RoomID > 0 {
		rooms = []bookingService.RoomLine{{RoomID: req.RoomID, Quantity: 1}}
	}
	guests := req.Guests
	if guests == 0 {
		guests = 1
	}

	serviceReq := &bookingService.CreateBookingRequest{
		HotelID:       req.HotelID,
		Rooms:         rooms,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        guests,
		TotalPrice:    req.TotalPrice,
		PaymentMethod: req.PaymentMethod,
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), actor, serviceReq)
	handler.MustSucceed(c, err, booking)
}

// GetMyBookings 获取我的预订列表
// @Summary 获取我的预订列表
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "状态"
// @Success 200 {object} response.Response{data=[]bookingService.BookingInfo}
// @Router /api/v1/bookings [get]
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	bookings, total, err := h.bookingService.ListMyBookings(c.Request.Context(), actor, p.Page, p.PageSize, c.Query("status"))
	handler.MustSucceedPage(c, err, bookings, total, p.Page, p.PageSize)
}

// GetBookingDetail 获取预订详情
// @Summary 获取预订详情
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path string true "预订ID"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) GetBookingDetail(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, bookingID)
	handler.MustSucceed(c, err, booking)
}

// PayBooking 支付预订
// @Summary 支付预订
// @Description 待支付预订支付后进入待确认状态
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "预订ID"
// @Param request body PayBookingRequest false "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id}/pay [post]
func (h *BookingHandler) PayBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	var req PayBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "参数错误")
			return
		}
	}

	booking, err := h.bookingService.PayBooking(c.Request.Context(), actor, bookingID, req.PaymentMethod)
	handler.MustSucceed(c, err, booking)
}

// UpdateBookingStatus 更新预订状态
// @Summary 更新预订状态
// @Description 用户可取消或完成自己的预订
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "预订ID"
// @Param request body bookingService.UpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/v1/bookings/{id}/status [put]
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	var req bookingService.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.UpdateBookingStatus(c.Request.Context(), actor, bookingID, &req)
	handler.MustSucceed(c, err, booking)
}

// VoucherInfo JSON 格式的入住凭证
type VoucherInfo struct {
	BookingID string `json:"booking_id"`
	Content   string `json:"content"`
	Image     string `json:"image"` // data:image/png;base64,...
}

// GetVoucher 获取入住凭证二维码，format=json 时返回 data URL
// @Summary 获取入住凭证二维码
// @Tags 预订
// @Produce png,json
// @Security Bearer
// @Param id path string true "预订ID"
// @Param format query string false "png 或 json"
// @Success 200 {file} binary
// @Router /api/v1/bookings/{id}/voucher [get]
func (h *BookingHandler) GetVoucher(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	png, err := h.bookingService.Voucher(c.Request.Context(), actor, bookingID)
	if handler.HandleError(c, err) {
		return
	}
	if c.Query("format") == "json" {
		response.Success(c, VoucherInfo{
			BookingID: bookingID,
			Content:   qrcode.VoucherContent(bookingID),
			Image:     qrcode.DataURL(png),
		})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetRoomAvailability 查询房间在日期区间内是否可订
// @Summary 查询房间可订状态
// @Description 不可订时返回占用该房间的冲突区间
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param check_in query string true "入住日期 YYYY-MM-DD"
// @Param check_out query string true "离店日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=bookingService.Availability}
// @Router /api/v1/rooms/{id}/availability [get]
func (h *BookingHandler) GetRoomAvailability(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}
	checkIn, ok := handler.ParseRequiredQueryDate(c, "check_in", "入住日期")
	if !ok {
		return
	}
	checkOut, ok := handler.ParseRequiredQueryDate(c, "check_out", "离店日期")
	if !ok {
		return
	}

	result, err := h.bookingService.GetRoomAvailability(c.Request.Context(), roomID, checkIn, checkOut)
	handler.MustSucceed(c, err, result)
}

// GetBookedDates 获取房间已被占用的日期
// @Summary 获取房间已占用日期
// @Description 返回区间内（含两端）被有效预订占用的日历日期
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param start_date query string true "开始日期 YYYY-MM-DD"
// @Param end_date query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]string}
// @Router /api/v1/rooms/{id}/booked-dates [get]
func (h *BookingHandler) GetBookedDates(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}
	start, end, ok := handler.ParseRequiredQueryDateRange(c, "start_date", "end_date")
	if !ok {
		return
	}

	dates, err := h.bookingService.GetBookedDates(c.Request.Context(), roomID, start, end)
	handler.MustSucceed(c, err, dates)
}
