// Package admin 提供管理员相关的 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
)

// BookingHandler 预订管理处理器
type BookingHandler struct {
	bookingService *bookingService.Service
}

// NewBookingHandler 创建预订管理处理器
func NewBookingHandler(bookingSvc *bookingService.Service) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingSvc,
	}
}

// requireAdmin 获取当前管理员操作者
func requireAdmin(c *gin.Context) (bookingService.Actor, bool) {
	adminID, ok := handler.RequireUserID(c)
	if !ok {
		return bookingService.Actor{}, false
	}
	actor := bookingService.NewActor(adminID, middleware.GetRole(c))
	if !actor.IsAdmin() {
		response.Forbidden(c, "权限不足")
		return bookingService.Actor{}, false
	}
	return actor, true
}

// ListBookings 获取预订列表
// @Summary 获取预订列表
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param user_id query int false "用户ID"
// @Param hotel_id query int false "酒店ID"
// @Param room_id query int false "房间ID"
// @Param status query string false "状态"
// @Success 200 {object} response.Response{data=[]bookingService.BookingInfo}
// @Router /api/admin/bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	req := &bookingService.ListBookingsRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		Status:   c.Query("status"),
	}

	userID, ok := handler.ParseQueryID(c, "user_id", "用户")
	if !ok {
		return
	}
	hotelID, ok := handler.ParseQueryID(c, "hotel_id", "酒店")
	if !ok {
		return
	}
	roomID, ok := handler.ParseQueryID(c, "room_id", "房间")
	if !ok {
		return
	}
	if userID != nil {
		req.UserID = *userID
	}
	if hotelID != nil {
		req.HotelID = *hotelID
	}
	if roomID != nil {
		req.RoomID = *roomID
	}

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), actor, req)
	handler.MustSucceedPage(c, err, bookings, total, p.Page, p.PageSize)
}

// GetBookingDetail 获取预订详情
// @Summary 获取预订详情
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param id path string true "预订ID"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/admin/bookings/{id} [get]
func (h *BookingHandler) GetBookingDetail(c *gin.Context) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}
	bookingID := c.Param("id")
	if _, err := uuid.Parse(bookingID); err != nil {
		response.BadRequest(c, "无效的预订ID")
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, bookingID)
	handler.MustSucceed(c, err, booking)
}

// UpdateBookingStatus 更新预订状态
// @Summary 更新预订状态
// @Description 管理员可确认、结清、取消预订
// @Tags 预订管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "预订ID"
// @Param request body bookingService.UpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/admin/bookings/{id}/status [put]
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}
	bookingID := c.Param("id")
	if _, err := uuid.Parse(bookingID); err != nil {
		response.BadRequest(c, "无效的预订ID")
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

// SweepExpired 手动清理超时未确认的预订
// @Summary 清理超时预订
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=bookingService.SweepResult}
// @Router /api/admin/bookings/sweep [post]
func (h *BookingHandler) SweepExpired(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	result, err := h.bookingService.Sweep(c.Request.Context(), bookingService.TriggerAdmin)
	handler.MustSucceed(c, err, result)
}
