package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
)

// CronHandler 外部定时任务与支付回调处理器，由 middleware.CronSecret 保护
type CronHandler struct {
	bookingService *bookingService.Service
}

// NewCronHandler 创建定时任务处理器
func NewCronHandler(bookingSvc *bookingService.Service) *CronHandler {
	return &CronHandler{
		bookingService: bookingSvc,
	}
}

// SweepExpired 清理超时未确认的预订
// @Summary 定时清理超时预订
// @Tags 定时任务
// @Produce json
// @Param X-Cron-Secret header string true "任务密钥"
// @Success 200 {object} response.Response{data=bookingService.SweepResult}
// @Router /api/cron/bookings/sweep [post]
func (h *CronHandler) SweepExpired(c *gin.Context) {
	result, err := h.bookingService.Sweep(c.Request.Context(), bookingService.TriggerCron)
	handler.MustSucceed(c, err, result)
}

// PaymentCallbackRequest 支付回调请求
type PaymentCallbackRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// callbackBookingID 解析回调路径中的预订 ID
func callbackBookingID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, "无效的预订ID")
		return "", false
	}
	return id, true
}

// PaymentPaid 支付渠道回调：待支付 -> 待确认
// @Summary 支付成功回调
// @Tags 定时任务
// @Accept json
// @Produce json
// @Param X-Cron-Secret header string true "任务密钥"
// @Param id path string true "预订ID"
// @Param request body PaymentCallbackRequest false "请求参数"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/cron/bookings/{id}/paid [post]
func (h *CronHandler) PaymentPaid(c *gin.Context) {
	bookingID, ok := callbackBookingID(c)
	if !ok {
		return
	}

	var req PaymentCallbackRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "参数错误")
			return
		}
	}

	info, err := h.bookingService.PayBooking(c.Request.Context(), bookingService.SystemActor(), bookingID, req.PaymentMethod)
	handler.MustSucceed(c, err, info)
}

// PaymentSettled 尾款结清回调：已确认 -> 已结清
// @Summary 结清回调
// @Tags 定时任务
// @Produce json
// @Param X-Cron-Secret header string true "任务密钥"
// @Param id path string true "预订ID"
// @Success 200 {object} response.Response{data=bookingService.BookingInfo}
// @Router /api/cron/bookings/{id}/settled [post]
func (h *CronHandler) PaymentSettled(c *gin.Context) {
	bookingID, ok := callbackBookingID(c)
	if !ok {
		return
	}

	info, err := h.bookingService.UpdateBookingStatus(c.Request.Context(), bookingService.SystemActor(), bookingID, &bookingService.UpdateStatusRequest{
		Status: "paid",
	})
	handler.MustSucceed(c, err, info)
}
