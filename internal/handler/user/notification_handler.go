// Package user 提供用户相关的 HTTP Handler
package user

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	notificationService "github.com/dumeirei/hotel-booking-backend/internal/service/notification"
)

// NotificationHandler 站内信处理器
type NotificationHandler struct {
	inboxService *notificationService.InboxService
}

// NewNotificationHandler 创建站内信处理器
func NewNotificationHandler(inboxSvc *notificationService.InboxService) *NotificationHandler {
	return &NotificationHandler{
		inboxService: inboxSvc,
	}
}

// ListNotifications 获取站内信列表
// @Summary 获取站内信列表
// @Tags 站内信
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param is_read query bool false "是否已读"
// @Success 200 {object} response.Response{data=notificationService.InboxPage}
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var isRead *bool
	if v := c.Query("is_read"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "is_read 参数错误")
			return
		}
		isRead = &b
	}

	p := handler.BindPagination(c)
	page, err := h.inboxService.List(c.Request.Context(), userID, p.GetOffset(), p.GetLimit(), isRead)
	handler.MustSucceed(c, err, page)
}

// MarkRead 标记站内信已读
// @Summary 标记站内信已读
// @Tags 站内信
// @Produce json
// @Security Bearer
// @Param id path int true "站内信ID"
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "站内信")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.inboxService.MarkRead(c.Request.Context(), userID, id), nil)
}
