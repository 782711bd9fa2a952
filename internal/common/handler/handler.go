// Package handler 提供处理器共用的错误响应、身份读取和参数解析
//
// 解析类函数返回 ok=false 时已经写入响应，调用方直接 return 即可。
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
)

// DateFormat 日历日期格式
const DateFormat = "2006-01-02"

// HandleError 将 err 写成响应，err 为 nil 时返回 false
//
// AppError 按业务码返回 HTTP 200；存储层错误只返回通用消息，原因写日志；
// 其他错误视为未预期，返回 500。
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if !errors.IsAppError(err) {
		logger.Error("未处理的错误",
			logger.RequestID(middleware.GetRequestID(c)),
			logger.Path(c.Request.URL.Path),
			zap.Error(err),
		)
		response.InternalError(c, "服务器内部错误")
		return true
	}

	appErr := errors.GetAppError(err)
	if appErr.Err != nil || appErr.Kind() == errors.KindPersistence {
		logger.Warn("请求处理失败",
			logger.RequestID(middleware.GetRequestID(c)),
			logger.Path(c.Request.URL.Path),
			zap.Int("code", appErr.Code),
			zap.Error(err),
		)
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message, appErr.Data)
	return true
}

// MustSucceed 出错写错误响应，否则写 data
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if !HandleError(c, err) {
		response.Success(c, data)
	}
}

// MustSucceedPage 分页版 MustSucceed
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if !HandleError(c, err) {
		response.SuccessPage(c, list, total, page, pageSize)
	}
}

// RequireUserID 当前登录用户 ID，未登录返回 401
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// ParseID 解析路径参数 id，必须为正整数
func ParseID(c *gin.Context, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resource+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析可选的查询参数 ID，缺省时返回 nil
func ParseQueryID(c *gin.Context, name, resource string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resource+"ID")
		return nil, false
	}
	return &id, true
}

// ParseDate 解析 YYYY-MM-DD，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ParseRequiredQueryDate 解析必填的日期查询参数，缺失或格式错误返回参数错误码
func ParseRequiredQueryDate(c *gin.Context, name, label string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.Error(c, errors.ErrInvalidParams.Code, "请指定"+label)
		return time.Time{}, false
	}
	d, err := ParseDate(raw)
	if err != nil {
		response.Error(c, errors.ErrInvalidParams.Code, "无效的"+label+"格式，应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// ParseRequiredQueryDateRange 解析必填的起止日期，两端都是日历日期
func ParseRequiredQueryDateRange(c *gin.Context, startName, endName string) (start, end time.Time, ok bool) {
	if start, ok = ParseRequiredQueryDate(c, startName, "开始日期"); !ok {
		return
	}
	end, ok = ParseRequiredQueryDate(c, endName, "结束日期")
	return
}

// BindPagination 读取 page 和 page_size 并规范化
func BindPagination(c *gin.Context) utils.Pagination {
	p := utils.Pagination{}
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	p.Normalize()
	return p
}
