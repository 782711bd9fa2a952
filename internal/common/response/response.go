// Package response 提供统一的 API 响应格式
//
// 业务错误一律返回 HTTP 200，由 code 区分；只有参数、认证、权限等
// 请求层面的问题才使用对应的 HTTP 状态码。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeOK 成功响应码
const CodeOK = 0

// Response API 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "success", Data: data})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, PageData{List: list, Total: total, Page: page, PageSize: pageSize})
}

// Error 业务错误响应
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 业务错误响应，附带冲突区间等上下文
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: code, Message: message, Data: data})
}

// Abort 中止后续处理器，供中间件使用
func Abort(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message})
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	writeStatus(c, http.StatusBadRequest, message, "bad request")
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	writeStatus(c, http.StatusUnauthorized, message, "unauthorized")
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	writeStatus(c, http.StatusForbidden, message, "forbidden")
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	writeStatus(c, http.StatusNotFound, message, "not found")
}

// InternalError 500
func InternalError(c *gin.Context, message string) {
	writeStatus(c, http.StatusInternalServerError, message, "internal server error")
}

// writeStatus 响应码与 HTTP 状态码一致
func writeStatus(c *gin.Context, status int, message, fallback string) {
	if message == "" {
		message = fallback
	}
	c.JSON(status, Response{Code: status, Message: message})
}
