// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind 错误分类
type Kind int

const (
	KindUnknown       Kind = iota
	KindValidation         // 参数或日期校验失败
	KindConflict           // 房间在请求区间内已被占用
	KindAuthorization      // 操作者无权执行该操作
	KindState              // 当前状态不允许该操作
	KindNotFound           // 资源不存在
	KindPersistence        // 存储层失败
	KindNotification       // 通知投递失败，仅记录日志
)

// AppError 应用错误
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Err     error       `json:"-"`
	kind    Kind
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrBookingConflict) 成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind 返回错误分类
func (e *AppError) Kind() Kind {
	return e.kind
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NewKind 创建带分类的应用错误
func NewKind(kind Kind, code int, message string) *AppError {
	return &AppError{Code: code, Message: message, kind: kind}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) clone() *AppError {
	c := *e
	return &c
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	c := e.clone()
	c.Message = message
	return c
}

// WithMessagef 格式化错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	c := e.clone()
	c.Err = err
	return c
}

// WithData 附加返回给调用方的数据
func (e *AppError) WithData(data interface{}) *AppError {
	c := e.clone()
	c.Data = data
	return c
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = NewKind(KindValidation, 1001, "参数错误")
	ErrNotFound        = NewKind(KindNotFound, 1002, "资源不存在")
	ErrDatabaseError   = NewKind(KindPersistence, 1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrRateLimitExceed = New(1006, "请求过于频繁")
	ErrExternalService = NewKind(KindNotification, 1007, "外部服务错误")
	ErrInternalError   = New(1008, "内部错误")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrCronSecret       = New(2003, "无效的任务密钥")
	ErrPermissionDenied = NewKind(KindAuthorization, 2004, "权限不足")
	ErrAccountDisabled  = New(2005, "账号已禁用")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound = NewKind(KindNotFound, 3000, "用户不存在")
)

// 预订错误码 (8000-8999)
var (
	ErrBookingNotFound         = NewKind(KindNotFound, 8000, "预订不存在")
	ErrBookingStatusError      = NewKind(KindState, 8001, "预订状态异常")
	ErrBookingConflict         = NewKind(KindConflict, 8002, "房间已被预订")
	ErrRoomNotFound            = NewKind(KindNotFound, 8003, "房间不存在")
	ErrRoomNotAvailable        = NewKind(KindValidation, 8004, "房间不可预订")
	ErrInvalidDateRange        = NewKind(KindValidation, 8005, "离店日期必须晚于入住日期")
	ErrCheckInPast             = NewKind(KindValidation, 8006, "入住日期不能早于今天")
	ErrInvalidPrice            = NewKind(KindValidation, 8007, "价格无效")
	ErrStayTooLong             = NewKind(KindValidation, 8008, "入住天数超出限制")
	ErrHotelNotFound           = NewKind(KindNotFound, 8009, "酒店不存在")
	ErrInvalidCancellationType = NewKind(KindValidation, 8010, "无效的取消类型")
	ErrGuestsExceeded          = NewKind(KindValidation, 8011, "入住人数超出房间上限")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// KindOf 返回错误分类，非 AppError 返回 KindUnknown
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.kind
	}
	return KindUnknown
}

// IsValidation 是否为校验错误
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict 是否为预订冲突
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsAuthorization 是否为权限错误
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }

// IsState 是否为状态错误
func IsState(err error) bool { return KindOf(err) == KindState }

// IsNotFound 是否为资源不存在
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
