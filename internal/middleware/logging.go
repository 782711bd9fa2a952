package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
)

// probePaths 探活与指标抓取路径，不写访问日志
var probePaths = []string{"/health", "/ping", "/ready", "/metrics"}

// AccessLog 访问日志中间件
//
// 5xx 记 Error，4xx 记 Warn，其余记 Info；已登录请求附带用户 ID 和角色，
// 预订相关路由附带路由模板便于按接口聚合。
func AccessLog(l *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(probePaths)+len(skipPaths))
	for _, p := range append(probePaths, skipPaths...) {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := make([]zap.Field, 0, 12)
		fields = append(fields,
			logger.RequestID(GetRequestID(c)),
			logger.Method(c.Request.Method),
			logger.Path(path),
			zap.String("route", c.FullPath()),
			zap.String("query", redactQuery(c.Request.URL.RawQuery)),
			logger.StatusCode(status),
			logger.Latency(time.Since(start)),
			logger.IP(c.ClientIP()),
		)
		if userID := GetUserID(c); userID > 0 {
			fields = append(fields, logger.UserID(userID), zap.String("role", GetRole(c)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := l.Check(accessLevel(status), "HTTP Request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// redactQuery 隐去查询串中的令牌
func redactQuery(raw string) string {
	if !strings.Contains(raw, QueryToken) {
		return raw
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparsable]"
	}
	for key := range values {
		if strings.Contains(strings.ToLower(key), QueryToken) {
			values[key] = []string{"***"}
		}
	}
	return values.Encode()
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
