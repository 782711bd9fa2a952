package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
)

// HeaderCronSecret 外部定时任务携带共享密钥的请求头
const HeaderCronSecret = "X-Cron-Secret"

// CronSecret 校验外部定时任务的共享密钥，未配置密钥时接口关闭
func CronSecret(secret string) gin.HandlerFunc {
	expected := []byte(secret)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			response.Abort(c, http.StatusForbidden, errors.ErrCronSecret.Code, "定时任务接口未启用")
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(HeaderCronSecret)), expected) != 1 {
			response.Abort(c, http.StatusForbidden, errors.ErrCronSecret.Code, errors.ErrCronSecret.Message)
			return
		}
		c.Next()
	}
}
