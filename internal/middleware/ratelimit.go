package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/hotel-booking-backend/internal/common/cache"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	Scope       string // 键作用域，如 ip / booking
	Limit       int
	Window      time.Duration
	KeyFunc     func(*gin.Context) string // 默认按客户端 IP
}

// RateLimit 固定窗口限流
//
// 计数与过期时间在同一次往返中读取，Redis 未接入或出错时放行。
func RateLimit(cfg *RateLimitConfig) gin.HandlerFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	limit := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		if cfg.RedisClient == nil || cfg.Limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cache.BuildKey(cache.KeyPrefixRateLimit, cfg.Scope, keyFunc(c))

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := cfg.RedisClient.Pipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, key)
			ttl = p.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			c.Next()
			return
		}

		remaining := ttl.Val()
		if remaining < 0 {
			// 新窗口或遗留的无过期键
			cfg.RedisClient.Expire(ctx, key, cfg.Window)
			remaining = cfg.Window
		}

		count := int(incr.Val())
		c.Header("X-RateLimit-Limit", limit)
		if count > cfg.Limit {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(remaining).Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(int(remaining.Seconds())))
			response.Abort(c, http.StatusTooManyRequests, errors.ErrRateLimitExceed.Code, "请求过于频繁，请稍后再试")
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-count))
		c.Next()
	}
}

// IPRateLimit 按客户端 IP 限流
func IPRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Scope:       "ip",
		Limit:       limit,
		Window:      window,
	})
}

// UserRateLimit 按登录用户限流，未登录时退回按 IP
func UserRateLimit(redisClient *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Scope:       scope,
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			if userID := GetUserID(c); userID > 0 {
				return "user:" + strconv.FormatInt(userID, 10)
			}
			return "ip:" + c.ClientIP()
		},
	})
}
