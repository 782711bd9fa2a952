package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

// 未配置时的跨域默认值
var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderRequestID, HeaderCronSecret}
	corsExposed = []string{HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
)

const corsMaxAge = 24 * 60 * 60

// CORSFromConfig 跨域中间件，cfg 为 nil 或某项为空时使用默认值
func CORSFromConfig(cfg *config.CORSConfig) gin.HandlerFunc {
	opts := config.CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   corsExposed,
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}
	if cfg != nil {
		if len(cfg.AllowedOrigins) > 0 {
			opts.AllowedOrigins = cfg.AllowedOrigins
		}
		if len(cfg.AllowedMethods) > 0 {
			opts.AllowedMethods = cfg.AllowedMethods
		}
		if len(cfg.AllowedHeaders) > 0 {
			opts.AllowedHeaders = cfg.AllowedHeaders
		}
		if len(cfg.ExposedHeaders) > 0 {
			opts.ExposedHeaders = cfg.ExposedHeaders
		}
		if cfg.MaxAge > 0 {
			opts.MaxAge = cfg.MaxAge
		}
		opts.AllowCredentials = cfg.AllowCredentials
	}

	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[o] = struct{}{}
	}
	_, wildcard := origins["*"]

	headers := map[string]string{
		"Access-Control-Allow-Methods": strings.Join(opts.AllowedMethods, ", "),
		"Access-Control-Allow-Headers": strings.Join(opts.AllowedHeaders, ", "),
		"Access-Control-Max-Age":       strconv.Itoa(opts.MaxAge),
	}
	if len(opts.ExposedHeaders) > 0 {
		headers["Access-Control-Expose-Headers"] = strings.Join(opts.ExposedHeaders, ", ")
	}
	if opts.AllowCredentials {
		headers["Access-Control-Allow-Credentials"] = "true"
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allow := ""
		if _, ok := origins[origin]; ok {
			allow = origin
		} else if wildcard {
			// 携带凭证时浏览器不接受通配符
			allow = "*"
			if opts.AllowCredentials {
				allow = origin
			}
		}

		if allow != "" {
			c.Header("Access-Control-Allow-Origin", allow)
			for k, v := range headers {
				c.Header(k, v)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
