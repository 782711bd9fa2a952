package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// readyTimeout 单项依赖检查超时
const readyTimeout = 3 * time.Second

// dependency 就绪检查项，ping 为 nil 表示未接入
type dependency struct {
	name string
	ping func(ctx context.Context) error
}

// healthHandler 存活检查
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   version,
		"timestamp": time.Now().Unix(),
	})
}

// pingHandler Ping 检查
func pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// readyHandler 就绪检查，数据库不可用或已接入的 Redis 不可用时返回 503
func readyHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	deps := []dependency{{name: "database", ping: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}}
	redisDep := dependency{name: "redis"}
	if redisClient != nil {
		redisDep.ping = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	deps = append(deps, redisDep)

	return func(c *gin.Context) {
		checks := make(map[string]string, len(deps))
		ready := true
		for _, d := range deps {
			checks[d.name] = probe(c.Request.Context(), d)
			if checks[d.name] != "ok" && checks[d.name] != "disabled" {
				ready = false
			}
		}

		status, text := http.StatusOK, "ready"
		if !ready {
			status, text = http.StatusServiceUnavailable, "not ready"
		}
		c.JSON(status, gin.H{
			"status":    text,
			"timestamp": time.Now().Unix(),
			"checks":    checks,
		})
	}
}

func probe(ctx context.Context, d dependency) string {
	if d.ping == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := d.ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
