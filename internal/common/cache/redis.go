// Package cache 提供 Redis 连接、键命名和分布式锁
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

// ErrNoClient 未接入 Redis
var ErrNoClient = errors.New("redis client not initialized")

// 键前缀
const (
	KeyPrefixRateLimit = "ratelimit:"
	KeyPrefixLock      = "lock:"
)

// Init 按配置建立连接并 Ping 一次
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// BuildKey 以冒号拼接键，如 lock:booking:sweep
func BuildKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(prefix, ":")
	}
	return prefix + strings.Join(parts, ":")
}

// releaseScript 值匹配才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock SET NX 分布式锁，token 区分持有者
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// TryLock 非阻塞加锁，已被占用时返回 nil, nil
func TryLock(ctx context.Context, client *redis.Client, key string, ttl time.Duration) (*Lock, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	token := uuid.NewString()
	ok, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, err
	}
	return &Lock{client: client, key: key, token: token}, nil
}

// Release 释放锁，锁已过期并被他人持有时不做任何事
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
