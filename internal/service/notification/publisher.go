package notification

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
)

// DefaultQueueKey Redis 通知队列键
const DefaultQueueKey = "queue:notifications"

// ErrNoEvent 等待超时，队列中暂无事件
var ErrNoEvent = stderrors.New("notification: no event")

// ErrSourceClosed 事件源已关闭
var ErrSourceClosed = stderrors.New("notification: source closed")

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Source 事件源
type Source interface {
	Receive(ctx context.Context) (Event, error)
}

// RedisQueue 基于 Redis 列表的事件队列，LPUSH 入队，BRPOP 出队
type RedisQueue struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisQueue 创建 Redis 队列
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, timeout: time.Second}
}

// Publish 入队
func (q *RedisQueue) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Receive 阻塞出队，超时返回 ErrNoEvent
func (q *RedisQueue) Receive(ctx context.Context) (Event, error) {
	var ev Event
	result, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return ev, ErrNoEvent
		}
		if ctx.Err() != nil {
			return ev, ctx.Err()
		}
		return ev, err
	}
	// result[0] 为键名
	if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
		return ev, fmt.Errorf("解析事件失败: %w", err)
	}
	return ev, nil
}

// Len 队列长度
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// LogPublisher 仅记录日志
type LogPublisher struct{}

// Publish 记录事件
func (LogPublisher) Publish(ctx context.Context, ev Event) error {
	logger.Info("通知事件",
		logger.Event(string(ev.Type)),
		logger.BookingID(ev.BookingID),
		logger.UserID(ev.UserID),
		zap.String("cancellation_type", ev.CancellationType),
	)
	return nil
}
