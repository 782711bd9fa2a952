package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/cache"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	bookingService "github.com/dumeirei/hotel-booking-backend/internal/service/booking"
)

// SweepLockKey 多实例部署时清理任务的互斥锁
var SweepLockKey = cache.BuildKey(cache.KeyPrefixLock, "booking", "sweep")

// defaultSweepLockTTL 未配置时的锁有效期
const defaultSweepLockTTL = 5 * time.Minute

// Sweeper 超时预订清理
type Sweeper interface {
	Sweep(ctx context.Context, trigger string) (*bookingService.SweepResult, error)
}

// TaskHandler 任务处理器
type TaskHandler struct {
	sweeper Sweeper
	redis   *redis.Client
	lockTTL time.Duration
}

// NewTaskHandler 创建任务处理器，redis 为 nil 时不加锁直接执行
func NewTaskHandler(sweeper Sweeper, redisClient *redis.Client, lockTTL time.Duration) *TaskHandler {
	if lockTTL <= 0 {
		lockTTL = defaultSweepLockTTL
	}
	return &TaskHandler{
		sweeper: sweeper,
		redis:   redisClient,
		lockTTL: lockTTL,
	}
}

// SweepExpiredBookings 取消超时未确认的预订
//
// 其他实例持有锁时跳过本轮；Redis 不可用时仍然执行，清理本身按状态条件更新，重复执行无副作用
func (h *TaskHandler) SweepExpiredBookings(ctx context.Context) error {
	if h.redis != nil {
		lock, err := cache.TryLock(ctx, h.redis, SweepLockKey, h.lockTTL)
		switch {
		case err != nil:
			logger.Warn("获取清理锁失败，无锁执行", zap.Error(err))
		case lock == nil:
			logger.Debug("清理任务正由其他实例执行，跳过本轮")
			return nil
		default:
			defer func() {
				if err := lock.Release(context.Background()); err != nil {
					logger.Warn("释放清理锁失败", zap.Error(err))
				}
			}()
		}
	}

	if _, err := h.sweeper.Sweep(ctx, bookingService.TriggerScheduler); err != nil {
		return fmt.Errorf("sweep expired bookings: %w", err)
	}
	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler, sweepInterval time.Duration) {
	// 定期取消超时未确认的预订
	scheduler.AddTask("SweepExpiredBookings", sweepInterval, handler.SweepExpiredBookings)
}

// Runner 常驻后台任务
type Runner interface {
	Run(ctx context.Context) error
}

// SetupWorkers 注册 n 个通知消费者
func SetupWorkers(scheduler *Scheduler, worker Runner, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		scheduler.AddLoop(fmt.Sprintf("NotificationWorker-%d", i+1), worker.Run)
	}
}
