// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
)

// defaultTaskTimeout 单次任务执行超时
const defaultTaskTimeout = 5 * time.Minute

// Scheduler 定时任务调度器
type Scheduler struct {
	tasks   []*Task
	loops   []*Loop
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Task 定时任务
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// Loop 常驻后台循环，如通知消费者
type Loop struct {
	Name string
	Run  func(ctx context.Context) error
}

// NewScheduler 创建调度器
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:   make([]*Task, 0),
		timeout: defaultTaskTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddTask 添加任务，interval 不大于 0 时忽略
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	if interval <= 0 {
		logger.Warn("定时任务间隔无效，已跳过", zap.String("task", name), zap.Duration("interval", interval))
		return
	}
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	})
}

// AddLoop 添加常驻循环，随调度器启动和停止
func (s *Scheduler) AddLoop(name string, run func(ctx context.Context) error) {
	s.loops = append(s.loops, &Loop{Name: name, Run: run})
}

// Start 启动调度器
func (s *Scheduler) Start() {
	logger.Info("调度器启动", zap.Int("tasks", len(s.tasks)), zap.Int("loops", len(s.loops)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
	for _, loop := range s.loops {
		s.wg.Add(1)
		go s.runLoop(loop)
	}
}

// Stop 停止调度器并等待任务退出
func (s *Scheduler) Stop() {
	logger.Info("调度器停止中")
	s.cancel()
	s.wg.Wait()
	logger.Info("调度器已停止")
}

// runTask 运行单个任务
func (s *Scheduler) runTask(task *Task) {
	defer s.wg.Done()

	logger.Info("定时任务已启动", zap.String("task", task.Name), zap.Duration("interval", task.Interval))

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	// 立即执行一次
	s.executeTask(task)

	for {
		select {
		case <-s.ctx.Done():
			logger.Info("定时任务已停止", zap.String("task", task.Name))
			return
		case <-ticker.C:
			s.executeTask(task)
		}
	}
}

// executeTask 执行任务，panic 不影响后续调度
func (s *Scheduler) executeTask(task *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("定时任务 panic", zap.String("task", task.Name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := task.Handler(ctx); err != nil {
		logger.Error("定时任务执行失败", zap.String("task", task.Name), zap.Error(err))
		return
	}
	logger.Debug("定时任务执行完成", zap.String("task", task.Name), logger.Latency(time.Since(start)))
}

// runLoop 运行常驻循环，异常退出后间隔重启直到调度器停止
func (s *Scheduler) runLoop(loop *Loop) {
	defer s.wg.Done()

	for {
		err := s.runLoopOnce(loop)
		if s.ctx.Err() != nil {
			logger.Info("后台循环已停止", zap.String("loop", loop.Name))
			return
		}
		logger.Error("后台循环异常退出，稍后重启", zap.String("loop", loop.Name), zap.Error(err))

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (s *Scheduler) runLoopOnce(loop *Loop) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("后台循环 panic", zap.String("loop", loop.Name), zap.Any("panic", r))
		}
	}()
	return loop.Run(s.ctx)
}
