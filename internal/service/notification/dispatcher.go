package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
)

// defaultDispatchTimeout 单次投递超时
const defaultDispatchTimeout = 5 * time.Second

// Dispatcher 异步投递事件，调用方不会被阻塞，失败只记录日志
type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
	metrics   *metrics.Metrics
	wg        sync.WaitGroup
}

// NewDispatcher 创建投递器
func NewDispatcher(publisher Publisher, timeout time.Duration, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		publisher: publisher,
		timeout:   timeout,
		metrics:   m,
	}
}

// Dispatch 在独立 goroutine 中投递事件
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil || d.publisher == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.publish(ev)
		if err != nil {
			appErr := errors.ErrExternalService.WithMessage("通知投递失败").WithError(err)
			logger.Warn(appErr.Message,
				logger.Event(string(ev.Type)),
				logger.BookingID(ev.BookingID),
				zap.Error(appErr.Err),
			)
			d.metrics.RecordNotification(string(ev.Type), "dispatch", "error")
			return
		}
		d.metrics.RecordNotification(string(ev.Type), "dispatch", "ok")
	}()
}

func (d *Dispatcher) publish(ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.publisher.Publish(ctx, ev)
}

// Close 等待进行中的投递完成
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
