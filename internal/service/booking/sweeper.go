package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/clock"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/tracing"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/internal/service/notification"
)

// SweepReason 超时自动取消原因
const SweepReason = "cancelled: not confirmed in time"

// 清理触发方式
const (
	TriggerScheduler = "scheduler"
	TriggerCron      = "cron"
	TriggerAdmin     = "admin"
)

// SweepError 单条预订的清理失败
type SweepError struct {
	BookingID string `json:"booking_id"`
	Error     string `json:"error"`
}

// SweepResult 清理结果
type SweepResult struct {
	CancelledCount int          `json:"cancelled_count"`
	CancelledIDs   []string     `json:"cancelled_ids"`
	Errors         []SweepError `json:"errors"`
}

// SweepBound 待确认预订的离店日期早于该日期即超时
//
// 离店当天到达截止时刻（默认 12:00）后也视为超时，此时边界为明天
func (s *Service) SweepBound(now time.Time) time.Time {
	today := clock.Today(now, s.loc)
	if now.In(s.loc).Hour() >= s.cutoffHour {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// SweepExpiredPending 取消超时未确认的预订
//
// 每条预订独立按状态条件更新，单条失败不影响其余预订，重复执行不会重复取消
func (s *Service) SweepExpiredPending(ctx context.Context, now time.Time) (result *SweepResult, err error) {
	ctx, span := tracing.Start(ctx, "booking.sweep")
	defer func() { tracing.End(span, err) }()

	result = &SweepResult{
		CancelledIDs: make([]string, 0),
		Errors:       make([]SweepError, 0),
	}
	bound := s.SweepBound(now)

	var afterID string
	for {
		batch, err := s.bookingRepo.ListExpiredPending(ctx, bound, afterID, s.batchSize)
		if err != nil {
			return result, errors.ErrDatabaseError.WithError(err)
		}
		for _, booking := range batch {
			afterID = booking.ID
			cancelled, err := s.sweepOne(ctx, booking, now)
			if err != nil {
				result.Errors = append(result.Errors, SweepError{BookingID: booking.ID, Error: err.Error()})
				continue
			}
			if cancelled {
				result.CancelledIDs = append(result.CancelledIDs, booking.ID)
			}
		}
		if len(batch) < s.batchSize {
			break
		}
	}

	result.CancelledCount = len(result.CancelledIDs)
	return result, nil
}

// sweepOne 取消单条预订，已被其他操作修改状态时返回 false
func (s *Service) sweepOne(ctx context.Context, booking *models.Booking, now time.Time) (bool, error) {
	cancellationType := models.CancellationTypeSystem
	applied, err := s.bookingRepo.Transition(ctx, repository.StatusTransition{
		BookingID: booking.ID,
		From:      models.BookingStatusPending,
		To:        models.BookingStatusCancelled,
		Fields: map[string]interface{}{
			"cancellation_reason": SweepReason,
			"cancellation_type":   cancellationType,
			"cancelled_at":        now,
		},
		DeactivateDetails: true,
	})
	if err != nil || !applied {
		return false, err
	}

	reason := SweepReason
	booking.Status = models.BookingStatusCancelled
	booking.CancellationReason = &reason
	booking.CancellationType = &cancellationType
	booking.CancelledAt = &now
	s.emit(notification.EventBookingCancelled, booking, now)
	return true, nil
}

// Sweep 以当前时间执行一次清理并记录日志和指标
func (s *Service) Sweep(ctx context.Context, trigger string) (*SweepResult, error) {
	start := time.Now()
	result, err := s.SweepExpiredPending(ctx, s.clock.Now())
	if result != nil {
		s.metrics.RecordSweep(trigger, result.CancelledCount, len(result.Errors))
	}
	if err != nil {
		logger.Error("超时预订清理失败", zap.String("trigger", trigger), zap.Error(err))
		return result, err
	}

	fields := []zap.Field{
		zap.String("trigger", trigger),
		zap.Int("cancelled", result.CancelledCount),
		zap.Int("failed", len(result.Errors)),
		logger.Latency(time.Since(start)),
	}
	if len(result.Errors) > 0 {
		logger.Warn("超时预订清理部分失败", append(fields, zap.Any("errors", result.Errors))...)
	} else {
		logger.Info("超时预订清理完成", fields...)
	}
	return result, nil
}
