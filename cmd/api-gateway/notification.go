package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/internal/service/notification"
	"github.com/dumeirei/hotel-booking-backend/pkg/mq"
	"github.com/dumeirei/hotel-booking-backend/pkg/sms"
)

// notificationStack 通知链路组件
type notificationStack struct {
	dispatcher *notification.Dispatcher
	worker     *notification.Worker // 无事件源时为 nil
	closers    []func() error
}

// Close 等待投递完成后关闭连接
func (n *notificationStack) Close(ctx context.Context) error {
	err := n.dispatcher.Close(ctx)
	for _, closeFn := range n.closers {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// setupNotification 按配置选择投递通道并创建消费者
func setupNotification(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, m *metrics.Metrics) (*notificationStack, error) {
	stack := &notificationStack{}
	ncfg := &cfg.Notification

	var (
		publisher notification.Publisher
		source    notification.Source
	)

	switch ncfg.Driver {
	case "rabbitmq":
		pub, err := mq.NewPublisher(ncfg.RabbitMQURL, ncfg.Exchange)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		stack.closers = append(stack.closers, pub.Close)

		consumer, err := mq.NewConsumer(ncfg.RabbitMQURL, ncfg.Exchange, ncfg.Queue, notification.BindingKeys(), ncfg.Workers*2)
		if err != nil {
			_ = pub.Close()
			return nil, fmt.Errorf("rabbitmq consumer: %w", err)
		}
		stack.closers = append(stack.closers, consumer.Close)

		deliveries, err := consumer.Deliveries(context.Background())
		if err != nil {
			_ = consumer.Close()
			_ = pub.Close()
			return nil, fmt.Errorf("rabbitmq consume: %w", err)
		}
		publisher = notification.NewAMQPPublisher(pub)
		source = notification.NewAMQPSource(deliveries)
	case "redis":
		if redisClient == nil {
			logger.Warn("Redis 不可用，通知事件仅记录日志")
			publisher = notification.LogPublisher{}
			break
		}
		queue := notification.NewRedisQueue(redisClient, ncfg.QueueKey)
		publisher = queue
		source = queue
	default:
		publisher = notification.LogPublisher{}
	}

	stack.dispatcher = notification.NewDispatcher(publisher, ncfg.DispatchTimeoutDuration(), m)

	if source != nil {
		stack.worker = notification.NewWorker(
			source,
			repository.NewUserRepository(db),
			repository.NewNotificationRepository(db),
			setupSMS(cfg),
			m,
		)
	}

	logger.Info("通知链路已初始化",
		zap.String("driver", ncfg.Driver),
		zap.Bool("worker", stack.worker != nil),
	)
	return stack, nil
}

// setupSMS 创建短信通知器，未启用时返回 nil
func setupSMS(cfg *config.Config) *sms.Notifier {
	if !cfg.Notification.SMSEnabled {
		return nil
	}

	templates := sms.Templates{
		sms.TemplateBookingConfirmed: cfg.SMS.ConfirmedTemplate,
		sms.TemplateBookingCancelled: cfg.SMS.CancelledTemplate,
	}

	var sender sms.Sender = sms.NewMockSender()
	if cfg.SMS.Provider == "aliyun" {
		aliyun, err := sms.NewAliyunSender(&sms.AliyunConfig{
			AccessKeyID:     cfg.SMS.AccessKeyID,
			AccessKeySecret: cfg.SMS.AccessKeySecret,
			SignName:        cfg.SMS.SignName,
		})
		if err != nil {
			logger.Error("阿里云短信初始化失败，改用模拟发送", zap.Error(err))
		} else {
			sender = aliyun
		}
	}
	return sms.NewNotifier(sender, templates)
}
