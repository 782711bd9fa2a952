package notification

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/pkg/mq"
)

// AMQPPublisher 通过 RabbitMQ 发布事件，routing key 为事件类型
type AMQPPublisher struct {
	publisher *mq.Publisher
}

// NewAMQPPublisher 创建 RabbitMQ 发布者
func NewAMQPPublisher(publisher *mq.Publisher) *AMQPPublisher {
	return &AMQPPublisher{publisher: publisher}
}

// Publish 发布事件
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	return p.publisher.PublishJSON(ctx, string(ev.Type), ev)
}

// BindingKeys 队列需要绑定的 routing key
func BindingKeys() []string {
	types := EventTypes()
	keys := make([]string, 0, len(types))
	for _, t := range types {
		keys = append(keys, string(t))
	}
	return keys
}

// AMQPSource 从 RabbitMQ 投递通道读取事件
type AMQPSource struct {
	deliveries <-chan amqp.Delivery
}

// NewAMQPSource 创建 RabbitMQ 事件源
func NewAMQPSource(deliveries <-chan amqp.Delivery) *AMQPSource {
	return &AMQPSource{deliveries: deliveries}
}

// Receive 读取一条事件，解析成功后 Ack，无法解析的消息直接丢弃
func (s *AMQPSource) Receive(ctx context.Context) (Event, error) {
	var ev Event
	select {
	case <-ctx.Done():
		return ev, ctx.Err()
	case d, ok := <-s.deliveries:
		if !ok {
			return ev, ErrSourceClosed
		}
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			if nackErr := d.Nack(false, false); nackErr != nil {
				logger.Warn("丢弃消息失败", zap.Error(nackErr))
			}
			return ev, fmt.Errorf("解析事件失败: %w", err)
		}
		if err := d.Ack(false); err != nil {
			logger.Warn("确认消息失败", logger.Event(string(ev.Type)), zap.Error(err))
		}
		return ev, nil
	}
}
