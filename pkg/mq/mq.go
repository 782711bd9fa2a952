// Package mq 提供 RabbitMQ topic 交换机的发布与消费
package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeKind 交换机类型
const ExchangeKind = "topic"

// dial 建立连接并声明交换机
func dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("打开通道失败: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("声明交换机失败: %w", err)
	}
	return conn, ch, nil
}

// closeAll 关闭通道和连接
func closeAll(conn *amqp.Connection, ch *amqp.Channel) error {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher 创建发布者
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishJSON 以 JSON 发布消息，routing key 为 key
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

// Close 关闭发布者
func (p *Publisher) Close() error {
	return closeAll(p.conn, p.ch)
}

// Consumer 消息消费者
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewConsumer 创建消费者，声明持久队列并按 keys 绑定
func NewConsumer(url, exchange, queue string, keys []string, prefetch int) (*Consumer, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = closeAll(conn, ch)
		return nil, fmt.Errorf("声明队列失败: %w", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			_ = closeAll(conn, ch)
			return nil, fmt.Errorf("绑定 %s 失败: %w", rk, err)
		}
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = closeAll(conn, ch)
			return nil, fmt.Errorf("设置 prefetch 失败: %w", err)
		}
	}
	return &Consumer{conn: conn, ch: ch, queue: q.Name}, nil
}

// Deliveries 开始消费，需手动 Ack
func (c *Consumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	return closeAll(c.conn, c.ch)
}
