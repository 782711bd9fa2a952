// Package sms 短信服务
package sms

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Sender 短信发送器接口
type Sender interface {
	Send(ctx context.Context, phone, templateCode string, params map[string]string) error
}

// 模板键
const (
	TemplateBookingConfirmed = "booking_confirmed" // 预订已确认
	TemplateBookingCancelled = "booking_cancelled" // 预订已取消
)

// Templates 模板键到模板编码的映射
type Templates map[string]string

// Code 获取模板编码
func (t Templates) Code(key string) (string, error) {
	code, ok := t[key]
	if !ok || code == "" {
		return "", fmt.Errorf("短信模板 %s 未配置", key)
	}
	return code, nil
}

// Notifier 按模板键发送短信
type Notifier struct {
	sender    Sender
	templates Templates
}

// NewNotifier 创建短信通知器
func NewNotifier(sender Sender, templates Templates) *Notifier {
	return &Notifier{sender: sender, templates: templates}
}

// Notify 按模板键发送
func (n *Notifier) Notify(ctx context.Context, phone, key string, params map[string]string) error {
	code, err := n.templates.Code(key)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, phone, code, params)
}

// Supports 是否配置了该模板
func (n *Notifier) Supports(key string) bool {
	_, err := n.templates.Code(key)
	return err == nil
}

// MockSender 模拟短信发送器（用于开发/测试）
type MockSender struct {
	mu           sync.Mutex
	SentMessages []MockMessage
	Err          error // 非空时 Send 返回该错误
}

// MockMessage 模拟消息
type MockMessage struct {
	Phone        string
	TemplateCode string
	Params       map[string]string
	SentAt       time.Time
}

// NewMockSender 创建模拟发送器
func NewMockSender() *MockSender {
	return &MockSender{
		SentMessages: make([]MockMessage, 0),
	}
}

// Send 模拟发送
func (s *MockSender) Send(ctx context.Context, phone, templateCode string, params map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.SentMessages = append(s.SentMessages, MockMessage{
		Phone:        phone,
		TemplateCode: templateCode,
		Params:       params,
		SentAt:       time.Now(),
	})
	return nil
}

// Messages 返回已发送消息副本
func (s *MockSender) Messages() []MockMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MockMessage, len(s.SentMessages))
	copy(out, s.SentMessages)
	return out
}

// GetLastMessage 获取最后发送的消息
func (s *MockSender) GetLastMessage() *MockMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.SentMessages) == 0 {
		return nil
	}
	msg := s.SentMessages[len(s.SentMessages)-1]
	return &msg
}

// Clear 清空消息记录
func (s *MockSender) Clear() {
	s.mu.Lock()
	s.SentMessages = make([]MockMessage, 0)
	s.mu.Unlock()
}
