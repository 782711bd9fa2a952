// Package clock 提供可注入的时钟，便于在测试中固定当前时间
package clock

import (
	"sync"
	"time"
)

// Clock 时钟接口
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem 返回基于 time.Now 的系统时钟
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fake 可手动设置的时钟
type Fake struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed 返回固定在 t 的时钟
func NewFixed(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now 返回当前设定的时间
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set 设置当前时间
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance 向前推进
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Today 返回 t 在 loc 时区下的日历日期，以 UTC 零点表示
func Today(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date 将日期部分规整为 UTC 零点
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
