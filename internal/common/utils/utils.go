// Package utils 提供金额、手机号和分页等小工具
package utils

import (
	"math"
	"regexp"
)

// 分页默认值
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var mobilePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// ValidatePhone 是否为大陆手机号
func ValidatePhone(phone string) bool {
	return mobilePattern.MatchString(phone)
}

// RoundMoney 金额按分四舍五入
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// MoneyEqual 两个金额相差不超过一分
func MoneyEqual(a, b float64) bool {
	return math.Abs(RoundMoney(a)-RoundMoney(b)) < 0.01+1e-9
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// SafeString 解引用，nil 返回空串
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Unique 去重并保持首次出现的顺序
func Unique[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, v := range items {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Pagination 分页参数
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Normalize 页码从 1 开始，每页条数限制在 [1, MaxPageSize]
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
}

// GetOffset 偏移量
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit 每页条数
func (p *Pagination) GetLimit() int {
	return p.PageSize
}
