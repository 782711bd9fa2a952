// Package qrcode 生成入住凭证二维码
package qrcode

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// VoucherPrefix 凭证内容前缀，前台扫码后据此识别预订 ID
const VoucherPrefix = "HOTEL-BOOKING:"

// Generator 二维码生成器
type Generator struct {
	size  int
	level qrcode.RecoveryLevel
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 边长（像素）
func WithSize(size int) Option {
	return func(g *Generator) { g.size = size }
}

// WithRecoveryLevel 纠错级别
func WithRecoveryLevel(level qrcode.RecoveryLevel) Option {
	return func(g *Generator) { g.level = level }
}

// NewGenerator 默认 256 像素、中等纠错
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{size: 256, level: qrcode.Medium}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PNG 将内容编码为 PNG
func (g *Generator) PNG(content string) ([]byte, error) {
	data, err := qrcode.Encode(content, g.level, g.size)
	if err != nil {
		return nil, fmt.Errorf("encode qrcode: %w", err)
	}
	return data, nil
}

// Voucher 预订凭证二维码
func (g *Generator) Voucher(bookingID string) ([]byte, error) {
	return g.PNG(VoucherContent(bookingID))
}

// DataURL 将 PNG 包装为可直接嵌入页面的 data URL
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// VoucherContent 凭证二维码内容
func VoucherContent(bookingID string) string {
	return VoucherPrefix + bookingID
}

// ParseVoucherContent 从扫码内容取出预订 ID
func ParseVoucherContent(content string) (string, bool) {
	id, ok := strings.CutPrefix(content, VoucherPrefix)
	return id, ok && id != ""
}
