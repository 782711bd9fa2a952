// Package config 配置管理单元测试
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Load 测试 ====================

func TestLoad_WithDefaultValues(t *testing.T) {
	// 不指定配置文件路径，使用默认搜索路径
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "hotel-booking-backend", cfg.Server.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestGet_ReturnsSameInstance(t *testing.T) {
	cfg1 := Get()
	cfg2 := Get()
	assert.Same(t, cfg1, cfg2)
}

// ==================== DatabaseConfig 测试 ====================

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		config DatabaseConfig
		want   string
	}{
		{
			name: "Postgres",
			config: DatabaseConfig{
				Driver:   "postgres",
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "secret",
				Name:     "hotel",
				SSLMode:  "disable",
				Timezone: "Asia/Shanghai",
			},
			want: "host=localhost port=5432 user=postgres password=secret dbname=hotel sslmode=disable TimeZone=Asia/Shanghai",
		},
		{
			name: "SQLite",
			config: DatabaseConfig{
				Driver:     "sqlite",
				SQLitePath: "file::memory:?cache=shared",
			},
			want: "file::memory:?cache=shared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", cfg.Addr())
}

func TestJWTConfig_AccessTokenDuration(t *testing.T) {
	cfg := JWTConfig{AccessTokenExpire: 24}
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenDuration())
}

// ==================== 业务配置测试 ====================

func TestBookingConfig_Defaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Asia/Shanghai", cfg.Booking.Timezone)
	assert.Equal(t, 12, cfg.Booking.CutoffHour)
	assert.Equal(t, 30, cfg.Booking.MaxNights)
	assert.Equal(t, 10*time.Minute, cfg.Booking.SweepIntervalDuration())
	assert.Equal(t, 200, cfg.Booking.SweepBatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Booking.SweepLockDuration())
	assert.Empty(t, cfg.Booking.CronSecret)
}

func TestBookingConfig_Location(t *testing.T) {
	t.Run("有效时区", func(t *testing.T) {
		cfg := BookingConfig{Timezone: "Asia/Shanghai"}
		assert.Equal(t, "Asia/Shanghai", cfg.Location().String())
	})

	t.Run("无效时区回退UTC", func(t *testing.T) {
		cfg := BookingConfig{Timezone: "Mars/Olympus"}
		assert.Equal(t, time.UTC, cfg.Location())
	})

	t.Run("空时区回退UTC", func(t *testing.T) {
		cfg := BookingConfig{}
		assert.Equal(t, time.UTC, cfg.Location())
	})
}

func TestNotificationConfig_Defaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "redis", cfg.Notification.Driver)
	assert.Equal(t, "queue:notifications", cfg.Notification.QueueKey)
	assert.Equal(t, "booking.events", cfg.Notification.Exchange)
	assert.Equal(t, 2, cfg.Notification.Workers)
	assert.Equal(t, 5*time.Second, cfg.Notification.DispatchTimeoutDuration())
	assert.False(t, cfg.Notification.SMSEnabled)
}

// ==================== Config 模式测试 ====================

func TestConfig_Mode(t *testing.T) {
	tests := []struct {
		mode        string
		wantDebug   bool
		wantRelease bool
	}{
		{"debug", true, false},
		{"release", false, true},
		{"test", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{Mode: tt.mode}}
			assert.Equal(t, tt.wantDebug, cfg.IsDebug())
			assert.Equal(t, tt.wantRelease, cfg.IsRelease())
		})
	}
}

func TestConfig_AmbientDefaults(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "hotel_booking", cfg.Metrics.Namespace)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 600, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 20, cfg.RateLimit.BookingPerMinute)
	assert.Contains(t, cfg.CORS.AllowedHeaders, "Authorization")
	assert.Equal(t, "mock", cfg.SMS.Provider)
}
