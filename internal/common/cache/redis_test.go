package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

// setupMiniRedis 创建 miniredis 测试实例
func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestInit_Success(t *testing.T) {
	s := setupMiniRedis(t)

	client, err := Init(&config.RedisConfig{
		Host:        s.Host(),
		Port:        s.Server().Addr().Port,
		PoolSize:    10,
		DialTimeout: 5,
		ReadTimeout: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestInit_ConnectionFailed(t *testing.T) {
	_, err := Init(&config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 1})
	assert.Error(t, err)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "lock:booking:sweep", BuildKey(KeyPrefixLock, "booking", "sweep"))
	assert.Equal(t, "ratelimit:ip:1.2.3.4", BuildKey(KeyPrefixRateLimit, "ip", "1.2.3.4"))
	assert.Equal(t, "lock", BuildKey(KeyPrefixLock))
}

func TestTryLock(t *testing.T) {
	s := setupMiniRedis(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	t.Run("获取与释放", func(t *testing.T) {
		lock, err := TryLock(ctx, client, "lock:a", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, lock)

		second, err := TryLock(ctx, client, "lock:a", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, second)

		require.NoError(t, lock.Release(ctx))
		assert.False(t, s.Exists("lock:a"))
	})

	t.Run("过期后不会释放他人持有的锁", func(t *testing.T) {
		lock, err := TryLock(ctx, client, "lock:b", time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)

		s.FastForward(2 * time.Second)

		other, err := TryLock(ctx, client, "lock:b", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, other)

		require.NoError(t, lock.Release(ctx))
		assert.True(t, s.Exists("lock:b"))
	})

	t.Run("未初始化客户端", func(t *testing.T) {
		_, err := TryLock(ctx, nil, "lock:c", time.Minute)
		assert.ErrorIs(t, err, ErrNoClient)
	})

	t.Run("nil 锁释放", func(t *testing.T) {
		var lock *Lock
		assert.NoError(t, lock.Release(ctx))
	})
}
