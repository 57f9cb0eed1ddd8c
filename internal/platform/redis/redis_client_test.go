package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLoadConfigFromEnv は環境変数からRedis設定が読み込まれることを検証します。
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, Config{Host: "cache", Port: "6380", Password: "secret", DB: 2}, cfg)
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "cache:6380", cfg.Addr())
}

// TestConfig_Defaults はホスト未設定時に無効となり、ポートが既定値になることを検証します。
func TestConfig_Defaults(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadConfigFromEnv()

	assert.False(t, cfg.Enabled())
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, "localhost:6379", Config{Host: "localhost"}.Addr())
}

// TestNewRedisClient_Unreachable は接続できない場合にエラーを返すことを検証します。
func TestNewRedisClient_Unreachable(t *testing.T) {
	rdb, err := NewRedisClient(Config{Host: "127.0.0.1", Port: "1"})

	assert.Error(t, err)
	assert.Nil(t, rdb)
}
