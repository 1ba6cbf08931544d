package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDurationWithDays(t *testing.T) {
	assert.Equal(t, 48*time.Hour, parseDurationWithDays("2d"))
	assert.Equal(t, 15*time.Minute, parseDurationWithDays("15m"))
	assert.Equal(t, time.Duration(0), parseDurationWithDays("xd"))
	assert.Equal(t, time.Duration(0), parseDurationWithDays("soon"))
}

func TestParseThrottle(t *testing.T) {
	n, w := parseThrottle("5/15m")
	assert.Equal(t, 5, n)
	assert.Equal(t, 15*time.Minute, w)

	n, w = parseThrottle("0")
	assert.Zero(t, n)
	assert.Zero(t, w)

	n, _ = parseThrottle("3/bad")
	assert.Zero(t, n)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitAndTrim(" a:9092, ,b:9092 "))
	assert.Nil(t, splitAndTrim(""))
}

func TestLoadMemoryDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_EXP", "2h")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REDIS_ENABLED", "false")

	cfg := Load(zap.NewNop())
	require.NotNil(t, cfg)
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessExp)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadPanicsWithoutSecret(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")

	assert.Panics(t, func() { Load(zap.NewNop()) })
}

func TestLoadPostgresRequiresHost(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_EXP", "1h")
	t.Setenv("DB_HOST", "")

	assert.Panics(t, func() { Load(zap.NewNop()) })
}
