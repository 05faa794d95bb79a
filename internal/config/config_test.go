package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.DefaultTimezone)
	assert.Equal(t, "health", cfg.BusinessCategory)
	assert.Equal(t, 14, cfg.BookingLookaheadDays)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.True(t, cfg.FallbackEnabled)
	assert.True(t, cfg.ValidateWebhooks)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("WORKER_COUNT", "5")
	t.Setenv("BUSINESS_CATEGORY", " Shop ")
	t.Setenv("CONVERSATION_LOCK_TTL", "2m")
	t.Setenv("FALLBACK_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.UseMemoryQueue)
	assert.Equal(t, 5, cfg.WorkerCount)
	assert.Equal(t, "shop", cfg.BusinessCategory)
	assert.Equal(t, 2*time.Minute, cfg.LockTTL)
	assert.False(t, cfg.FallbackEnabled)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("CONVERSATION_LOCK_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
}
