package config

import (
	"testing"
	"time"

	"line-leave/internal/binding"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "leave")
	t.Setenv("DB_NAME", "leave")
}

func clearOptional(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "LINE_API_BASE_URL", "DB_PASSWORD", "DB_PORT", "DB_SSLMODE",
		"DB_AUTO_MIGRATE", "REDIS_ADDR", "KAFKA_BROKER", "CONVERSATION_STORE",
		"CONVERSATION_TTL", "STORE_TIMEOUT", "NOTIFY_TIMEOUT", "EVENT_DEDUPE_TTL",
		"RATE_LIMIT_PER_USER", "RATE_LIMIT_PER_IP", "TZ_NAME", "TRIGGER_PHRASES", "SEED_BINDINGS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearOptional(t)
	setRequired(t)

	cfg, err := Load()
	assert.NoError(t, err)
	assert.NoError(t, cfg.ValidateLine())
	assert.Equal(t, "development", cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "https://api.line.me", cfg.Line.APIBaseURL)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, ConversationStoreMemory, cfg.ConversationStore)
	assert.Equal(t, 30*time.Minute, cfg.ConversationTTL)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 24*time.Hour, cfg.EventDedupeTTL)
	assert.Equal(t, 5.0, cfg.RateLimitPerUser)
	assert.Equal(t, 100.0, cfg.RateLimitPerIP)
	assert.Equal(t, "Asia/Taipei", cfg.Location.String())
	assert.Equal(t, []string{"leave", "請假"}, cfg.TriggerPhrases)
	assert.Empty(t, cfg.SeedBindings)
}

func TestLoad_Overrides(t *testing.T) {
	clearOptional(t)
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CONVERSATION_STORE", "Redis")
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("TRIGGER_PHRASES", "leave, 休假 ,")
	t.Setenv("SEED_BINDINGS", "U1:Bob:supervisor; U2:Carol:HR")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ConversationStoreRedis, cfg.ConversationStore)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"leave", "休假"}, cfg.TriggerPhrases)
	assert.Equal(t, []binding.SeedBinding{
		{UserID: "U1", DisplayName: "Bob", Role: binding.RoleSupervisor},
		{UserID: "U2", DisplayName: "Carol", Role: binding.RoleHR},
	}, cfg.SeedBindings)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		clearOptional(t)
		setRequired(t)
		t.Setenv("DB_HOST", "")
		t.Setenv("DB_NAME", "")

		_, err := Load()
		assert.ErrorContains(t, err, "DB_HOST")
		assert.ErrorContains(t, err, "DB_NAME")
	})

	t.Run("line credentials checked separately", func(t *testing.T) {
		clearOptional(t)
		setRequired(t)
		t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "")

		cfg, err := Load()
		assert.NoError(t, err)
		assert.ErrorContains(t, cfg.ValidateLine(), "LINE_CHANNEL_ACCESS_TOKEN")
	})

	t.Run("invalid values", func(t *testing.T) {
		clearOptional(t)
		setRequired(t)
		t.Setenv("STORE_TIMEOUT", "soon")
		t.Setenv("TZ_NAME", "Mars/Olympus")
		t.Setenv("CONVERSATION_STORE", "redis")

		_, err := Load()
		assert.ErrorContains(t, err, "STORE_TIMEOUT")
		assert.ErrorContains(t, err, "TZ_NAME")
		assert.ErrorContains(t, err, "REDIS_ADDR")
	})
}

func TestParseSeedBindings(t *testing.T) {
	_, err := ParseSeedBindings("U1:Bob")
	assert.Error(t, err)

	_, err = ParseSeedBindings("U1:Bob:ceo")
	assert.Error(t, err)

	seeds, err := ParseSeedBindings("")
	assert.NoError(t, err)
	assert.Empty(t, seeds)
}
