package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"line-leave/internal/binding"
	"line-leave/internal/shared/connection"
)

const (
	ConversationStoreMemory = "memory"
	ConversationStoreRedis  = "redis"
)

type LineConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
	APIBaseURL         string
}

type Config struct {
	AppEnv   string
	Port     string
	Location *time.Location

	Line     LineConfig
	Postgres connection.PostgresConfig
	// AutoMigrate applies embedded migrations on api startup.
	AutoMigrate bool

	RedisAddr   string
	KafkaBroker string

	ConversationStore string
	ConversationTTL   time.Duration
	StoreTimeout      time.Duration
	NotifyTimeout     time.Duration
	EventDedupeTTL    time.Duration
	RateLimitPerUser  float64
	RateLimitPerIP    float64

	TriggerPhrases []string
	SeedBindings   []binding.SeedBinding
}

// ValidateLine checks the channel credentials only the api process needs.
func (c Config) ValidateLine() error {
	var missing []string
	if c.Line.ChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if c.Line.ChannelAccessToken == "" {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads the process environment. Missing required variables are
// reported together.
func Load() (Config, error) {
	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "3000"),
		Line: LineConfig{
			ChannelSecret:      strings.TrimSpace(os.Getenv("LINE_CHANNEL_SECRET")),
			ChannelAccessToken: strings.TrimSpace(os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")),
			APIBaseURL:         getEnv("LINE_API_BASE_URL", "https://api.line.me"),
		},
		Postgres: connection.PostgresConfig{
			Host:     required("DB_HOST"),
			User:     required("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   required("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:   strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBroker: strings.TrimSpace(os.Getenv("KAFKA_BROKER")),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.AutoMigrate, err = getBool("DB_AUTO_MIGRATE", true)
	collect(err)
	cfg.ConversationTTL, err = getDuration("CONVERSATION_TTL", 30*time.Minute)
	collect(err)
	cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 5*time.Second)
	collect(err)
	cfg.NotifyTimeout, err = getDuration("NOTIFY_TIMEOUT", 5*time.Second)
	collect(err)
	cfg.EventDedupeTTL, err = getDuration("EVENT_DEDUPE_TTL", 24*time.Hour)
	collect(err)
	cfg.RateLimitPerUser, err = getFloat("RATE_LIMIT_PER_USER", 5)
	collect(err)
	cfg.RateLimitPerIP, err = getFloat("RATE_LIMIT_PER_IP", 100)
	collect(err)

	tz := getEnv("TZ_NAME", "Asia/Taipei")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		collect(fmt.Errorf("TZ_NAME %q: %w", tz, err))
	}

	cfg.ConversationStore = strings.ToLower(getEnv("CONVERSATION_STORE", ConversationStoreMemory))
	switch cfg.ConversationStore {
	case ConversationStoreMemory:
	case ConversationStoreRedis:
		if cfg.RedisAddr == "" {
			collect(errors.New("CONVERSATION_STORE=redis requires REDIS_ADDR"))
		}
	default:
		collect(fmt.Errorf("CONVERSATION_STORE %q: want memory or redis", cfg.ConversationStore))
	}

	cfg.TriggerPhrases = splitList(getEnv("TRIGGER_PHRASES", "leave,請假"), ",")
	cfg.SeedBindings, err = ParseSeedBindings(os.Getenv("SEED_BINDINGS"))
	collect(err)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// ParseSeedBindings reads "userId:displayName:role" entries separated by
// semicolons.
func ParseSeedBindings(raw string) ([]binding.SeedBinding, error) {
	var seeds []binding.SeedBinding
	for _, entry := range splitList(raw, ";") {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("SEED_BINDINGS entry %q: want userId:name:role", entry)
		}
		role, ok := binding.ParseRole(parts[2])
		if !ok {
			return nil, fmt.Errorf("SEED_BINDINGS entry %q: unknown role %q", entry, parts[2])
		}
		seeds = append(seeds, binding.SeedBinding{
			UserID:      strings.TrimSpace(parts[0]),
			DisplayName: strings.TrimSpace(parts[1]),
			Role:        role,
		})
	}
	return seeds, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fallback, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	if f <= 0 {
		return fallback, fmt.Errorf("%s: must be positive", key)
	}
	return f, nil
}

func splitList(raw, sep string) []string {
	var out []string
	for _, p := range strings.Split(raw, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
