package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Session and booking backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	BookingLog      = "log"
	BookingPostgres = "postgres"
)

// Config aggregates every setting of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Store    StoreConfig
	Booking  BookingConfig
	Calendar CalendarConfig
	Slots    SlotsConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	bookingCfg, err := loadBookingConfig()
	if err != nil {
		return nil, err
	}

	calendar, err := loadCalendarConfig()
	if err != nil {
		return nil, err
	}

	slots, err := loadSlotsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Store:    store,
		Booking:  bookingCfg,
		Calendar: calendar,
		Slots:    slots,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are taken as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the optional Ark chat model used for date extraction.
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	DateLLMEnabled bool
}

// Enabled reports whether model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	dateLLM, err := parseBoolEnv("DATE_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		DateLLMEnabled: dateLLM,
	}, nil
}

// StoreConfig selects where sessions live.
type StoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	SessionTTL    time.Duration
}

func loadStoreConfig() (StoreConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("SESSION_STORE", StoreMemory))
	if backend != StoreMemory && backend != StoreRedis {
		return StoreConfig{}, fmt.Errorf("invalid SESSION_STORE value %q: want %s or %s", backend, StoreMemory, StoreRedis)
	}

	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return StoreConfig{}, err
	} else if override != nil {
		db = *override
	}

	var ttl time.Duration
	if seconds, err := parseOptionalIntEnv("REDIS_SESSION_TTL_SECONDS"); err != nil {
		return StoreConfig{}, err
	} else if seconds != nil && *seconds > 0 {
		ttl = time.Duration(*seconds) * time.Second
	}

	cfg := StoreConfig{
		Backend:       backend,
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
		KeyPrefix:     getEnvOrDefault("REDIS_KEY_PREFIX", "scheduler:session:"),
		SessionTTL:    ttl,
	}
	if cfg.Backend == StoreRedis && cfg.RedisAddr == "" {
		return StoreConfig{}, fmt.Errorf("REDIS_ADDR is required when SESSION_STORE=%s", StoreRedis)
	}
	return cfg, nil
}

// BookingConfig selects how confirmed slots are recorded.
type BookingConfig struct {
	Backend     string
	PostgresDSN string
}

func loadBookingConfig() (BookingConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("BOOKING_BACKEND", BookingLog))
	if backend != BookingLog && backend != BookingPostgres {
		return BookingConfig{}, fmt.Errorf("invalid BOOKING_BACKEND value %q: want %s or %s", backend, BookingLog, BookingPostgres)
	}

	cfg := BookingConfig{
		Backend:     backend,
		PostgresDSN: strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
	}
	if cfg.Backend == BookingPostgres && cfg.PostgresDSN == "" {
		return BookingConfig{}, fmt.Errorf("POSTGRES_DSN is required when BOOKING_BACKEND=%s", BookingPostgres)
	}
	return cfg, nil
}

// CalendarConfig points at the busy calendar. An empty ICSSource uses the built-in fixture.
type CalendarConfig struct {
	ICSSource   string
	HorizonDays int
}

func loadCalendarConfig() (CalendarConfig, error) {
	horizon := 60
	if override, err := parseOptionalIntEnv("CALENDAR_HORIZON_DAYS"); err != nil {
		return CalendarConfig{}, err
	} else if override != nil {
		if *override < 1 {
			horizon = 1
		} else {
			horizon = *override
		}
	}

	return CalendarConfig{
		ICSSource:   strings.TrimSpace(os.Getenv("CALENDAR_ICS_SOURCE")),
		HorizonDays: horizon,
	}, nil
}

// SlotsConfig tunes availability lookups.
type SlotsConfig struct {
	CacheSize int
}

func loadSlotsConfig() (SlotsConfig, error) {
	size := 128
	if override, err := parseOptionalIntEnv("SLOT_CACHE_SIZE"); err != nil {
		return SlotsConfig{}, err
	} else if override != nil && *override > 0 {
		size = *override
	}
	return SlotsConfig{CacheSize: size}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
