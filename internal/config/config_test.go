package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SESSION_STORE", "BOOKING_BACKEND", "CALENDAR_ICS_SOURCE", "SLOT_CACHE_SIZE", "DATE_LLM_ENABLED", "Model", "REDIS_KEY_PREFIX", "CALENDAR_HORIZON_DAYS", "ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS", "REDIS_DB", "REDIS_SESSION_TTL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Store.Backend != StoreMemory || cfg.Booking.Backend != BookingLog {
		t.Fatalf("unexpected backends %q / %q", cfg.Store.Backend, cfg.Booking.Backend)
	}
	if cfg.Store.KeyPrefix != "scheduler:session:" {
		t.Fatalf("unexpected key prefix %q", cfg.Store.KeyPrefix)
	}
	if cfg.Calendar.HorizonDays != 60 || cfg.Slots.CacheSize != 128 {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Calendar, cfg.Slots)
	}
	if cfg.AI.DateLLMEnabled || cfg.AI.Enabled() {
		t.Fatal("model should be disabled by default")
	}
}

func TestLoadServerAddr(t *testing.T) {
	cases := map[string]string{"9090": ":9090", "127.0.0.1:7000": "127.0.0.1:7000"}
	for in, want := range cases {
		t.Setenv("PORT", in)
		cfg, err := loadServerConfig()
		if err != nil {
			t.Fatalf("PORT=%q err: %v", in, err)
		}
		if cfg.Addr != want {
			t.Fatalf("PORT=%q: got %q want %q", in, cfg.Addr, want)
		}
	}

	t.Setenv("PORT", "80 80")
	if _, err := loadServerConfig(); err == nil {
		t.Fatal("expected error for PORT with space")
	}
}

func TestRedisStoreRequiresAddr(t *testing.T) {
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "")
	if _, err := loadStoreConfig(); err == nil {
		t.Fatal("expected error without REDIS_ADDR")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_SESSION_TTL_SECONDS", "90")
	cfg, err := loadStoreConfig()
	if err != nil {
		t.Fatalf("loadStoreConfig err: %v", err)
	}
	if cfg.RedisDB != 2 || cfg.SessionTTL != 90*time.Second {
		t.Fatalf("unexpected store config %+v", cfg)
	}
}

func TestUnknownBackendsRejected(t *testing.T) {
	t.Setenv("SESSION_STORE", "mongo")
	if _, err := loadStoreConfig(); err == nil {
		t.Fatal("expected error for unknown session store")
	}

	t.Setenv("BOOKING_BACKEND", "sheets")
	if _, err := loadBookingConfig(); err == nil {
		t.Fatal("expected error for unknown booking backend")
	}
}

func TestPostgresBookingRequiresDSN(t *testing.T) {
	t.Setenv("BOOKING_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	if _, err := loadBookingConfig(); err == nil {
		t.Fatal("expected error without POSTGRES_DSN")
	}
}

func TestInvalidNumbersRejected(t *testing.T) {
	t.Setenv("SLOT_CACHE_SIZE", "lots")
	if _, err := loadSlotsConfig(); err == nil {
		t.Fatal("expected error for SLOT_CACHE_SIZE")
	}

	t.Setenv("DATE_LLM_ENABLED", "maybe")
	if _, err := loadAIConfig(); err == nil {
		t.Fatal("expected error for DATE_LLM_ENABLED")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	if (AIConfig{APIKey: "k"}).Enabled() {
		t.Fatal("model name is required")
	}
	if !(AIConfig{APIKey: "k", Model: "m"}).Enabled() {
		t.Fatal("api key + model should enable")
	}
	if !(AIConfig{AccessKey: "a", SecretKey: "s", Model: "m"}).Enabled() {
		t.Fatal("ak/sk + model should enable")
	}
}
