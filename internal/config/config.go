package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	Port string `validate:"required"`

	// Forecasting.
	HistorySteps  int    `validate:"gt=0"`
	LookbackHours int    `validate:"gtefield=HistorySteps"`
	BlockSize     int    `validate:"gt=0"`
	Strategy      string `validate:"oneof=seq2seq single"`
	ModelManifest string // empty means the baseline predictor

	lookbackSet bool

	// HistoryCache.
	CacheTTL        time.Duration `validate:"gt=0"`
	CacheBackend    string        `validate:"oneof=memory redis"`
	CacheMaxEntries int           `validate:"gte=0"` // memory backend only, 0 = unlimited
	Redis           RedisConfig

	// Observation source.
	ObservationSource string `validate:"oneof=meteostat openmeteo merged"`
	MeteostatAPIKey   string
	HTTPTimeout       time.Duration `validate:"gt=0"`

	StationsFile string

	// Cache warmer.
	WarmStations []string
	WarmInterval time.Duration

	// HTTP boundary.
	DefaultForecastHours int `validate:"gte=0,ltefield=MaxForecastHours"`
	MaxForecastHours     int `validate:"gt=0"`
}

type RedisConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int `validate:"gte=0"`
	PoolSize    int `validate:"gte=0"`
	PoolTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.HistorySteps = getenvInt("HISTORY_STEPS", 96)
	cfg.LookbackHours = getenvInt("LOOKBACK_HOURS", defaultLookback(cfg.HistorySteps))
	cfg.lookbackSet = os.Getenv("LOOKBACK_HOURS") != ""
	cfg.BlockSize = getenvInt("BLOCK_SIZE", 10)
	cfg.Strategy = strings.ToLower(getenvDefault("STRATEGY", "seq2seq"))
	cfg.ModelManifest = os.Getenv("MODEL_MANIFEST")

	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "1h"); err != nil {
		return nil, err
	}
	cfg.CacheBackend = strings.ToLower(getenvDefault("CACHE_BACKEND", "memory"))
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 1000)

	cfg.Redis.Addr = getenvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Username = os.Getenv("REDIS_USERNAME")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getenvInt("REDIS_DB", 0)
	cfg.Redis.PoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	if cfg.Redis.PoolTimeout, err = getenvDuration("REDIS_POOL_TIMEOUT", "4s"); err != nil {
		return nil, err
	}

	cfg.ObservationSource = strings.ToLower(getenvDefault("OBSERVATION_SOURCE", "meteostat"))
	cfg.MeteostatAPIKey = os.Getenv("METEOSTAT_API_KEY")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.StationsFile = os.Getenv("STATIONS_FILE")

	cfg.WarmStations = splitList(os.Getenv("WARM_STATIONS"))
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", "30m"); err != nil {
		return nil, err
	}

	cfg.DefaultForecastHours = getenvInt("FORECAST_HOURS", 72)
	cfg.MaxForecastHours = getenvInt("MAX_FORECAST_HOURS", 240)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that defaults alone cannot guarantee.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.ObservationSource != "openmeteo" && c.MeteostatAPIKey == "" {
		return fmt.Errorf("invalid config: METEOSTAT_API_KEY is required for the %s source", c.ObservationSource)
	}
	if c.CacheBackend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config: REDIS_ADDR is required for the redis backend")
	}
	return nil
}

// LookbackFor returns the raw-history lookback for windows of historySteps
// rows. An explicit LOOKBACK_HOURS wins; otherwise it follows historySteps,
// which may come from a model manifest rather than HISTORY_STEPS.
func (c *AppConfig) LookbackFor(historySteps int) int {
	if c.lookbackSet {
		return c.LookbackHours
	}
	return defaultLookback(historySteps)
}

// defaultLookback adds a day of rows to absorb rows dropped for missing values.
func defaultLookback(historySteps int) int {
	return historySteps + 24
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
