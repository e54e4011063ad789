package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided
// via the config file or the environment.
type AppConfig struct {
	AppPort   string
	GinMode   string
	JWTSecret string
	// TokenTTLMinutes bounds issued bearer tokens.
	TokenTTLMinutes int

	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis backs visit-session markers and revoked tokens; optional.
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Timezone is the IANA zone used for calendar-day stats buckets.
	Timezone string
	// StatsWindowDays is the trailing window length for stats series.
	StatsWindowDays int

	RateLimitPerMinute int
	AllowedOrigins     []string

	// Locales accepted on the user write path; anything else falls back.
	AvailableLocales []string
	FallbackLocale   string

	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Location resolves the configured timezone, falling back to UTC when the
// zone name is unknown.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TokenTTL returns the bearer token lifetime as a duration.
func (c AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// LocaleOrFallback validates a requested locale against the available set.
func (c AppConfig) LocaleOrFallback(locale string) string {
	for _, l := range c.AvailableLocales {
		if l == locale {
			return locale
		}
	}
	return c.FallbackLocale
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.TokenTTLMinutes == 0 {
		c.TokenTTLMinutes = 24 * 60
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "easel"
	}
	if c.DBName == "" {
		c.DBName = "easel"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.StatsWindowDays == 0 {
		c.StatsWindowDays = 30
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AvailableLocales) == 0 {
		c.AvailableLocales = []string{"en", "de", "es", "fr", "it", "pt", "zh"}
	}
	if c.FallbackLocale == "" {
		c.FallbackLocale = "en"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/easel.log"
	}
}

// loadJSONConfig reads a flat JSON file into cfg if present. Returns error
// only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // missing file is fine
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	return dec.Decode(out)
}

func applyEnvOverrides(c *AppConfig) {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTLMinutes = getEnvInt("TOKEN_TTL_MINUTES", c.TokenTTLMinutes)

	c.DatabaseURI = getEnv("DATABASE_URI", c.DatabaseURI)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)

	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnvInt("REDIS_PORT", c.RedisPort)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)

	c.Timezone = getEnv("APP_TIMEZONE", c.Timezone)
	c.StatsWindowDays = getEnvInt("STATS_WINDOW_DAYS", c.StatsWindowDays)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("AVAILABLE_LOCALES"); v != "" {
		c.AvailableLocales = splitAndTrim(v)
	}
	c.FallbackLocale = getEnv("FALLBACK_LOCALE", c.FallbackLocale)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPath = getEnv("LOG_PATH", c.LogPath)
	c.LogMaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.LogMaxSizeMB)
	c.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.LogMaxBackups)
	c.LogMaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", c.LogMaxAgeDays)
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "1" || strings.EqualFold(v, "true")
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
