package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDatabasePath   = "eventmeals.db"
	defaultListenAddr     = ":8080"
	defaultJWTExpiry      = 24 * time.Hour
	defaultLLMModel       = "gemini-2.5-flash"
	defaultLLMTimeout     = 60 * time.Second
	defaultLookupCacheTTL = 60 * time.Second
)

type Config struct {
	// database path
	DatabasePath string
	GormLogLevel string

	// http
	ListenAddr         string
	CORSAllowedOrigins []string

	// admin auth
	JWTSecret string
	JWTExpiry time.Duration

	// completion model (empty key disables the assistant)
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// lookup cache; RedisAddr empty means in-process cache
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LookupCacheTTL time.Duration

	// logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) (int, error) {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid %s '%s': expected a non-negative integer", envVar, valStr)
	}
	return val, nil
}

func getEnvDurationOrDefault(envVar string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal, nil
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("invalid %s '%s': expected a positive duration like 30s", envVar, valStr)
	}
	return val, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	jwtExpiry, err := getEnvDurationOrDefault("JWT_EXPIRY", defaultJWTExpiry)
	if err != nil {
		return Config{}, err
	}
	llmTimeout, err := getEnvDurationOrDefault("LLM_TIMEOUT", defaultLLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := getEnvDurationOrDefault("LOOKUP_CACHE_TTL", defaultLookupCacheTTL)
	if err != nil {
		return Config{}, err
	}
	redisDB, err := getEnvIntOrDefault("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		GormLogLevel:       getEnvOrDefault("GORM_LOG_LEVEL", "warn"),
		ListenAddr:         getEnvOrDefault("LISTEN_ADDR", defaultListenAddr),
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpiry:          jwtExpiry,
		LLMAPIKey:          getEnvOrDefault("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		LLMModel:           getEnvOrDefault("LLM_MODEL", defaultLLMModel),
		LLMTimeout:         llmTimeout,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		LookupCacheTTL:     cacheTTL,
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "console"),
		LogOutput:          getEnvOrDefault("LOG_OUTPUT", "stdout"),
	}

	return cfg, nil
}

// RequireServer checks the settings only the HTTP server needs.
func (c Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	return nil
}
