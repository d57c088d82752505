package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionSecret is the built-in cookie secret. It is only fit for
// local development.
const DefaultSessionSecret = "change-me-in-production-32bytes!"

type Config struct {
	Port            int
	DataDir         string
	WebDir          string
	SessionSecret   string
	SessionMaxAge   int
	SecureCookie    bool
	UsersAPIURL     string
	AIAPIURL        string
	RequestTimeout  time.Duration
	AICacheTTL      time.Duration
	SortLanguage    string
	LoginRatePerMin int
	LogFile         string
	LogLevel        string
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set win over the file. The returned
// Config is usable even when the data directory could not be created.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("CONSOLE_PORT", 8080),
		DataDir:         getEnvString("CONSOLE_DATA_DIR", "./data"),
		WebDir:          getEnvString("CONSOLE_WEB_DIR", ""),
		SessionSecret:   getEnvString("CONSOLE_SESSION_SECRET", DefaultSessionSecret),
		SessionMaxAge:   getEnvInt("CONSOLE_SESSION_MAX_AGE", 86400), // 24 hours
		SecureCookie:    getEnvBool("CONSOLE_SECURE_COOKIE", false),
		UsersAPIURL:     strings.TrimRight(getEnvString("CONSOLE_USERS_API_URL", "http://localhost:5500/api/users"), "/"),
		AIAPIURL:        strings.TrimRight(getEnvString("CONSOLE_AI_API_URL", "http://localhost:5500/api/ai-analysis"), "/"),
		RequestTimeout:  time.Duration(getEnvInt("CONSOLE_REQUEST_TIMEOUT_SEC", 15)) * time.Second,
		AICacheTTL:      time.Duration(getEnvInt("CONSOLE_AI_CACHE_TTL_SEC", 30)) * time.Second,
		SortLanguage:    getEnvString("CONSOLE_SORT_LANGUAGE", "en"),
		LoginRatePerMin: getEnvInt("CONSOLE_LOGIN_RATE_PER_MIN", 10),
		LogFile:         getEnvString("CONSOLE_LOG_FILE", ""),
		LogLevel:        getEnvString("LOG_LEVEL", "info"),
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return cfg, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) UsesDefaultSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
