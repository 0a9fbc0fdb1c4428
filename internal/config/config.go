// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Search defaults and safety caps.
const (
	DefaultMaxResultsValue = 20
	MaxResultsCapValue     = 1000
	MaxScanLinesValue      = 10000
)

// Config holds all configuration for the server.
type Config struct {
	RgPath                string        // RG_PATH, default "rg"
	DefaultRoot           string        // SEARCH_ROOT, default "."
	DefaultMaxResults     int           // DEFAULT_MAX_RESULTS, default 20
	MaxResultsCap         int           // MAX_RESULTS_CAP, default 1000
	MaxScanLines          int           // MAX_SCAN_LINES, default 10000 (multi-term pre-filter scan space)
	AttemptTimeout        time.Duration // ATTEMPT_TIMEOUT_MS, default 10000ms (per attempt, not per cascade)
	MaxConcurrentSearches int           // MAX_CONCURRENT_SEARCHES, default 4 (concurrent rg processes)
	ResultCacheMaxItems   int           // RESULT_CACHE_MAX_ITEMS, default 256
	ResultCacheTTL        time.Duration // RESULT_CACHE_TTL_MS, default 2000ms; 0 disables the cache

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RgPath:                getEnvString("RG_PATH", "rg"),
		DefaultRoot:           getEnvString("SEARCH_ROOT", "."),
		DefaultMaxResults:     getEnvInt("DEFAULT_MAX_RESULTS", DefaultMaxResultsValue),
		MaxResultsCap:         getEnvInt("MAX_RESULTS_CAP", MaxResultsCapValue),
		MaxScanLines:          getEnvInt("MAX_SCAN_LINES", MaxScanLinesValue),
		AttemptTimeout:        getEnvDurationMs("ATTEMPT_TIMEOUT_MS", 10000),
		MaxConcurrentSearches: getEnvInt("MAX_CONCURRENT_SEARCHES", 4),
		ResultCacheMaxItems:   getEnvInt("RESULT_CACHE_MAX_ITEMS", 256),
		ResultCacheTTL:        getEnvDurationMs("RESULT_CACHE_TTL_MS", 2000),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
