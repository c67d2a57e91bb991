package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	DataPath        string
	RedisAddr       string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	SaveAttempts    int
	LogLevel        string
	LogFormat       string
	CORSOrigins     []string
}

func NewConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", getEnv("PORT", "3000")),
		DataPath:        getEnv("DATA_PATH", "data/data.json"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", 60*time.Second),
		SaveAttempts:    getEnvInt("SAVE_ATTEMPTS", 3),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("http port must not be empty"))
	}
	if c.DataPath == "" {
		errs = append(errs, errors.New("data path must not be empty"))
	}
	if c.LoginRateLimit <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}
	if c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("login rate window must be positive"))
	}
	if c.SaveAttempts <= 0 {
		errs = append(errs, errors.New("save attempts must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Unparseable numbers fall back to the default.
func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
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
