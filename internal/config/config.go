package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr         string
	DBPath             string
	PhotoPath          string
	PublicBaseURL      string
	LogLevel           string
	LogFormat          string
	LogFile            string
	CORSAllowedOrigins []string
	ChatReplyDelay     time.Duration
	SessionIdleTimeout time.Duration
	SeedNotifications  bool
	CatalogFile        string
	TestMode           bool
}

// Load reads configuration from the environment. Values from ENV_FILE (default
// ".env") are loaded first but never override variables already set.
func Load() *Config {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	return &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		DBPath:             getEnv("DB_PATH", "/data/homefinder.db"),
		PhotoPath:          getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		LogFile:            getEnv("LOG_FILE", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ChatReplyDelay:     getDuration("CHAT_REPLY_DELAY", 2*time.Second),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SeedNotifications:  getBool("SEED_NOTIFICATIONS", true),
		CatalogFile:        getEnv("CATALOG_FILE", ""),
		TestMode:           os.Getenv("HOMEFINDER_TEST_MODE") == "1",
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
