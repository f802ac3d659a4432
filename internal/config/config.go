package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI        string
	RedisURI        string
	JWTSecret       string
	Port            string
	CookieDomain    string
	AllowedOrigins  []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	RecaptchaSecret string
	PushAppID       string
	PushAPIKey      string
	PushEndpoint    string
	InfoTTL         time.Duration // max distance of birthdate from submission time
	InfoMaxLifetime time.Duration // max distance of expirydate from birthdate
	SweepInterval   time.Duration
	TokenTTL        time.Duration
	LogLevel        string
	Environment     string // ENV: production, development, etc.
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{getEnv("FRONTEND_URL", "http://localhost:3000")}
	}

	return &Config{
		MongoURI:        getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/board")),
		RedisURI:        getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:            getEnv("PORT", "8080"),
		CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
		AllowedOrigins:  allowedOrigins,
		RecaptchaSecret: getEnv("RECAPTCHA_SECRET", ""),
		PushAppID:       getEnv("PUSH_APP_ID", ""),
		PushAPIKey:      getEnv("PUSH_API_KEY", ""),
		PushEndpoint:    getEnv("PUSH_ENDPOINT", "https://onesignal.com/api/v1/notifications"),
		InfoTTL:         getDuration("INFO_TTL_DAYS", 30, 24*time.Hour),
		InfoMaxLifetime: getDuration("INFO_MAX_LIFETIME_HOURS", 24, time.Hour),
		SweepInterval:   getDuration("SWEEP_INTERVAL_MINUTES", 30, time.Minute),
		TokenTTL:        3 * time.Hour,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Environment:     env,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration reads an integer env var and scales it by unit.
func getDuration(key string, defaultValue int, unit time.Duration) time.Duration {
	n := defaultValue
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			n = parsed
		}
	}
	return time.Duration(n) * unit
}
