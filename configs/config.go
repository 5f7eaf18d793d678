package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	PostgresURI string
	RedisURI    string

	PlatformBaseURL  string
	PlatformAuthURL  string
	PlatformTokenURL string
	ClientID         string
	ClientSecret     string
	RedirectURI      string

	WebhookURL string
	SecretKey  string
	CookieName string

	RefreshWindow       time.Duration
	RefreshBatchSize    int
	RefreshFailureLimit int

	DeletionBatchSize int
	DeletionBackoff   time.Duration
	DeletionClaimTTL  time.Duration

	PublishClaimTTL  time.Duration
	SecondStageDelay time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "127.0.0.1:6379"),
		PlatformBaseURL:  getEnv("PLATFORM_BASE_URL", ""),
		PlatformAuthURL:  getEnv("PLATFORM_AUTH_URL", ""),
		PlatformTokenURL: getEnv("PLATFORM_TOKEN_URL", ""),
		ClientID:         getEnv("PLATFORM_CLIENT_ID", ""),
		ClientSecret:     getEnv("PLATFORM_CLIENT_SECRET", ""),
		RedirectURI:      getEnv("PLATFORM_REDIRECT_URI", ""),
		WebhookURL:       getEnv("ALERT_WEBHOOK_URL", ""),
		SecretKey:        getEnv("SECRET_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", "postpilot_session"),

		RefreshWindow:       getEnvMinutes("REFRESH_WINDOW_MINUTES", 30),
		RefreshBatchSize:    getEnvInt("REFRESH_BATCH_SIZE", 50),
		RefreshFailureLimit: getEnvInt("REFRESH_FAILURE_LIMIT", 3),

		DeletionBatchSize: getEnvInt("DELETION_BATCH_SIZE", 100),
		DeletionBackoff:   getEnvMinutes("DELETION_BACKOFF_MINUTES", 60),
		DeletionClaimTTL:  getEnvMinutes("DELETION_CLAIM_TTL_MINUTES", 15),

		PublishClaimTTL:  getEnvMinutes("PUBLISH_CLAIM_TTL_MINUTES", 15),
		SecondStageDelay: getEnvMinutes("SECOND_STAGE_DELAY_MINUTES", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvMinutes(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Minute
}
