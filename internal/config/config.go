package config

import "github.com/caarlos0/env/v10"

// Config centralizes service configuration.
type Config struct {
	HTTPPort     string `env:"HTTP_PORT" envDefault:"8080"`
	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	// Durable key-value storage. "sqlite" is the default local backend;
	// "redis", "postgres" and "memory" are also supported.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"chitchat.db"`
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`

	UIConfigURL            string `env:"UI_CONFIG_URL" envDefault:"https://chitchat-aman.netlify.app/.netlify/functions/get-ui-config"`
	UIConfigRefreshSeconds int    `env:"UI_CONFIG_REFRESH_SECONDS" envDefault:"30"`

	BuildWebhookURL string `env:"BUILD_WEBHOOK_URL"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
