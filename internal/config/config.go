package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backend selectors.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	// Server settings
	Port     string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// SecondMe generation capability
	SecondMeBaseURL   string        `envconfig:"SECONDME_BASE_URL" default:"https://app.mindos.com/gate/lab"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"60s"`
	// Fixed pause between successive generation calls within one scene, to
	// respect upstream rate limits.
	RateLimitDelay time.Duration `envconfig:"RATE_LIMIT_DELAY" default:"500ms"`
	VoiceEnabled   bool          `envconfig:"VOICE_ENABLED" default:"false"`
	// Token budget for accumulated transcript context in generation prompts.
	// Zero disables trimming.
	MaxContextTokens int `envconfig:"MAX_CONTEXT_TOKENS" default:"3000"`

	// Session store backend: memory or redis
	StoreBackend  string `envconfig:"STORE_BACKEND" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Optional RabbitMQ game-event publishing; disabled when URL is empty.
	RabbitMQURL     string `envconfig:"RABBITMQ_URL" default:""`
	GameEventsQueue string `envconfig:"GAME_EVENTS_QUEUE" default:"game_events"`

	// CORS
	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.StoreBackend != StoreMemory && cfg.StoreBackend != StoreRedis {
		return nil, fmt.Errorf("unknown store backend %q (expected %q or %q)",
			cfg.StoreBackend, StoreMemory, StoreRedis)
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  SecondMe Base URL: %s", cfg.SecondMeBaseURL)
	log.Printf("  Generation Timeout: %v", cfg.GenerationTimeout)
	log.Printf("  Rate Limit Delay: %v", cfg.RateLimitDelay)
	log.Printf("  Voice Enabled: %v", cfg.VoiceEnabled)
	log.Printf("  Max Context Tokens: %d", cfg.MaxContextTokens)
	log.Printf("  Store Backend: %s", cfg.StoreBackend)
	if cfg.StoreBackend == StoreRedis {
		log.Printf("  Redis Addr: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.RabbitMQURL != "" {
		log.Printf("  Game Events Queue: %s", cfg.GameEventsQueue)
	}

	return &cfg, nil
}
