package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultJWTSecret and DefaultOpenAIKey are placeholders; running with
	// them outside development is a misconfiguration.
	DefaultJWTSecret = "super-secret-key"
	DefaultOpenAIKey = "your_api_key_here"
)

type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel string

	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	JWT      JWTConfig
	OpenAI   OpenAIConfig
	Worker   WorkerConfig
}

type DBConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host          string
	Port          string
	RedisPassword string
	RedisDB       string
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

// Enabled reports whether a broker URL was configured.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

type JWTConfig struct {
	Secret string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type WorkerConfig struct {
	Count       int
	MetricsPort string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("OPENAI_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPENAI_TIMEOUT: %w", err)
	}

	workers, err := strconv.Atoi(getEnv("WORKER_COUNT", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_COUNT: %w", err)
	}

	cfg := &Config{
		AppName:  getEnv("APP_NAME", "emosante"),
		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "5000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DB: DBConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "emosante.db"),
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:          os.Getenv("REDIS_HOST"),
			Port:          getEnv("REDIS_PORT", "6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnv("REDIS_DB", "0"),
		},

		RabbitMQ: RabbitMQConfig{
			URL:   os.Getenv("RABBITMQ_URL"),
			Queue: getEnv("RABBITMQ_QUEUE", "emotion_analysis"),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", DefaultJWTSecret),
		},

		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", DefaultOpenAIKey),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Timeout: timeout,
		},

		Worker: WorkerConfig{
			Count:       workers,
			MetricsPort: getEnv("WORKER_METRICS_PORT", "8088"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DB.Host == "" || c.DB.Name == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	if c.Redis.Enabled() {
		if _, err := strconv.Atoi(c.Redis.RedisDB); err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.Worker.Count)
	}
	return nil
}

// UsesDefaultSecrets reports which placeholder secrets are still in effect.
func (c *Config) UsesDefaultSecrets() []string {
	var names []string
	if c.JWT.Secret == DefaultJWTSecret {
		names = append(names, "JWT_SECRET")
	}
	if c.OpenAI.APIKey == DefaultOpenAIKey {
		names = append(names, "OPENAI_API_KEY")
	}
	return names
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
