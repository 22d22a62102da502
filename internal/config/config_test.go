package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "DB_DRIVER", "DB_PATH", "REDIS_HOST", "RABBITMQ_URL",
		"JWT_SECRET", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_TIMEOUT", "WORKER_COUNT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "emosante.db", cfg.DB.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 3, cfg.Worker.Count)
	assert.Equal(t, "emotion_analysis", cfg.RabbitMQ.Queue)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.RabbitMQ.Enabled())
	assert.ElementsMatch(t, []string{"JWT_SECRET", "OPENAI_API_KEY"}, cfg.UsesDefaultSecrets())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "emosante")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TIMEOUT", "5s")
	t.Setenv("WORKER_COUNT", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.RabbitMQ.Enabled())
	assert.Equal(t, 5*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 7, cfg.Worker.Count)
	assert.Empty(t, cfg.UsesDefaultSecrets())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "Bad timeout", key: "OPENAI_TIMEOUT", val: "soon"},
		{name: "Bad worker count", key: "WORKER_COUNT", val: "many"},
		{name: "Unknown driver", key: "DB_DRIVER", val: "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DB:     DBConfig{Driver: "sqlite", Path: "x.db"},
			Redis:  RedisConfig{RedisDB: "0"},
			Worker: WorkerConfig{Count: 1},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("Postgres without host", func(t *testing.T) {
		cfg := base()
		cfg.DB.Driver = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Redis with bad db", func(t *testing.T) {
		cfg := base()
		cfg.Redis.Host = "localhost"
		cfg.Redis.RedisDB = "zero"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Zero workers", func(t *testing.T) {
		cfg := base()
		cfg.Worker.Count = 0
		assert.Error(t, cfg.Validate())
	})
}
