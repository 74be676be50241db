package config

import (
	"fmt"
	"time"

	"quest-server/internal/engine"
	"quest-server/internal/service"
	"quest-server/internal/utils"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config - конфигурация quest-server.
type Config struct {
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	AutoMigrate   bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	// Секрет, без envconfig тега
	DBPassword string `ignored:"true"`

	// Redis
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// RabbitMQ. Пустой URL отключает публикацию событий.
	RabbitMQURL        string `envconfig:"RABBITMQ_URL"`
	SessionEventsQueue string `envconfig:"SESSION_EVENTS_QUEUE" default:"quest_session_events"`

	// Игровые правила
	PendingTransitionTTL time.Duration `envconfig:"PENDING_TRANSITION_TTL" default:"15m"`
	AccessCodeMatch      string        `envconfig:"ACCESS_CODE_MATCH" default:"fold"`
	EndingGoodPercent    int           `envconfig:"ENDING_GOOD_PERCENT" default:"80"`
	EndingNeutralPercent int           `envconfig:"ENDING_NEUTRAL_PERCENT" default:"40"`

	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
	// Секрет, без envconfig тега
	JWTSecret string `ignored:"true"`
}

// GetDSN возвращает строку подключения к PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// PlayingOptions собирает и проверяет игровые настройки.
func (c *Config) PlayingOptions() (service.PlayingOptions, error) {
	mode, err := engine.ParseCodeMatchMode(c.AccessCodeMatch)
	if err != nil {
		return service.PlayingOptions{}, err
	}
	bands := engine.EndingBands{GoodPercent: c.EndingGoodPercent, NeutralPercent: c.EndingNeutralPercent}
	if err := bands.Validate(); err != nil {
		return service.PlayingOptions{}, err
	}
	if c.PendingTransitionTTL <= 0 {
		return service.PlayingOptions{}, fmt.Errorf("PENDING_TRANSITION_TTL must be positive, got %s", c.PendingTransitionTTL)
	}
	return service.PlayingOptions{
		PendingTTL:  c.PendingTransitionTTL,
		CodeMatch:   mode,
		EndingBands: bands,
	}, nil
}

// LoadConfig читает переменные окружения и секреты из файлов.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации quest-server: %w", err)
	}

	var err error
	cfg.DBPassword, err = utils.ReadSecret(cfg.SecretsDir, "db_password")
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret, err = utils.ReadSecret(cfg.SecretsDir, "jwt_secret")
	if err != nil {
		return nil, err
	}
	if _, err := cfg.PlayingOptions(); err != nil {
		return nil, fmt.Errorf("некорректные игровые настройки: %w", err)
	}
	return &cfg, nil
}

// LogFields - конфигурация для лога при старте, без секретов.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("logLevel", c.LogLevel),
		zap.String("dbDSN", fmt.Sprintf("postgres://%s:***@%s:%s/%s?sslmode=%s", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)),
		zap.Int("dbMaxConns", c.DBMaxConns),
		zap.Bool("autoMigrate", c.AutoMigrate),
		zap.String("redisAddr", c.RedisAddr),
		zap.Bool("eventsEnabled", c.RabbitMQURL != ""),
		zap.String("sessionEventsQueue", c.SessionEventsQueue),
		zap.Duration("pendingTransitionTTL", c.PendingTransitionTTL),
		zap.String("accessCodeMatch", c.AccessCodeMatch),
		zap.Int("endingGoodPercent", c.EndingGoodPercent),
		zap.Int("endingNeutralPercent", c.EndingNeutralPercent),
	}
}
