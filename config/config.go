package config

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"github.com/spf13/viper"
)

const (
	TransportRedis  = "redis"
	TransportNats   = "nats"
	TransportMemory = "memory"
)

type Config struct {
	Port               string     `mapstructure:"PORT" validate:"required"`
	LogLevel           string     `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	InternalAuthHeader string     `mapstructure:"INTERNAL_AUTH_HEADER" validate:"required"`
	Db                 DbConfig   `mapstructure:",squash"`
	Jwt                JwtConfig  `mapstructure:",squash"`
	Sync               SyncConfig `mapstructure:",squash"`
}

type DbConfig struct {
	Host         string `mapstructure:"DB_HOST" validate:"required"`
	Port         string `mapstructure:"DB_PORT" validate:"required"`
	Username     string `mapstructure:"DB_USERNAME" validate:"required"`
	Password     string `mapstructure:"DB_PASSWORD" validate:"required"`
	DbName       string `mapstructure:"DB_DBNAME" validate:"required"`
	SSLMode      string `mapstructure:"DB_SSLMODE"`
	MaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS" validate:"min=1"`
	Migrate      bool   `mapstructure:"DB_MIGRATE"`
}

type JwtConfig struct {
	SecretKey string `mapstructure:"JWT_SECRETKEY" validate:"required"`
}

// SyncConfig configures the cross-replica stock channel. Topic must be the
// same on every replica.
type SyncConfig struct {
	Transport         string        `mapstructure:"SYNC_TRANSPORT" validate:"required,oneof=redis nats memory"`
	Topic             string        `mapstructure:"SYNC_TOPIC" validate:"required"`
	PollTimeout       time.Duration `mapstructure:"SYNC_POLL_TIMEOUT" validate:"gt=0"`
	RetryDelay        time.Duration `mapstructure:"SYNC_RETRY_DELAY" validate:"gt=0"`
	SubscribeAttempts int           `mapstructure:"SYNC_SUBSCRIBE_ATTEMPTS" validate:"min=1"`
	ObserverBuffer    int           `mapstructure:"SYNC_OBSERVER_BUFFER" validate:"min=1"`
	ReplicaID         string        `mapstructure:"REPLICA_ID"`
	RedisURL          string        `mapstructure:"REDIS_URL" validate:"required_if=Transport redis"`
	NatsURL           string        `mapstructure:"NATS_URL" validate:"required_if=Transport nats"`
}

var envVars = []string{
	"PORT",
	"LOG_LEVEL",
	"INTERNAL_AUTH_HEADER",
	"DB_HOST",
	"DB_PORT",
	"DB_USERNAME",
	"DB_PASSWORD",
	"DB_DBNAME",
	"DB_SSLMODE",
	"DB_MAX_OPEN_CONNS",
	"DB_MIGRATE",
	"JWT_SECRETKEY",
	"SYNC_TRANSPORT",
	"SYNC_TOPIC",
	"SYNC_POLL_TIMEOUT",
	"SYNC_RETRY_DELAY",
	"SYNC_SUBSCRIBE_ATTEMPTS",
	"SYNC_OBSERVER_BUFFER",
	"REPLICA_ID",
	"REDIS_URL",
	"NATS_URL",
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 10)
	viper.SetDefault("DB_MIGRATE", false)
	viper.SetDefault("SYNC_TRANSPORT", TransportRedis)
	viper.SetDefault("SYNC_TOPIC", "inventory_updates")
	viper.SetDefault("SYNC_POLL_TIMEOUT", "100ms")
	viper.SetDefault("SYNC_RETRY_DELAY", "1s")
	viper.SetDefault("SYNC_SUBSCRIBE_ATTEMPTS", 5)
	viper.SetDefault("SYNC_OBSERVER_BUFFER", 64)
}

func InitConfig(ctx context.Context) (*Config, error) {
	var cfg Config

	// Reset viper to avoid any previous configuration
	viper.Reset()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigType("env")
	setDefaults()

	// Try to load from .env file if it exists
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	_, err := os.Stat(envFile)
	if !os.IsNotExist(err) {
		viper.SetConfigFile(envFile)

		if err := viper.ReadInConfig(); err != nil {
			slog.WarnContext(ctx, "[InitConfig] ReadInConfig warning, continuing with env vars only", "error", err)
		} else {
			slog.InfoContext(ctx, "[InitConfig] Successfully loaded config file", "file", envFile)
		}
	} else {
		slog.InfoContext(ctx, "[InitConfig] No config file found, using environment variables")
	}

	viper.AutomaticEnv()

	// Bind environment variables explicitly so Unmarshal sees them
	for _, key := range envVars {
		if err := viper.BindEnv(key); err != nil {
			slog.WarnContext(ctx, "[InitConfig] BindEnv", "key", key, "error", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.ErrorContext(ctx, "[InitConfig] Unmarshal", "failed bind config", err)
		return nil, err
	}

	if cfg.Sync.ReplicaID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			slog.ErrorContext(ctx, "[InitConfig] ReplicaID", "uuid", err)
			return nil, err
		}
		cfg.Sync.ReplicaID = id.String()
	}

	slog.InfoContext(ctx, "[InitConfig] Configuration after binding",
		"PORT", cfg.Port,
		"DB_HOST", cfg.Db.Host,
		"DB_PORT", cfg.Db.Port,
		"DB_USERNAME", cfg.Db.Username,
		"DB_DBNAME", cfg.Db.DbName,
		"DB_SSLMODE", cfg.Db.SSLMode,
		"SYNC_TRANSPORT", cfg.Sync.Transport,
		"SYNC_TOPIC", cfg.Sync.Topic,
		"SYNC_POLL_TIMEOUT", cfg.Sync.PollTimeout,
		"REPLICA_ID", cfg.Sync.ReplicaID)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if ok {
			for _, validationErr := range validationErrs {
				slog.ErrorContext(ctx, "[InitConfig] Validation error",
					"field", validationErr.Field(),
					"namespace", validationErr.Namespace(),
					"tag", validationErr.Tag(),
					"value", validationErr.Value())
			}
		} else {
			slog.ErrorContext(ctx, "[InitConfig] Validation", "error", err)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Config loaded successfully")
	return &cfg, nil
}
