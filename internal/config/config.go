package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root of config/config.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Lock     LockConfig     `mapstructure:"lock"`
	Log      LogConfig      `mapstructure:"log"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Reward   RewardConfig   `mapstructure:"reward"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// ServerConfig GatewayToken, when set, must be presented as a bearer token by
// the gateway that injects caller identities.
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	WorkerID     int64  `mapstructure:"worker_id"`
	GatewayToken string `mapstructure:"gateway_token"`
}

// DatabaseConfig selects one of the mysql, postgres or sqlite drivers.
// For sqlite only Path is used.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	Events string `mapstructure:"events"`
}

// LockConfig controls the global serialization lock taken by every mutating
// operation.
type LockConfig struct {
	Key               string `mapstructure:"key"`
	ExpirationSeconds int    `mapstructure:"expiration_seconds"`
	RetryIntervalMs   int    `mapstructure:"retry_interval_ms"`
	MaxRetries        int    `mapstructure:"max_retries"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LedgerConfig Issuer is the only identity allowed to mint tokens and assets.
type LedgerConfig struct {
	Issuer string `mapstructure:"issuer"`
}

// RewardConfig is applied once, when the tracker is first deployed. Later
// restarts only read it for missing rows.
type RewardConfig struct {
	Owner       string `mapstructure:"owner"`
	Token       string `mapstructure:"token"`
	Address     string `mapstructure:"address"`
	DailyReward string `mapstructure:"daily_reward"`
}

type ExchangeConfig struct {
	Owner              string `mapstructure:"owner"`
	PaymentToken       string `mapstructure:"payment_token"`
	Address            string `mapstructure:"address"`
	PlatformFeePercent uint32 `mapstructure:"platform_fee_percent"`
}

type JobsConfig struct {
	OutboxIntervalMs         int `mapstructure:"outbox_interval_ms"`
	OutboxBatchSize          int `mapstructure:"outbox_batch_size"`
	MaxRetryCount            int `mapstructure:"max_retry_count"`
	ReconcileIntervalSeconds int `mapstructure:"reconcile_interval_seconds"`
}

const EnvPrefix = "DAILYTRACK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.worker_id", 1)
	v.SetDefault("server.gateway_token", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "dailytrack")
	v.SetDefault("database.path", "dailytrack.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic.events", "dailytrack-events")

	v.SetDefault("lock.key", "dailytrack:lock:ledger")
	v.SetDefault("lock.expiration_seconds", 30)
	v.SetDefault("lock.retry_interval_ms", 100)
	v.SetDefault("lock.max_retries", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ledger.issuer", "")

	v.SetDefault("reward.owner", "")
	v.SetDefault("reward.token", "HTO")
	v.SetDefault("reward.address", "")
	v.SetDefault("reward.daily_reward", "1000000000000000000")

	v.SetDefault("exchange.owner", "")
	v.SetDefault("exchange.payment_token", "HTO")
	v.SetDefault("exchange.address", "")
	v.SetDefault("exchange.platform_fee_percent", 500)

	v.SetDefault("jobs.outbox_interval_ms", 100)
	v.SetDefault("jobs.outbox_batch_size", 100)
	v.SetDefault("jobs.max_retry_count", 5)
	v.SetDefault("jobs.reconcile_interval_seconds", 60)
}

// LoadConfig reads the YAML file at configPath. A missing file is not an error: defaults and
// DAILYTRACK_* environment variables are used instead.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a deployment cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Exchange.PlatformFeePercent > 10000 {
		return fmt.Errorf("config: exchange.platform_fee_percent %d exceeds 10000", c.Exchange.PlatformFeePercent)
	}
	if c.Reward.Address != "" && strings.EqualFold(c.Reward.Address, c.Exchange.Address) {
		return fmt.Errorf("config: reward.address and exchange.address must differ, both are %s", c.Reward.Address)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("config: kafka enabled without brokers")
	}
	return nil
}
