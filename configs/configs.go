package configs

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Conf struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	IsProd      bool   `mapstructure:"IS_PROD"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	StoreDriver       string        `mapstructure:"STORE_DRIVER"`
	StoreURI          string        `mapstructure:"STORE_URI"`
	Databases         []string      `mapstructure:"DATABASES"`
	DefaultDatabase   string        `mapstructure:"DEFAULT_DATABASE"`
	MongoTransactions bool          `mapstructure:"MONGO_TRANSACTIONS"`
	BreakerFailures   uint32        `mapstructure:"BREAKER_MAX_FAILURES"`
	BreakerTimeout    time.Duration `mapstructure:"BREAKER_OPEN_TIMEOUT"`
	SnowflakeNode     int64         `mapstructure:"SNOWFLAKE_NODE"`

	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	AMQPURL       string `mapstructure:"AMQP_URL"`
	CommitQueue   string `mapstructure:"COMMIT_QUEUE"`
	OtelCollector string `mapstructure:"OTEL_COLLECTOR"`

	WebServerPort   string        `mapstructure:"WEB_SERVER_PORT"`
	RateLimitRPS    int           `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	DedupTTL     time.Duration `mapstructure:"DEDUP_TTL"`
	MaxRetries   int           `mapstructure:"MAX_RETRIES"`
	RetryBackoff time.Duration `mapstructure:"RETRY_BACKOFF"`
}

var defaults = map[string]any{
	"SERVICE_NAME":         "godata",
	"IS_PROD":              false,
	"LOG_LEVEL":            "",
	"STORE_DRIVER":         "memory",
	"STORE_URI":            "",
	"DATABASES":            "main",
	"DEFAULT_DATABASE":     "",
	"MONGO_TRANSACTIONS":   false,
	"BREAKER_MAX_FAILURES": 5,
	"BREAKER_OPEN_TIMEOUT": "30s",
	"SNOWFLAKE_NODE":       1,
	"REDIS_HOST":           "localhost",
	"REDIS_PORT":           "6379",
	"AMQP_URL":             "",
	"COMMIT_QUEUE":         "data.committed",
	"OTEL_COLLECTOR":       "",
	"WEB_SERVER_PORT":      "8080",
	"RATE_LIMIT_RPS":       50,
	"RATE_LIMIT_BURST":     100,
	"SHUTDOWN_TIMEOUT":     "15s",
	"DEDUP_TTL":            "24h",
	"MAX_RETRIES":          3,
	"RETRY_BACKOFF":        "200ms",
}

// LoadConfig reads <path>/.env when present; environment variables always win.
func LoadConfig(path string) (*Conf, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Conf
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DefaultDatabase == "" && len(cfg.Databases) > 0 {
		cfg.DefaultDatabase = cfg.Databases[0]
	}
	return &cfg, nil
}

func (c *Conf) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
