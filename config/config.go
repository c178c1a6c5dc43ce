package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 总配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
}

type ServerConfig struct {
	Name        string   `mapstructure:"name" validate:"required"`
	Addr        string   `mapstructure:"addr" validate:"required"`
	Mode        string   `mapstructure:"mode" validate:"oneof=debug release test"`
	StaticDir   string   `mapstructure:"static_dir"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN         string `mapstructure:"dsn" validate:"required"`
	MaxOpen     int    `mapstructure:"max_open_conns"`
	MaxIdle     int    `mapstructure:"max_idle_conns"`
	MaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	Seed        bool   `mapstructure:"seed"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	LikeCountTTL time.Duration `mapstructure:"like_count_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type RateLimitConfig struct {
	RPS   float64       `mapstructure:"rps" validate:"gte=0"`
	Burst int           `mapstructure:"burst" validate:"gte=0"`
	TTL   time.Duration `mapstructure:"ttl"`
}

// RealtimeConfig websocket 连接参数
type RealtimeConfig struct {
	WriteWait  time.Duration `mapstructure:"write_wait"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	SendBuffer int           `mapstructure:"send_buffer" validate:"gt=0"`
}

type DispatchConfig struct {
	RestartDelay      time.Duration `mapstructure:"restart_delay"`
	NotificationLimit int           `mapstructure:"notification_limit" validate:"gt=0"`
}

const envPrefix = "LIKEFEED"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "likefeed")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.sqlite")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.like_count_ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "dev")

	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.ttl", 10*time.Minute)

	v.SetDefault("realtime.write_wait", 5*time.Second)
	v.SetDefault("realtime.pong_wait", 60*time.Second)
	v.SetDefault("realtime.ping_period", 30*time.Second)
	v.SetDefault("realtime.read_limit", 64<<10)
	v.SetDefault("realtime.send_buffer", 64)

	v.SetDefault("dispatch.restart_delay", time.Second)
	v.SetDefault("dispatch.notification_limit", 20)
}

// Load 读取 config/config.yaml（可选），环境变量覆盖，例如：
//
//	LIKEFEED_SERVER_ADDR     覆盖 server.addr
//	LIKEFEED_DATABASE_DSN    覆盖 database.dsn
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom 与 Load 相同，但可以指定配置文件路径；为空时按约定目录查找。
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
