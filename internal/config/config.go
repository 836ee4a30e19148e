package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"stake-bet-watcher/internal/logging"
	"stake-bet-watcher/internal/stake"
)

// Config materialises application configuration.
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Logging logging.Config `mapstructure:"logging"`
	Stake   StakeConfig    `mapstructure:"stake"`
	Watcher WatcherConfig  `mapstructure:"watcher"`
	Seen    SeenConfig     `mapstructure:"seen"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name string `mapstructure:"name"`
}

// StakeConfig covers the GraphQL endpoint and request headers.
type StakeConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Referer        string        `mapstructure:"referer"`
	Origin         string        `mapstructure:"origin"`
	UserAgent      string        `mapstructure:"user_agent"`
	AccessToken    string        `mapstructure:"access_token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

// WatcherConfig governs polling cadence and the report threshold.
type WatcherConfig struct {
	MinUSD   float64       `mapstructure:"min_usd"`
	Interval time.Duration `mapstructure:"interval"`
	PageSize int           `mapstructure:"page_size"`
	Lookback time.Duration `mapstructure:"lookback"`
	// StartupDelay postpones the first poll; AlignToInterval puts later polls
	// on wall-clock multiples of Interval.
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	AlignToInterval bool          `mapstructure:"align_to_interval"`
}

// SeenConfig selects where bet ids from earlier cycles are tracked.
type SeenConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// MetricsConfig 控制 Prometheus 指标端口，留空则不启动。
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STAKEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("stake.access_token", "STAKEWATCH_STAKE_ACCESS_TOKEN", "STAKE_API_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stakewatch")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("stake.endpoint", "https://api.stake.com/graphql")
	v.SetDefault("stake.referer", "https://stake.com/")
	v.SetDefault("stake.origin", "https://stake.com")
	v.SetDefault("stake.user_agent", "stakewatch/1.0")
	v.SetDefault("stake.request_timeout", "30s")
	v.SetDefault("stake.max_retries", 0)
	v.SetDefault("stake.retry_backoff", "1s")

	v.SetDefault("watcher.min_usd", 1000.0)
	v.SetDefault("watcher.interval", "60s")
	v.SetDefault("watcher.page_size", stake.MaxPageSize)
	v.SetDefault("watcher.lookback", "0s")
	v.SetDefault("watcher.startup_delay", "0s")
	v.SetDefault("watcher.align_to_interval", false)

	v.SetDefault("seen.backend", BackendMemory)
	v.SetDefault("seen.redis_addr", "localhost:6379")
	v.SetDefault("seen.redis_password", "")
	v.SetDefault("seen.redis_db", 0)
	v.SetDefault("seen.key_prefix", "stakewatch:seen")

	v.SetDefault("metrics.listen_addr", "")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Stake.Endpoint == "" {
		return fmt.Errorf("stake.endpoint must be set")
	}
	if c.Stake.RequestTimeout <= 0 {
		return fmt.Errorf("stake.request_timeout must be greater than zero")
	}
	if c.Stake.MaxRetries < 0 {
		return fmt.Errorf("stake.max_retries cannot be negative")
	}
	if math.IsNaN(c.Watcher.MinUSD) || math.IsInf(c.Watcher.MinUSD, 0) {
		return fmt.Errorf("watcher.min_usd must be a finite number")
	}
	if c.Watcher.MinUSD < 0 {
		return fmt.Errorf("watcher.min_usd cannot be negative")
	}
	if c.Watcher.Interval <= 0 {
		return fmt.Errorf("watcher.interval must be greater than zero")
	}
	if c.Watcher.PageSize < 1 || c.Watcher.PageSize > stake.MaxPageSize {
		return fmt.Errorf("watcher.page_size must be within 1..%d", stake.MaxPageSize)
	}
	if c.Watcher.Lookback < 0 {
		return fmt.Errorf("watcher.lookback cannot be negative")
	}
	if c.Watcher.StartupDelay < 0 {
		return fmt.Errorf("watcher.startup_delay cannot be negative")
	}
	switch c.Seen.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Seen.RedisAddr == "" {
			return fmt.Errorf("seen.redis_addr 必须配置")
		}
	default:
		return fmt.Errorf("seen.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Seen.Backend)
	}
	return nil
}

// ResolveMinUSD returns the CLI override when set, otherwise the configured value.
func (c *Config) ResolveMinUSD(override float64, set bool) float64 {
	if set {
		return override
	}
	return c.Watcher.MinUSD
}

// ResolveInterval converts a whole-second CLI override, falling back to config.
func (c *Config) ResolveInterval(seconds int, set bool) time.Duration {
	if set {
		return time.Duration(seconds) * time.Second
	}
	return c.Watcher.Interval
}
