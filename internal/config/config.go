package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode     string `mapstructure:"mode"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	PongWait     time.Duration `mapstructure:"pong_wait"`
	WriteWait    time.Duration `mapstructure:"write_wait"`
	SendQueue    int           `mapstructure:"send_queue"`
	Backpressure string        `mapstructure:"backpressure"`

	GCInterval     time.Duration `mapstructure:"gc_interval"`
	EventRetention time.Duration `mapstructure:"event_retention"`
	InviteTTL      time.Duration `mapstructure:"invite_ttl"`

	DBURL       string        `mapstructure:"db_url"`
	DBTimeout   time.Duration `mapstructure:"db_timeout"`
	RedisURL    string        `mapstructure:"redis_url"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`

	InviteRateLimit  int           `mapstructure:"invite_rate_limit"`
	InviteRateWindow time.Duration `mapstructure:"invite_rate_window"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Healthcheck runs the liveness probe instead of the server.
	Healthcheck bool `mapstructure:"healthcheck"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 9001)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_queue", 256)
	v.SetDefault("backpressure", "disconnect")
	v.SetDefault("gc_interval", "1h")
	v.SetDefault("event_retention", "720h")
	v.SetDefault("invite_ttl", "720h")
	v.SetDefault("db_url", "")
	v.SetDefault("db_timeout", "5s")
	v.SetDefault("redis_url", "")
	v.SetDefault("presence_ttl", "120s")
	v.SetDefault("invite_rate_limit", 60)
	v.SetDefault("invite_rate_window", "1m")
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("healthcheck", false)
}

// Load reads defaults, then config/config.<CONFIG_ENV>.yaml (or --config),
// then RELAY_* environment variables, then command-line flags.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	fs.Bool("healthcheck", false, "probe the local port and exit 0 if a server holds it")
	fs.Int("port", 9001, "listen port")
	configPath := fs.String("config", "", "path to a yaml config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	fileName := *configPath
	explicit := fileName != ""
	if !explicit {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if explicit || !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("db_url", "RELAY_DB_URL", "SIGNALING_DB_URL")
	_ = v.BindEnv("redis_url", "RELAY_REDIS_URL", "SIGNALING_REDIS_URL")

	for _, name := range []string{"port", "healthcheck"} {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(name, f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	switch c.Backpressure {
	case "disconnect", "drop":
	default:
		return fmt.Errorf("invalid backpressure %q", c.Backpressure)
	}
	if c.PongWait <= c.PingPeriod {
		return fmt.Errorf("pong_wait (%s) must exceed ping_period (%s)", c.PongWait, c.PingPeriod)
	}
	return nil
}

// Level returns the configured zerolog level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
