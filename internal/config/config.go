package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment  string
	LogLevel     slog.Level
	RedisURL     string
	DataDir      string
	ResponderID  string
	MetricsAddr  string
	TickInterval time.Duration
}

// Load reads configuration from the environment, an optional .env file and
// an optional npc-responder config file in the working directory.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("npc-responder")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("redis_url", "localhost:6379")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("responder_id", "blacksmith")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("tick_interval", "50ms")

	_ = v.BindEnv("environment", "ENVIRONMENT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("data_dir", "DATA_DIR")
	_ = v.BindEnv("responder_id", "RESPONDER_ID")
	_ = v.BindEnv("metrics_addr", "METRICS_ADDR")
	_ = v.BindEnv("tick_interval", "TICK_INTERVAL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	tick, err := time.ParseDuration(v.GetString("tick_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid tick_interval %q: %w", v.GetString("tick_interval"), err)
	}
	if tick <= 0 {
		return nil, fmt.Errorf("tick_interval must be positive, got %s", tick)
	}

	return &Config{
		Environment:  v.GetString("environment"),
		LogLevel:     parseLogLevel(v.GetString("log_level")),
		RedisURL:     v.GetString("redis_url"),
		DataDir:      v.GetString("data_dir"),
		ResponderID:  v.GetString("responder_id"),
		MetricsAddr:  v.GetString("metrics_addr"),
		TickInterval: tick,
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
