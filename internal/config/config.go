package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Training  TrainingConfig  `mapstructure:"training"`
	Model     ModelConfig     `mapstructure:"model"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Addr returns host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// TrainingConfig 训练配置
type TrainingConfig struct {
	CSVPath         string  `mapstructure:"csv_path"`
	TrainOnStartup  bool    `mapstructure:"train_on_startup"`
	HoldoutFraction float64 `mapstructure:"holdout_fraction"`
	Seed            int64   `mapstructure:"seed"`
}

// ModelConfig 分类器配置
type ModelConfig struct {
	MaxIter   int     `mapstructure:"max_iter"`
	C         float64 `mapstructure:"c"`
	Tolerance float64 `mapstructure:"tolerance"`
	Balanced  bool    `mapstructure:"balanced"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load 加载配置. An empty configPath or a missing file falls back to
// defaults and environment variables (e.g. SERVER_PORT, TRAINING_CSV_PATH).
func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configPath); !errors.Is(statErr, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Training.HoldoutFraction < 0 || cfg.Training.HoldoutFraction >= 1 {
		return nil, fmt.Errorf("training.holdout_fraction must be in [0, 1), got %v", cfg.Training.HoldoutFraction)
	}

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.path", "./data/flights.db")

	v.SetDefault("training.csv_path", "")
	v.SetDefault("training.train_on_startup", false)
	v.SetDefault("training.holdout_fraction", 0.33)
	v.SetDefault("training.seed", 42)

	v.SetDefault("model.max_iter", 1000)
	v.SetDefault("model.c", 1.0)
	v.SetDefault("model.tolerance", 1e-4)
	v.SetDefault("model.balanced", true)

	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window_seconds", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}
