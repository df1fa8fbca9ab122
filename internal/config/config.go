package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL           string        `mapstructure:"api_base_url"`
	ClientTimeoutSeconds int64         `mapstructure:"client_timeout_seconds"`
	ClientTimeout        time.Duration `mapstructure:"-"`

	HTTPAddr               string        `mapstructure:"http_addr"`
	ShutdownTimeoutSeconds int64         `mapstructure:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `mapstructure:"-"`

	StorageType    string `mapstructure:"storage_type"`
	BBoltPath      string `mapstructure:"bbolt_path"`
	FixturesFile   string `mapstructure:"fixtures_file"`
	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-articles")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "http://localhost:3333")
	v.SetDefault("client_timeout_seconds", 10)
	v.SetDefault("http_addr", ":3333")
	v.SetDefault("shutdown_timeout_seconds", 10)
	v.SetDefault("storage_type", "memory")
	v.SetDefault("bbolt_path", "./data/articles.db")
	v.SetDefault("fixtures_file", "")
	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}

	if c.ClientTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid client_timeout_seconds (must be positive seconds)")
	}
	c.ClientTimeout = time.Duration(c.ClientTimeoutSeconds) * time.Second

	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid shutdown_timeout_seconds (must be positive seconds)")
	}
	c.ShutdownTimeout = time.Duration(c.ShutdownTimeoutSeconds) * time.Second

	c.StorageType = strings.ToLower(strings.TrimSpace(c.StorageType))
	c.FixturesFile = strings.TrimSpace(c.FixturesFile)
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	return nil
}
