package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var (
	ErrEmptyDatabaseURL = errors.New("database url is required")
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	JokeAPI  JokeAPIConfig  `yaml:"joke_api"`
	NATS     NATSConfig     `yaml:"nats"`
	Bot      BotConfig      `yaml:"bot"`
	Health   HealthConfig   `yaml:"health"`
}

type AppConfig struct {
	Name        string `yaml:"name" env:"APP_NAME" env-default:"jokes-web"`
	Environment string `yaml:"environment" env:"APP_ENVIRONMENT" env-default:"production"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"PORT" env-default:"3000"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func (h HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", h.Port)
}

type DatabaseConfig struct {
	URL            string `yaml:"url" env:"DATABASE_URL"`
	MaxConnections int    `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"10"`
	MinConnections int    `yaml:"min_connections" env:"DB_MIN_CONNECTIONS" env-default:"1"`
	AutoMigrate    bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"false"`
}

func (d DatabaseConfig) ConnectionString() string {
	return d.URL
}

type JokeAPIConfig struct {
	BaseURL  string        `yaml:"base_url" env:"JOKE_API_BASE_URL" env-default:"https://official-joke-api.appspot.com"`
	Category string        `yaml:"category" env:"JOKE_API_CATEGORY" env-default:"programming"`
	Timeout  time.Duration `yaml:"timeout" env:"JOKE_API_TIMEOUT" env-default:"10s"`
}

type NATSConfig struct {
	URL        string `yaml:"url" env:"NATS_URL"`
	StreamName string `yaml:"stream_name" env:"NATS_STREAM_NAME" env-default:"JOKES"`
}

func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

type BotConfig struct {
	Token     string `yaml:"token" env:"BOT_TOKEN"`
	ChannelID int64  `yaml:"channel_id" env:"BOT_CHANNEL_ID"`
}

func (b BotConfig) Enabled() bool {
	return b.Token != ""
}

type HealthConfig struct {
	Endpoint string `yaml:"endpoint" env:"HEALTH_ENDPOINT" env-default:"/healthz"`
}

// Load reads .env (if present), then either the YAML file named by
// CONFIG_PATH or the process environment. Environment variables always win.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if cfg.Database.URL == "" {
		return nil, ErrEmptyDatabaseURL
	}

	return &cfg, nil
}

// LoadDotEnv loads environment variables from path if the file exists.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
