package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerURL = "http://localhost:3000"
	defaultEnv       = "local"
	defaultConfigDir = ".excelkeeper"
	defaultTimeout   = 60 * time.Second
	dataFile         = "client.db"
)

var ErrNoServerURL = errors.New("server_url не может быть пустым")

type Config struct {
	Env       string
	ServerURL string
	LogLevel  string
	ConfigDir string
	DataPath  string
	Timeout   time.Duration
}

// DefaultDir каталог конфигурации в домашней директории пользователя.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, defaultConfigDir)
}

// Load собирает конфигурацию из .env, файла конфигурации (если v его прочитал) и окружения.
func Load(v *viper.Viper) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("server_url", defaultServerURL)
	v.SetDefault("log_level", "")
	v.SetDefault("config_dir", DefaultDir())
	v.SetDefault("request_timeout", defaultTimeout)

	configDir := v.GetString("config_dir")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	dataPath := v.GetString("data_path")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, dataFile)
	}

	cfg := &Config{
		Env:       v.GetString("app_env"),
		ServerURL: strings.TrimRight(strings.TrimSpace(v.GetString("server_url")), "/"),
		LogLevel:  v.GetString("log_level"),
		ConfigDir: configDir,
		DataPath:  dataPath,
		Timeout:   v.GetDuration("request_timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return ErrNoServerURL
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("некорректный server_url %q", c.ServerURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("request_timeout должен быть положительным")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
