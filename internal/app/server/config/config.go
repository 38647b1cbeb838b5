package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

var (
	ErrNoDatabaseURL = errors.New("DATABASE_URL is required")
	ErrNoJWTSecret   = errors.New("JWT_SECRET is required")
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Auth   Auth
	Redis  Redis
	Logger Logger
}

// DB описывает подключение и поведение пула соединений.
type DB struct {
	DatabaseURI      string        `env:"DATABASE_URL"`
	Migrations       string        `env:"MIGRATIONS_PATH"`
	MaxConns         int32         `env:"DB_MAX_CONNS"`
	MinConns         int32         `env:"DB_MIN_CONNS"`
	IdleTimeout      time.Duration `env:"DB_IDLE_TIMEOUT"`
	ConnectTimeout   time.Duration `env:"DB_CONNECT_TIMEOUT"`
	AcquireTimeout   time.Duration `env:"DB_ACQUIRE_TIMEOUT"`
	MaxUses          int64         `env:"DB_MAX_USES"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT"`
	RequireTLS       bool          `env:"DB_REQUIRE_TLS"`
	MaxAttempts      int           `env:"DB_MAX_ATTEMPTS"`
	RetryDelay       time.Duration `env:"DB_RETRY_DELAY"`
	MonitorInterval  time.Duration `env:"DB_MONITOR_INTERVAL"`
}

type Server struct {
	RunAddress     string   `env:"RUN_ADDRESS"`
	CORSOrigins    []string `env:"CORS_ORIGINS"`
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
	StaticDir      string   `env:"STATIC_DIR"`
	Timeout        time.Duration
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
	TokenTTL  time.Duration
}

// Redis пустой Addr означает лимитер в памяти процесса.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
}

type Logger struct {
	LogLevel string `env:"LOG_LEVEL"`
}

// MustLoad загружает конфигурацию и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "")
	v.SetDefault("db_max_conns", 3)
	v.SetDefault("db_min_conns", 0)
	v.SetDefault("db_idle_timeout", 10*time.Second)
	v.SetDefault("db_connect_timeout", 5*time.Second)
	v.SetDefault("db_acquire_timeout", 20*time.Second)
	v.SetDefault("db_max_uses", 3000)
	v.SetDefault("db_statement_timeout", 15*time.Second)
	v.SetDefault("db_max_attempts", 3)
	v.SetDefault("db_retry_delay", time.Second)

	env := v.GetString("app_env")
	v.SetDefault("db_require_tls", env == EnvProd)
	if env == EnvProd {
		v.SetDefault("db_monitor_interval", time.Duration(0))
	} else {
		v.SetDefault("db_monitor_interval", 60*time.Second)
	}

	runAddress := v.GetString("run_address")
	if runAddress == "" {
		runAddress = ":" + v.GetString("port")
	}

	cfg := &Config{
		Env: env,
		DB: DB{
			DatabaseURI:      v.GetString("database_url"),
			Migrations:       v.GetString("migrations_path"),
			MaxConns:         v.GetInt32("db_max_conns"),
			MinConns:         v.GetInt32("db_min_conns"),
			IdleTimeout:      v.GetDuration("db_idle_timeout"),
			ConnectTimeout:   v.GetDuration("db_connect_timeout"),
			AcquireTimeout:   v.GetDuration("db_acquire_timeout"),
			MaxUses:          v.GetInt64("db_max_uses"),
			StatementTimeout: v.GetDuration("db_statement_timeout"),
			RequireTLS:       v.GetBool("db_require_tls"),
			MaxAttempts:      v.GetInt("db_max_attempts"),
			RetryDelay:       v.GetDuration("db_retry_delay"),
			MonitorInterval:  v.GetDuration("db_monitor_interval"),
		},
		Server: Server{
			RunAddress:     runAddress,
			CORSOrigins:    splitList(v.GetString("cors_origins")),
			TrustedProxies: splitList(v.GetString("trusted_proxies")),
			StaticDir:      v.GetString("static_dir"),
			Timeout:        30 * time.Second,
		},
		Auth: Auth{
			JWTSecret: v.GetString("jwt_secret"),
			TokenTTL:  time.Hour,
		},
		Redis: Redis{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
		},
		Logger: Logger{LogLevel: v.GetString("log_level")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.DatabaseURI == "" {
		return ErrNoDatabaseURL
	}
	if c.Auth.JWTSecret == "" {
		return ErrNoJWTSecret
	}
	if c.DB.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DB.MaxConns)
	}
	if c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be in [0, %d], got %d", c.DB.MaxConns, c.DB.MinConns)
	}
	if c.DB.MaxAttempts < 1 {
		return fmt.Errorf("DB_MAX_ATTEMPTS must be positive, got %d", c.DB.MaxAttempts)
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
