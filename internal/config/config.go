package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Demo        DemoConfig
	UI          UIConfig
	Chat        ChatConfig
}

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type StorageConfig struct {
	Driver string
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnableMetrics bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

// BufferConfig drives the offline write buffer. Retention bounds how long an
// unreplayed write is kept; MaxItems caps the file.
type BufferConfig struct {
	Path         string
	MaxItems     int
	Retention    time.Duration
	SyncInterval time.Duration
	MaxRetry     int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

type DemoConfig struct {
	Enabled          bool
	ActivitySchedule string
}

type UIConfig struct {
	ToastDuration    time.Duration
	MobileBreakpoint int
	TabletBreakpoint int
}

type ChatConfig struct {
	NotificationPreview int
}

// Load reads configuration from environment variables (optionally .env).
// Unset keys fall back to defaults; malformed values are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var e env
	cfg := &Config{
		AppName:     e.str("APP_NAME", "dealease"),
		Environment: e.str("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          e.str("SERVER_HOST", "0.0.0.0"),
			Port:          e.str("SERVER_PORT", "8080"),
			ReadTimeout:   e.dur("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  e.dur("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   e.dur("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       e.num("SERVER_MAX_CONN", 0),
			EnableMetrics: e.flag("SERVER_ENABLE_METRICS", false),
		},
		Storage: StorageConfig{
			Driver: e.str("STORAGE_DRIVER", StorageMemory),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            e.str("DB_HOST", "localhost"),
			Port:            e.str("DB_PORT", "5432"),
			Name:            e.str("DB_NAME", "dealease"),
			User:            e.str("DB_USER", "dealease"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    e.num("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    e.num("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: e.dur("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         e.str("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  e.flag("REDIS_ENABLED", false),
			URL:      e.str("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       e.num("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     e.str("JWT_ISSUER", "dealease"),
			SessionTTL: e.dur("SESSION_TTL", 24*time.Hour),
		},
		Buffer: BufferConfig{
			Path:         e.str("BOLTDB_PATH", "./data/buffer.db"),
			MaxItems:     e.num("BUFFER_MAX_ITEMS", 100_000),
			Retention:    time.Duration(e.num("BUFFER_RETENTION_HOURS", 24)) * time.Hour,
			SyncInterval: e.dur("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:     e.num("MAX_RETRY_ATTEMPTS", 3),
		},
		Context: ContextConfig{
			RequestTimeout:  e.dur("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: e.dur("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    e.str("LOG_LEVEL", "info"),
			Encoding: e.str("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: e.flag("RUN_MIGRATIONS", true),
			Path:    e.str("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Demo: DemoConfig{
			Enabled:          e.flag("DEMO_MODE", true),
			ActivitySchedule: e.str("DEMO_ACTIVITY_SCHEDULE", "@every 30s"),
		},
		UI: UIConfig{
			ToastDuration:    e.dur("UI_TOAST_DURATION", 5*time.Second),
			MobileBreakpoint: e.num("UI_MOBILE_BREAKPOINT", 768),
			TabletBreakpoint: e.num("UI_TABLET_BREAKPOINT", 1024),
		},
		Chat: ChatConfig{
			NotificationPreview: e.num("CHAT_NOTIFICATION_PREVIEW", 100),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.dsn()
	}
	if cfg.JWT.Secret == "" {
		if cfg.Environment == "production" {
			e.fail("JWT_SECRET", "required in production")
		}
		cfg.JWT.Secret = "dealease-dev-secret"
	}
	switch cfg.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		e.fail("STORAGE_DRIVER", fmt.Sprintf("unknown driver %q", cfg.Storage.Driver))
	}
	if cfg.UI.MobileBreakpoint >= cfg.UI.TabletBreakpoint {
		e.fail("UI_MOBILE_BREAKPOINT", "must be below UI_TABLET_BREAKPOINT")
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.HTTP.Host, c.HTTP.Port)
}

// UsesPostgres reports whether documents are persisted in Postgres.
func (c *Config) UsesPostgres() bool {
	return c.Storage.Driver == StoragePostgres
}

func (d DatabaseConfig) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User, d.Password, net.JoinHostPort(d.Host, d.Port), d.Name, d.SSLMode)
}

// env reads typed variables and collects parse failures.
type env struct {
	errs []error
}

func (e *env) fail(key, reason string) {
	e.errs = append(e.errs, fmt.Errorf("%s: %s", key, reason))
}

func (e *env) str(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func (e *env) num(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		e.fail(key, "not an integer")
		return fallback
	}
	return parsed
}

func (e *env) flag(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		e.fail(key, "not a boolean")
		return fallback
	}
	return parsed
}

// dur accepts Go durations ("90s") or bare seconds ("90").
func (e *env) dur(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(val); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second
	}
	e.fail(key, "not a duration")
	return fallback
}
