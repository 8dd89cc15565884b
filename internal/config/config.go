// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JakeFAU/company-registry-scraper/internal/cache"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	DB       DBConfig       `mapstructure:"db"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// UpstreamConfig describes the registry site and how politely it is contacted.
type UpstreamConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	SearchPath       string        `mapstructure:"search_path"`
	SearchAction     string        `mapstructure:"search_action"`
	RequestDelay     time.Duration `mapstructure:"request_delay"`
	SearchTimeout    time.Duration `mapstructure:"search_timeout"`
	PageTimeout      time.Duration `mapstructure:"page_timeout"`
	UserAgents       []string      `mapstructure:"user_agents"`
	AcceptLanguage   string        `mapstructure:"accept_language"`
	CloudflareBypass bool          `mapstructure:"cloudflare_bypass"`
	MaxBodyBytes     int           `mapstructure:"max_body_bytes"`
}

// CacheConfig selects the record cache backend.
type CacheConfig struct {
	Provider string        `mapstructure:"provider"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DBConfig controls access to the Postgres cache.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// SQLiteConfig locates the SQLite cache file.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from .env, disk and environment, in increasing precedence.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("upstream.base_url", "https://www.rusprofile.ru")
	v.SetDefault("upstream.search_path", "/ajax.php")
	v.SetDefault("upstream.search_action", "search")
	v.SetDefault("upstream.request_delay", 2500*time.Millisecond)
	v.SetDefault("upstream.search_timeout", 15*time.Second)
	v.SetDefault("upstream.page_timeout", 20*time.Second)
	v.SetDefault("upstream.user_agents", []string{})
	v.SetDefault("upstream.accept_language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("upstream.cloudflare_bypass", false)
	v.SetDefault("upstream.max_body_bytes", 8<<20)
	v.SetDefault("cache.provider", cache.ProviderSQLite)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "organizations")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime", time.Hour)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("sqlite.path", "registry-cache.db")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL")
	}
	if c.Upstream.RequestDelay < 0 {
		return fmt.Errorf("upstream.request_delay must be >= 0")
	}
	if c.Upstream.SearchTimeout <= 0 || c.Upstream.PageTimeout <= 0 {
		return fmt.Errorf("upstream timeouts must be > 0")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	switch c.Cache.Provider {
	case cache.ProviderPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when cache.provider is postgres")
		}
	case cache.ProviderSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path must be set when cache.provider is sqlite")
		}
	case cache.ProviderMemory, cache.ProviderNone:
	default:
		return fmt.Errorf("cache.provider %q is not supported", c.Cache.Provider)
	}
	return nil
}
