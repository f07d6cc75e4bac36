// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and SHOPAPP_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения, например SHOPAPP_JWT_SECRET
const EnvPrefix = "SHOPAPP"

// MinSecretLen минимальная длина декодированного секрета HMAC
const MinSecretLen = 32

// Upload backends
const (
	UploadBackendDisk = "disk"
	UploadBackendBolt = "bolt"
)

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	APIPrefix       string        `mapstructure:"api_prefix"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type JWTConfig struct {
	Secret            string `mapstructure:"secret"` // base64
	Issuer            string `mapstructure:"issuer"`
	AccessTTLSeconds  int    `mapstructure:"access_ttl_seconds"`
	RefreshTTLSeconds int    `mapstructure:"refresh_ttl_seconds"`
}

// AccessTTL returns access token lifetime
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLSeconds) * time.Second
}

// RefreshTTL returns refresh token lifetime
func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLSeconds) * time.Second
}

type AuthConfig struct {
	MaxSessions     int  `mapstructure:"max_sessions"`
	SerializeLogins bool `mapstructure:"serialize_logins"`
}

type UploadsConfig struct {
	Backend     string `mapstructure:"backend"` // disk | bolt
	Dir         string `mapstructure:"dir"`
	BoltPath    string `mapstructure:"bolt_path"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
	MaxImages   int    `mapstructure:"max_images"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug | info | warn | error
	Format     string `mapstructure:"format"` // text | json
	File       string `mapstructure:"file"`   // пусто - stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type RateLimitConfig struct {
	LoginRequests int           `mapstructure:"login_requests"`
	LoginWindow   time.Duration `mapstructure:"login_window"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the full server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8088")
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "shopapp.db")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "shopapp")
	v.SetDefault("jwt.access_ttl_seconds", 2592000)   // 30 дней
	v.SetDefault("jwt.refresh_ttl_seconds", 5184000) // 60 дней

	v.SetDefault("auth.max_sessions", 3)
	v.SetDefault("auth.serialize_logins", false)

	v.SetDefault("uploads.backend", UploadBackendDisk)
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.bolt_path", "uploads.bolt")
	v.SetDefault("uploads.max_file_size", 10*1024*1024)
	v.SetDefault("uploads.max_images", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("ratelimit.login_requests", 10)
	v.SetDefault("ratelimit.login_window", time.Minute)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration. path may be empty: then ./config.yaml is used when present.
func Load(path string) (*Config, error) {
	// .env не обязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &c, nil
}

// Validate checks values that would make the server unusable
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	} else {
		secret, err := base64.StdEncoding.DecodeString(c.JWT.Secret)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("jwt.secret must be base64: %w", err))
		case len(secret) < MinSecretLen:
			errs = append(errs, fmt.Errorf("jwt.secret must decode to at least %d bytes", MinSecretLen))
		}
	}

	if c.JWT.AccessTTLSeconds <= 0 {
		errs = append(errs, errors.New("jwt.access_ttl_seconds must be positive"))
	}
	if c.JWT.RefreshTTLSeconds <= 0 {
		errs = append(errs, errors.New("jwt.refresh_ttl_seconds must be positive"))
	}
	if c.Auth.MaxSessions <= 0 {
		errs = append(errs, errors.New("auth.max_sessions must be positive"))
	}

	switch c.Uploads.Backend {
	case UploadBackendDisk, UploadBackendBolt:
	default:
		errs = append(errs, fmt.Errorf("uploads.backend %q is not supported", c.Uploads.Backend))
	}
	if c.Uploads.MaxFileSize <= 0 {
		errs = append(errs, errors.New("uploads.max_file_size must be positive"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not supported", c.Log.Format))
	}

	if c.RateLimit.LoginRequests <= 0 || c.RateLimit.LoginWindow <= 0 {
		errs = append(errs, errors.New("ratelimit.login_requests and ratelimit.login_window must be positive"))
	}

	return errors.Join(errs...)
}
