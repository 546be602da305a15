// Package config loads server configuration from defaults, an optional
// YAML file and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"staticfund-api/internal/cache"
	"staticfund-api/internal/llm"
	"staticfund-api/internal/ratelimit"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Gemini    GeminiConfig     `yaml:"gemini"`
	Auth      AuthConfig       `yaml:"auth"`
	Cache     CacheConfig      `yaml:"cache"`
	RateLimit ratelimit.Config `yaml:"rate_limit"`
	CORS      CORSConfig       `yaml:"cors"`
	Backup    BackupConfig     `yaml:"backup"`
}

type ServerConfig struct {
	Port              string        `yaml:"port" validate:"required,numeric"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gt=0"`
	ReadTimeout       time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	// RequestTimeout bounds a single handler, AI calls included.
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"min=1024"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type GeminiConfig struct {
	BaseURL         string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout" validate:"gte=0"`
	MaxRetries      int           `yaml:"max_retries" validate:"gte=0,lte=5"`
}

// LLM converts the section into a client config.
func (g GeminiConfig) LLM() llm.Config {
	return llm.Config{
		BaseURL:         g.BaseURL,
		APIKey:          g.APIKey,
		Model:           g.Model,
		UpstreamTimeout: g.UpstreamTimeout,
		MaxRetries:      g.MaxRetries,
	}
}

type AuthConfig struct {
	// JWTSecret is checked when the server starts; CLI maintenance
	// commands run without one.
	JWTSecret  string        `yaml:"jwt_secret" validate:"omitempty,min=16"`
	TokenTTL   time.Duration `yaml:"token_ttl" validate:"gt=0"`
	BcryptCost int           `yaml:"bcrypt_cost" validate:"min=4,max=31"`
}

type CacheConfig struct {
	Tips         cache.Config `yaml:"tips"`
	Habits       cache.Config `yaml:"habits"`
	Completeness cache.Config `yaml:"completeness"`
	SolarQuotes  cache.Config `yaml:"solar_quotes"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type BackupConfig struct {
	Dir  string `yaml:"dir" validate:"required"`
	Keep int    `yaml:"keep" validate:"min=1"`
	// Schedule is a cron expression; empty disables scheduled backups.
	Schedule string `yaml:"schedule"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "5001",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       120 * time.Second,
			RequestTimeout:    75 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxBodyBytes:      50 << 20,
		},
		Database: DatabaseConfig{Path: "staticfund.db"},
		Gemini: GeminiConfig{
			BaseURL: llm.DefaultBaseURL,
			Model:   llm.DefaultModel,
		},
		Auth: AuthConfig{
			TokenTTL:   7 * 24 * time.Hour,
			BcryptCost: 10,
		},
		Cache: CacheConfig{
			Tips:         cache.Config{Capacity: 50, TTL: time.Hour},
			Habits:       cache.Config{Capacity: 50, TTL: 24 * time.Hour},
			Completeness: cache.Config{Capacity: 30, TTL: 30 * time.Minute},
			SolarQuotes:  cache.Config{Capacity: 30, TTL: 6 * time.Hour},
		},
		RateLimit: ratelimit.Config{
			Backend:     ratelimit.BackendMemory,
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "staticfund",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8081"},
		},
		Backup: BackupConfig{
			Dir:      "backups",
			Keep:     7,
			Schedule: "0 3 * * *",
		},
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &cfg.Server.Port)
	str("DB_PATH", &cfg.Database.Path)
	str("GOOGLE_API_KEY", &cfg.Gemini.APIKey)
	str("GEMINI_MODEL", &cfg.Gemini.Model)
	str("GEMINI_BASE_URL", &cfg.Gemini.BaseURL)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("RATE_LIMIT_BACKEND", &cfg.RateLimit.Backend)
	str("REDIS_ADDR", &cfg.RateLimit.RedisAddr)
	str("BACKUP_DIR", &cfg.Backup.Dir)

	// An explicitly empty schedule turns scheduled backups off.
	if v, ok := lookup("BACKUP_SCHEDULE"); ok {
		cfg.Backup.Schedule = v
	}

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}

	if v, ok := lookup("GEMINI_MAX_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GEMINI_MAX_RETRIES: %w", err)
		}
		cfg.Gemini.MaxRetries = n
	}

	return nil
}
