// Package serverconfig loads the development API server configuration:
// defaults, then an optional YAML file, then MEMESHARE_* environment
// variables, then validation.
package serverconfig

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string        `yaml:"addr"`
	DBPath         string        `yaml:"db_path"`
	UploadDir      string        `yaml:"upload_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
	MCP            bool          `yaml:"mcp"`
	RateLimits     RateLimits    `yaml:"rate_limits"`
	Breaker        Breaker       `yaml:"breaker"`
	UserCache      UserCache     `yaml:"user_cache"`

	// EphemeralSecret is set when no secret was configured and one was
	// generated. The server then swaps in the secret stored in the
	// database so tokens survive a restart.
	EphemeralSecret bool `yaml:"-"`
}

type RateLimits struct {
	ReadsPerMinute int `yaml:"reads_per_minute"`
	WritesPerHour  int `yaml:"writes_per_hour"`
	UploadsPerHour int `yaml:"uploads_per_hour"`
	AuthPerMinute  int `yaml:"auth_per_minute"`
}

// Breaker configures the circuit breaker in front of the store.
type Breaker struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

type UserCache struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

func Default() *Config {
	return &Config{
		Addr:           ":5000",
		DBPath:         "./memeshare.db",
		UploadDir:      "./uploads",
		MaxUploadBytes: 5 << 20,
		TokenTTL:       7 * 24 * time.Hour,
		CORSOrigins:    []string{"http://localhost:3000"},
		LogLevel:       "info",
		LogJSON:        true,
		MCP:            true,
		RateLimits: RateLimits{
			ReadsPerMinute: 600,
			WritesPerHour:  300,
			UploadsPerHour: 30,
			AuthPerMinute:  20,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
		UserCache: UserCache{
			Size: 1024,
			TTL:  time.Minute,
		},
	}
}

// Load builds the configuration. path may be empty; a named file that does
// not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
		cfg.EphemeralSecret = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString("MEMESHARE_ADDR", &c.Addr)
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("MEMESHARE_ADDR") == "" {
		c.Addr = ":" + port
	}
	setString("MEMESHARE_DB", &c.DBPath)
	setString("MEMESHARE_UPLOAD_DIR", &c.UploadDir)
	setString("MEMESHARE_JWT_SECRET", &c.JWTSecret)
	setString("MEMESHARE_LOG_LEVEL", &c.LogLevel)
	if v := strings.TrimSpace(os.Getenv("MEMESHARE_CORS_ORIGINS")); v != "" {
		c.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("MEMESHARE_LOG_JSON")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MEMESHARE_LOG_JSON: %w", err)
		}
		c.LogJSON = b
	}
	if v := strings.TrimSpace(os.Getenv("MEMESHARE_TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MEMESHARE_TOKEN_TTL: %w", err)
		}
		c.TokenTTL = d
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		errs = append(errs, errors.New("upload_dir is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt_secret must be at least 16 characters"))
	}
	if c.TokenTTL < time.Minute {
		errs = append(errs, errors.New("token_ttl must be at least 1m"))
	}
	if c.Breaker.MaxFailures == 0 {
		errs = append(errs, errors.New("breaker.max_failures must be positive"))
	}
	if c.UserCache.Size <= 0 {
		errs = append(errs, errors.New("user_cache.size must be positive"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(errs...)
}

func randomSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
