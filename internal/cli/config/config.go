package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"memeshare/internal/models"
)

const (
	DirName       = ".memeshare"
	FileName      = "config.json"
	EnvAPIURL     = "MEMESHARE_API_URL"
	DefaultAPIURL = "http://localhost:5000/api"
)

type Config struct {
	Version       int               `json:"version"`
	DefaultServer string            `json:"default_server"`
	Servers       map[string]Server `json:"servers"`
	Preferences   map[string]string `json:"preferences,omitempty"`
}

// Server is one API endpoint and the session held against it.
type Server struct {
	URL        string       `json:"url"`
	Token      string       `json:"token,omitempty"`
	User       *models.User `json:"user,omitempty"`
	LoggedInAt string       `json:"logged_in_at,omitempty"`
}

// Path returns the nearest ./.memeshare/config.json walking up from the
// working directory, falling back to ~/.memeshare/config.json.
func Path() (string, error) {
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for {
			candidate := filepath.Join(dir, DirName, FileName)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName, FileName), nil
}

func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(p)
}

func LoadFromPath(p string) (*Config, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{
				Version:       1,
				DefaultServer: "main",
				Servers:       map[string]Server{},
				Preferences: map[string]string{
					"default_format": "table",
				},
			}, nil
		}
		return nil, err
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", p, err)
	}
	if c.Servers == nil {
		c.Servers = map[string]Server{}
	}
	if c.DefaultServer == "" {
		c.DefaultServer = "main"
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return &c, nil
}

func Save(c *Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(p, c)
}

// SaveToPath writes c with owner-only permissions since it holds the token.
func SaveToPath(p string, c *Config) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, append(b, '\n'), 0o600)
}

func (c *Config) Default() (Server, bool) {
	s, ok := c.Servers[c.DefaultServer]
	return s, ok
}

// SetSession records a login against the default server.
func (c *Config) SetSession(url, token string, user *models.User) {
	if c.Servers == nil {
		c.Servers = map[string]Server{}
	}
	s := c.Servers[c.DefaultServer]
	if url != "" {
		s.URL = url
	}
	s.Token = token
	s.User = user
	s.LoggedInAt = ""
	if token != "" {
		s.LoggedInAt = time.Now().UTC().Format(time.RFC3339)
	}
	c.Servers[c.DefaultServer] = s
}

// ClearSession drops the token and cached user but keeps the server URL.
func (c *Config) ClearSession() {
	c.SetSession("", "", nil)
}

func (c *Config) Preference(key string) string {
	return c.Preferences[key]
}

// LoadEnv reads a .env file from the working directory if present. Variables
// already set in the environment win.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load(".env")
}

// BaseURL resolves the API base URL: explicit value, then MEMESHARE_API_URL,
// then the stored server, then the local development default.
func BaseURL(c *Config, explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		return v
	}
	if c != nil {
		if s, ok := c.Default(); ok && strings.TrimSpace(s.URL) != "" {
			return s.URL
		}
	}
	return DefaultAPIURL
}

// FileStore persists session changes into the config file at Path.
type FileStore struct {
	Path   string
	Config *Config
}

func (f *FileStore) SaveSession(token string, user *models.User) error {
	if f.Config == nil {
		cfg, err := LoadFromPath(f.Path)
		if err != nil {
			return err
		}
		f.Config = cfg
	}
	f.Config.SetSession("", token, user)
	return SaveToPath(f.Path, f.Config)
}
