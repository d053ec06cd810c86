// Package config loads and validates the sectiond configuration: a YAML
// file with defaults applied, then SECTIOND_* environment overrides
// (optionally sourced from a .env file).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Content     ContentConfig     `yaml:"content"`
	Propagation PropagationConfig `yaml:"propagation"`
	Watch       WatchConfig       `yaml:"watch"`
	Reseed      ReseedConfig      `yaml:"reseed"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`       // public resolution API
	AdminPort int    `yaml:"admin_port"` // health + metrics
	AuthToken string `yaml:"auth_token"` // bearer token for privileged routes
}

// ContentConfig holds resolution settings.
type ContentConfig struct {
	SourceRoots       []string `yaml:"source_roots"`
	DBPath            string   `yaml:"db_path"`
	PrimaryLanguage   string   `yaml:"primary_language"`
	SecondaryLanguage string   `yaml:"secondary_language"`
}

// PropagationConfig holds the shared update channel settings.
type PropagationConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// WatchConfig controls the source document watcher.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReseedConfig controls the scheduled full re-scrape.
type ReseedConfig struct {
	Schedule string   `yaml:"schedule"` // cron expression; empty disables
	Pages    []string `yaml:"pages"`
}

// Load reads the configuration file, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	// Missing .env files are expected; only process-env overrides apply then.
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path) // #nosec G304 - path is the operator-supplied config file
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		// No config file: run entirely on defaults and environment.
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.AdminPort == 0 {
		c.Server.AdminPort = 8081
	}
	if len(c.Content.SourceRoots) == 0 {
		c.Content.SourceRoots = []string{".", "public", "dist", "views"}
	}
	if c.Content.DBPath == "" {
		c.Content.DBPath = "sections.db"
	}
	if c.Content.PrimaryLanguage == "" {
		c.Content.PrimaryLanguage = "en"
	}
	if c.Content.SecondaryLanguage == "" {
		c.Content.SecondaryLanguage = "ta"
	}
	if c.Propagation.NATSURL == "" {
		c.Propagation.NATSURL = "nats://127.0.0.1:4222"
	}
	if c.Propagation.Subject == "" {
		c.Propagation.Subject = "sectiond.content.update"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SECTIOND_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}
	if v := os.Getenv("SECTIOND_DB_PATH"); v != "" {
		c.Content.DBPath = v
	}
	if v := os.Getenv("SECTIOND_NATS_URL"); v != "" {
		c.Propagation.NATSURL = v
	}
	if v := os.Getenv("SECTIOND_SOURCE_ROOTS"); v != "" {
		roots := strings.Split(v, ",")
		for i := range roots {
			roots[i] = strings.TrimSpace(roots[i])
		}
		c.Content.SourceRoots = roots
	}
}

func (c *Config) validate() error {
	if c.Server.Port == c.Server.AdminPort {
		return fmt.Errorf("server port and admin port must differ (both %d)", c.Server.Port)
	}
	if c.Content.PrimaryLanguage == c.Content.SecondaryLanguage {
		return fmt.Errorf("primary and secondary language must differ (both %q)", c.Content.PrimaryLanguage)
	}
	if c.Reseed.Schedule != "" && len(c.Reseed.Pages) == 0 {
		return fmt.Errorf("reseed schedule set but no pages configured")
	}
	return nil
}
