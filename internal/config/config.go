package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config models formportal.yml.
type Config struct {
	Server struct {
		Addr      string `yaml:"addr"`
		BasePath  string `yaml:"base_path"`
		RateLimit int    `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Forms struct {
		// Path points at a JSON or YAML file of form definitions, or an
		// OpenAPI document when the openapi flag is set.
		Path    string `yaml:"path"`
		OpenAPI bool   `yaml:"openapi"`
	} `yaml:"forms"`
	Drafts struct {
		// Backend is "memory" or "redis".
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"drafts"`
	Data struct {
		Dir string `yaml:"dir"`
	} `yaml:"data"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8087"
	cfg.Server.RateLimit = 100
	cfg.Log.Level = "info"
	cfg.Drafts.Backend = "memory"
	cfg.Data.Dir = "."
	return cfg
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return FromYAML(data)
}

// FromYAML decodes configuration on top of the defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	switch c.Drafts.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("config: drafts.backend must be memory or redis, got %q", c.Drafts.Backend)
	}
	if c.Drafts.Backend == "redis" && c.Drafts.Redis.Addr == "" {
		return fmt.Errorf("config: drafts.redis.addr is required for the redis backend")
	}
	return nil
}
