package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Data struct {
		Dir string `yaml:"dir"`
	} `yaml:"data"`
	Sources struct {
		Primary struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"primary"`
		Secondary struct {
			BaseURL   string        `yaml:"base_url"`
			UserAgent string        `yaml:"user_agent"`
			Timeout   time.Duration `yaml:"timeout"`
		} `yaml:"secondary"`
	} `yaml:"sources"`
	Model struct {
		BaseURL    string        `yaml:"base_url"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxContext int           `yaml:"max_context"`
		TopK       int           `yaml:"top_k"`
	} `yaml:"model"`
	Forecast struct {
		Workers        int           `yaml:"workers"`
		BoundaryMargin float64       `yaml:"boundary_margin"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
		Redis          struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"forecast"`
	Recorder struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"recorder"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("MODEL_BASE_URL"); v != "" {
		c.Model.BaseURL = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Forecast.Redis.Enabled = true
		c.Forecast.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Forecast.Redis.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, perr := strconv.Atoi(v); perr == nil {
			c.Server.Port = port
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Model.BaseURL == "" {
		return fmt.Errorf("model.base_url is required")
	}
	if c.Sources.Primary.BaseURL == "" && c.Sources.Secondary.BaseURL == "" {
		return fmt.Errorf("at least one of sources.primary.base_url or sources.secondary.base_url is required")
	}
	if c.Forecast.Redis.Enabled && c.Forecast.Redis.Addr == "" {
		return fmt.Errorf("forecast.redis.addr is required when redis is enabled")
	}
	return nil
}
