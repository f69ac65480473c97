package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "hammer.yaml"

// Config is the settings shared by the web client, the CLI and the dev backend.
type Config struct {
	Client struct {
		Addr          string        `yaml:"addr" env:"CLIENT_ADDR"`
		APIBaseURL    string        `yaml:"api_base_url" env:"API_BASE_URL"`
		APITimeout    time.Duration `yaml:"api_timeout" env:"API_TIMEOUT"`
		ReadTimeout   time.Duration `yaml:"read_timeout" env:"CLIENT_READ_TIMEOUT"`
		WriteTimeout  time.Duration `yaml:"write_timeout" env:"CLIENT_WRITE_TIMEOUT"`
		SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET"`
		SessionTTL    time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
		SecureCookies bool          `yaml:"secure_cookies" env:"SECURE_COOKIES"`
	} `yaml:"client"`

	DevAPI struct {
		Addr            string `yaml:"addr" env:"DEVAPI_ADDR"`
		TeacherUsername string `yaml:"teacher_username" env:"DEVAPI_USERNAME"`
		TeacherPassword string `yaml:"teacher_password" env:"DEVAPI_PASSWORD"`
	} `yaml:"devapi"`

	CLI struct {
		SessionFile string `yaml:"session_file" env:"HAMMER_SESSION_FILE"`
		OutputDir   string `yaml:"output_dir" env:"HAMMER_OUTPUT_DIR"`
	} `yaml:"cli"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Pretty bool   `yaml:"pretty" env:"LOG_PRETTY"`
		File   string `yaml:"file" env:"LOG_FILE"`
	} `yaml:"logging"`
}

// Load reads the optional yaml file at path, applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if _, err := os.Stat(path); err == nil {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := processStructFields(cfg); err != nil {
		return nil, fmt.Errorf("load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Client.Addr = ":3000"
	cfg.Client.APIBaseURL = "http://localhost:8000"
	cfg.Client.APITimeout = 60 * time.Second
	cfg.Client.ReadTimeout = 5 * time.Second
	cfg.Client.WriteTimeout = 90 * time.Second
	cfg.Client.SessionTTL = 12 * time.Hour

	cfg.DevAPI.Addr = ":8000"
	cfg.DevAPI.TeacherUsername = "teacher"

	cfg.CLI.SessionFile = ".hammer-session.json"
	cfg.CLI.OutputDir = "downloads"

	cfg.Logging.Level = "info"
	cfg.Logging.Pretty = true
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Client.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url must be an absolute http(s) url, got %q", c.Client.APIBaseURL)
	}
	if c.Client.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive")
	}
	if c.Client.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	return nil
}

// ValidateClient adds the checks only the web client needs.
func (c *Config) ValidateClient() error {
	if len(c.Client.SessionSecret) < 32 {
		return fmt.Errorf("session_secret must be at least 32 characters (run `hammer setup`)")
	}
	return nil
}

func (c *Config) ValidateDevAPI() error {
	if c.DevAPI.TeacherUsername == "" {
		return fmt.Errorf("devapi teacher_username is required")
	}
	if c.DevAPI.TeacherPassword == "" {
		return fmt.Errorf("devapi teacher_password is required")
	}
	return nil
}
