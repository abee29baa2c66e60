package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const DefaultEnvFile = ".env"

// Config holds everything read from the process environment. Run-specific
// settings (input file, skip offset) come from flags instead.
type Config struct {
	APIKey  string        `env:"OPENAI_API_KEY,required,notEmpty"`
	BaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Timeout time.Duration `env:"CHUNKSCRIBE_TIMEOUT" envDefault:"10m"`
}

// Load reads envFile into the process environment when it exists, without
// overriding variables that are already set, then parses Config.
func Load(envFile string) (*Config, error) {
	if strings.TrimSpace(envFile) != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	return parse(nil)
}

// parse uses environment instead of os.Environ when it is non-nil.
func parse(environment map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("OPENAI_API_KEY is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("OPENAI_BASE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("OPENAI_BASE_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("OPENAI_BASE_URL has no host: %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("CHUNKSCRIBE_TIMEOUT must be positive, got %s", c.Timeout)
	}
	return nil
}
