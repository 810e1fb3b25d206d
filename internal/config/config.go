package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingConfiguration marks a failed run precondition. The caller
// treats it as fatal: nothing is fetched and nothing is written.
var ErrMissingConfiguration = errors.New("missing configuration")

// Config is the resolved process configuration. Secrets and deployment
// facts come from the environment (optionally a .env file); tunables come
// from an optional config/<ENV_NAME>.yaml with environment overrides.
type Config struct {
	APIKey     string
	APIURL     string
	APITimeout time.Duration

	Region    string
	Bucket    string
	KeyPrefix string

	LocalDir string

	Cities []string

	PushgatewayURL string
}

type fileConfig struct {
	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Storage struct {
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"storage"`

	Local struct {
		Dir string `yaml:"dir"`
	} `yaml:"local"`

	Metrics struct {
		PushgatewayURL string `yaml:"pushgateway_url"`
	} `yaml:"metrics"`
}

// Load resolves configuration from .env, the environment, and an optional
// config/{ENV_NAME}.yaml (default dev). A missing YAML file is fine; a
// cron deployment driven purely by environment variables is the norm.
// Load does not enforce run preconditions; Validate does, so the caller
// controls when the fatal check happens.
func Load() (*Config, error) {
	// Best-effort; absence of a .env file just means the environment is
	// already populated.
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:     "https://api.openweathermap.org/data/2.5/weather",
		APITimeout: 10 * time.Second,
		Region:     "ap-south-1",
		KeyPrefix:  "weather-data",
		LocalDir:   "docs",
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join("config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
		if fc.WeatherAPI.URL != "" {
			cfg.APIURL = fc.WeatherAPI.URL
		}
		cfg.APITimeout = parseDuration(fc.WeatherAPI.Timeout, cfg.APITimeout)
		if fc.Storage.KeyPrefix != "" {
			cfg.KeyPrefix = fc.Storage.KeyPrefix
		}
		if fc.Local.Dir != "" {
			cfg.LocalDir = fc.Local.Dir
		}
		cfg.PushgatewayURL = fc.Metrics.PushgatewayURL
	}

	cfg.APIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.Bucket = os.Getenv("S3_BUCKET_NAME")
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Region = region
	}
	if url := os.Getenv("PUSHGATEWAY_URL"); url != "" {
		cfg.PushgatewayURL = url
	}
	cfg.Cities = splitCities(os.Getenv("CITIES"))

	return cfg, nil
}

// Validate enforces the preconditions for a run: an API key, a bucket, and
// at least one city. Called by the pipeline before any network or storage
// operation.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: OPENWEATHER_API_KEY is not set", ErrMissingConfiguration)
	}
	if c.Bucket == "" {
		return fmt.Errorf("%w: S3_BUCKET_NAME is not set", ErrMissingConfiguration)
	}
	if len(c.Cities) == 0 {
		return fmt.Errorf("%w: no cities configured, set CITIES", ErrMissingConfiguration)
	}
	return nil
}

// splitCities parses the comma-separated CITIES value, trimming entries
// and dropping empties.
func splitCities(s string) []string {
	var cities []string
	for _, city := range strings.Split(s, ",") {
		city = strings.TrimSpace(city)
		if city != "" {
			cities = append(cities, city)
		}
	}
	return cities
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is not positive.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
