package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	AlchemyAPIKey string `yaml:"alchemy_api_key"`
	HeliusAPIKey  string `yaml:"helius_api_key"`
	// MockLatency simulates indexer latency for the stubbed chains.
	MockLatency time.Duration `yaml:"mock_latency"`

	Loader LoaderConfig `yaml:"loader"`

	DBPath string `yaml:"db_path"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" or "json"
}

type LoaderConfig struct {
	IPFSGateway   string        `yaml:"ipfs_gateway"`
	ImageBaseURL  string        `yaml:"image_base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Concurrency   int           `yaml:"concurrency"`
	MaxImageBytes int64         `yaml:"max_image_bytes"`
}

func Default() *Config {
	return &Config{
		Port:        "8080",
		MockLatency: time.Second,
		Loader: LoaderConfig{
			IPFSGateway:   "https://ipfs.io/ipfs/",
			Timeout:       10 * time.Second,
			Concurrency:   1,
			MaxImageBytes: 32 << 20,
		},
		DBPath:    "data/selection.db",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads the YAML file named by NFTVIEW_CONFIG (default config.yaml) if it
// exists, then applies environment overrides.
func Load() (*Config, error) {
	return LoadFile(getEnv("NFTVIEW_CONFIG", "config.yaml"))
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.AlchemyAPIKey = getEnv("ALCHEMY_API_KEY", c.AlchemyAPIKey)
	c.HeliusAPIKey = getEnv("HELIUS_API_KEY", c.HeliusAPIKey)
	c.Loader.IPFSGateway = getEnv("NFTVIEW_IPFS_GATEWAY", c.Loader.IPFSGateway)
	c.Loader.ImageBaseURL = getEnv("NFTVIEW_IMAGE_BASE_URL", c.Loader.ImageBaseURL)
	c.DBPath = getEnv("NFTVIEW_DB_PATH", c.DBPath)
	c.LogLevel = getEnv("NFTVIEW_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("NFTVIEW_LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("NFTVIEW_LOADER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NFTVIEW_LOADER_CONCURRENCY: %w", err)
		}
		c.Loader.Concurrency = n
	}
	for key, dst := range map[string]*time.Duration{
		"NFTVIEW_LOADER_TIMEOUT": &c.Loader.Timeout,
		"NFTVIEW_MOCK_LATENCY":   &c.MockLatency,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must be set")
	}
	if c.Loader.Timeout <= 0 {
		return errors.New("loader.timeout must be positive")
	}
	if c.Loader.Concurrency <= 0 {
		return errors.New("loader.concurrency must be positive")
	}
	if c.MockLatency < 0 {
		return errors.New("mock_latency must not be negative")
	}
	return nil
}
