package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models trendle.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Gateway struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		APIKeyEnv      string  `yaml:"api_key_env"`
		Temperature    float64 `yaml:"temperature"`
		MaxTokens      int     `yaml:"max_tokens"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"gateway"`
	Media struct {
		FFmpegPath     string `yaml:"ffmpeg_path"`
		FFprobePath    string `yaml:"ffprobe_path"`
		WorkDir        string `yaml:"work_dir"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"media"`
	Storage struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
		MinIO   struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			Bucket    string `yaml:"bucket"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"minio"`
	} `yaml:"storage"`
	Profile struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	} `yaml:"profile"`
	Trends struct {
		CacheTTLHours int `yaml:"cache_ttl_hours"`
	} `yaml:"trends"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.gateway.timeout_seconds must be positive")
	}
	if c.Media.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.media.timeout_seconds must be positive")
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.Dir == "" {
			return fmt.Errorf("config.storage.dir is required for local backend")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("config.storage.minio.endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("config.storage.backend must be 'local' or 'minio'")
	}
	if c.Profile.ConfidenceThreshold <= 0 || c.Profile.ConfidenceThreshold > 100 {
		return fmt.Errorf("config.profile.confidence_threshold must be in (0,100]")
	}
	if c.Trends.CacheTTLHours <= 0 {
		return fmt.Errorf("config.trends.cache_ttl_hours must be positive")
	}
	return nil
}

// GatewayTimeout returns the bounded duration for model calls.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// MediaTimeout returns the bounded duration for ffmpeg operations.
func (c *Config) MediaTimeout() time.Duration {
	return time.Duration(c.Media.TimeoutSeconds) * time.Second
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "trendle.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: :8080
  base_path: /api

gateway:
  base_url: https://api.groq.com/openai/v1
  model: llama-3.3-70b-versatile
  api_key_env: TRENDLE_GATEWAY_KEY
  temperature: 0.7
  max_tokens: 1024
  timeout_seconds: 30

media:
  ffmpeg_path: ffmpeg
  ffprobe_path: ffprobe
  work_dir: processed
  timeout_seconds: 120

storage:
  backend: local
  dir: uploads
  minio:
    endpoint: ""
    access_key: ""
    secret_key: ""
    bucket: trendle-segments
    use_ssl: false

profile:
  confidence_threshold: 60

trends:
  cache_ttl_hours: 6
`
