package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spacewh/spacewh/logging"
)

// Config models spacewh.yml.
type Config struct {
	Center struct {
		EnableAutonomousMode bool            `yaml:"enable_autonomous_mode"`
		AlertRetentionDays   int             `yaml:"alert_retention_days"`
		MetricsRetentionDays int             `yaml:"metrics_retention_days"`
		DefaultTaskPriority  string          `yaml:"default_task_priority"`
		DefaultModel         string          `yaml:"default_model"`
		AutomatedTasks       map[string]bool `yaml:"automated_tasks"`
		CustomSettings       map[string]any  `yaml:"custom_settings"`
	} `yaml:"center"`

	Model struct {
		Provider string `yaml:"provider"`
	} `yaml:"model"`

	Server struct {
		Addr                 string `yaml:"addr"`
		ProcessRatePerMinute int    `yaml:"process_rate_per_minute"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Knowledge struct {
		Seeds []KnowledgeSeed `yaml:"seeds"`
	} `yaml:"knowledge"`
}

// KnowledgeSeed is one document loaded into the knowledge index at startup.
type KnowledgeSeed struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with spacewh config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Center.AlertRetentionDays < 0 {
		return fmt.Errorf("config.center.alert_retention_days must not be negative")
	}
	if c.Center.MetricsRetentionDays < 0 {
		return fmt.Errorf("config.center.metrics_retention_days must not be negative")
	}
	if c.Center.DefaultModel == "" {
		return fmt.Errorf("config.center.default_model is required")
	}
	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("config.model.provider must be one of openai, anthropic, mock")
	}
	if c.Server.ProcessRatePerMinute < 0 {
		return fmt.Errorf("config.server.process_rate_per_minute must not be negative")
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("config.logging.format must be json or text")
	}
	for i, seed := range c.Knowledge.Seeds {
		if seed.ID == "" {
			return fmt.Errorf("config.knowledge.seeds[%d] has empty id", i)
		}
		if seed.Content == "" {
			return fmt.Errorf("config.knowledge.seeds[%d] has empty content", i)
		}
	}
	return nil
}

// LogLevel returns the configured log level. Unknown values fall back to
// info, matching logging.ParseLevel.
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLevel(c.Logging.Level)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "spacewh.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `center:
  enable_autonomous_mode: false
  alert_retention_days: 30
  metrics_retention_days: 7
  default_task_priority: medium
  default_model: gpt-4
  automated_tasks:
    health_check: true
    alert_cleanup: true

model:
  provider: openai

server:
  addr: ":8000"
  process_rate_per_minute: 30

logging:
  level: info
  format: json

knowledge:
  seeds:
    - id: platform-overview
      title: "Platform overview"
      content: "Space WH routes requests through four processing engines with mode-based permissions."
`
