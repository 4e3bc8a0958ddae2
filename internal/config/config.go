package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"gopkg.in/yaml.v3"
)

type SourceType string

const (
	CSV     SourceType = "csv"
	HTTP    SourceType = "http"
	TInvest SourceType = "tinvest"
	Static  SourceType = "static"
)

// SourceConfig describes one broker portfolio. Which fields matter depends
// on Type.
type SourceConfig struct {
	Name string     `yaml:"name"` // portfolio name, e.g. AngelOne
	Type SourceType `yaml:"type"`

	Path string `yaml:"path"` // csv

	URL               string            `yaml:"url"`       // http
	TokenEnv          string            `yaml:"token_env"` // env var holding a bearer token
	Headers           map[string]string `yaml:"headers"`
	RequestsPerMinute int               `yaml:"requests_per_minute"`
	Timeout           time.Duration     `yaml:"timeout"`
	Columns           map[string]string `yaml:"columns"` // broker field -> canonical column, applied before normalizing

	AccountID        string `yaml:"account_id"` // tinvest
	InvestConfigPath string `yaml:"invest_config_path"`

	Rows []map[string]any `yaml:"rows"` // static
}

const (
	_requestsPerMinuteDefault = 60
	_timeoutDefault           = 30 * time.Second
	_investConfigPathDefault  = "./configs/invest.yaml"
)

func (c *SourceConfig) Setup() error {
	if c.Name == "" {
		return fmt.Errorf("source name is required")
	}

	switch c.Type {
	case CSV:
		if c.Path == "" {
			return fmt.Errorf("source %s: path is required", c.Name)
		}
	case HTTP:
		if c.URL == "" {
			return fmt.Errorf("source %s: url is required", c.Name)
		}
		if _, err := url.ParseRequestURI(c.URL); err != nil {
			return fmt.Errorf("%w: source %s: bad url", err, c.Name)
		}
	case TInvest:
		if c.InvestConfigPath == "" {
			c.InvestConfigPath = _investConfigPathDefault
		}
	case Static:
	default:
		return fmt.Errorf("source %s: unknown type %q", c.Name, c.Type)
	}

	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _requestsPerMinuteDefault
	}
	if c.Timeout <= 0 {
		c.Timeout = _timeoutDefault
	}

	return nil
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RulesStorage string

const (
	Memory   RulesStorage = "memory"
	Postgres RulesStorage = "postgres"
)

type RulesConfig struct {
	Storage RulesStorage `yaml:"storage"`
	Seed    []model.Rule `yaml:"seed"` // loaded into an empty store at start
}

type Config struct {
	LogLevel        string         `yaml:"log_level"`
	RefreshInterval time.Duration  `yaml:"refresh_interval"` // 0 disables periodic refresh
	Server          ServerConfig   `yaml:"server"`
	Sources         []SourceConfig `yaml:"sources"`
	Rules           RulesConfig    `yaml:"rules"`
}

const (
	_logLevelDefault        = "info"
	_portDefault            = "8080"
	_shutdownTimeoutDefault = 10 * time.Second
	_rulesStorageDefault    = Memory
)

func (c *Config) ValidateAndSetup() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("empty sources")
	}

	names := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].Setup(); err != nil {
			return fmt.Errorf("%w: can't setup source", err)
		}
		if _, ok := names[c.Sources[i].Name]; ok {
			return fmt.Errorf("duplicate source name %s", c.Sources[i].Name)
		}
		names[c.Sources[i].Name] = struct{}{}
	}

	if c.LogLevel == "" {
		c.LogLevel = _logLevelDefault
	}
	if c.RefreshInterval < 0 {
		c.RefreshInterval = 0
	}
	if c.Server.Port == "" {
		c.Server.Port = _portDefault
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = _shutdownTimeoutDefault
	}

	switch c.Rules.Storage {
	case "":
		c.Rules.Storage = _rulesStorageDefault
	case Memory, Postgres:
	default:
		return fmt.Errorf("unknown rules storage %q", c.Rules.Storage)
	}

	return nil
}

func LoadConfig(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
