// Package config provides configuration file support for agent-chat.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agent-chat/agent-chat/pkg/errclass"
	"github.com/agent-chat/agent-chat/pkg/fsutil"
)

// FileName is the config file inside the .agent-chat directory.
const FileName = "config.yaml"

// Config represents the agent-chat configuration.
type Config struct {
	LockTTLSecs    int64         `yaml:"lock_ttl_secs" json:"lock_ttl_secs"`
	FocusTTLSecs   int64         `yaml:"focus_ttl_secs" json:"focus_ttl_secs"`
	FirstReadCount int           `yaml:"first_read_count" json:"first_read_count"`
	Logging        LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LockTTLSecs:    300,
		FocusTTLSecs:   1800,
		FirstReadCount: 5,
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LockTTL returns the default lock lifetime.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSecs) * time.Second
}

// FocusTTL returns the default focus lifetime.
func (c *Config) FocusTTL() time.Duration {
	return time.Duration(c.FocusTTLSecs) * time.Second
}

// Validate rejects values no store can work with.
func (c *Config) Validate() error {
	if c.LockTTLSecs < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("lock_ttl_secs must be >= 0, got %d", c.LockTTLSecs)
	}
	if c.FocusTTLSecs < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("focus_ttl_secs must be >= 0, got %d", c.FocusTTLSecs)
	}
	if c.FirstReadCount < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("first_read_count must be >= 0, got %d", c.FirstReadCount)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return errclass.ErrConfigInvalid.WithMessagef("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Load loads configuration from <agentDir>/config.yaml.
// Returns default config if file doesn't exist.
func Load(agentDir string) (*Config, error) {
	cfg := Default()
	cfgPath := filepath.Join(agentDir, FileName)

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("parse %s: %v", cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to <agentDir>/config.yaml.
func Save(agentDir string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := fsutil.AtomicWriteDurable(filepath.Join(agentDir, FileName), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Keys lists the settable keys in dotted form.
func Keys() []string {
	keys := []string{"lock_ttl_secs", "focus_ttl_secs", "first_read_count", "logging.level", "logging.format"}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a dotted key.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "lock_ttl_secs":
		return strconv.FormatInt(c.LockTTLSecs, 10), nil
	case "focus_ttl_secs":
		return strconv.FormatInt(c.FocusTTLSecs, 10), nil
	case "first_read_count":
		return strconv.Itoa(c.FirstReadCount), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	}
	return "", errclass.ErrConfigInvalid.WithMessagef("unknown key %q", key)
}

// Set parses value into the field named by a dotted key.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "lock_ttl_secs":
		n, err := parseSecs(key, value)
		if err != nil {
			return err
		}
		c.LockTTLSecs = n
	case "focus_ttl_secs":
		n, err := parseSecs(key, value)
		if err != nil {
			return err
		}
		c.FocusTTLSecs = n
	case "first_read_count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("%s: %q is not an integer", key, value)
		}
		c.FirstReadCount = n
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	default:
		return errclass.ErrConfigInvalid.WithMessagef("unknown key %q", key)
	}
	return c.Validate()
}

// parseSecs accepts either a bare integer or a Go duration ("5m").
func parseSecs(key, value string) (int64, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errclass.ErrConfigInvalid.WithMessagef("%s: %q is not seconds or a duration", key, value)
	}
	return int64(d / time.Second), nil
}
