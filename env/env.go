// Package env loads per-environment YAML configuration: base URL, timeouts
// and notification settings, keyed by environment name (local, dev, test,
// prod).
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEnv is used when no environment is selected.
const DefaultEnv = "prod"

// DingTalkConfig is the notification section of an environment file.
type DingTalkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Webhook string `yaml:"webhook"`
	Secret  string `yaml:"secret"`
}

// Config is one loaded environment.
type Config struct {
	name   string
	values map[string]any
}

// Load reads `<dir>/<name>.yaml`. An empty name falls back to the ENV
// environment variable, then DefaultEnv.
func Load(dir, name string) (*Config, error) {
	if name == "" {
		name = os.Getenv("ENV")
	}
	if name == "" {
		name = DefaultEnv
	}

	path := filepath.Join(dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment config %s: %w", path, err)
	}

	values := make(map[string]any)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse environment config %s: %w", path, err)
	}

	return &Config{name: name, values: values}, nil
}

// Name returns the environment name this config was loaded for.
func (c *Config) Name() string { return c.name }

// Get resolves a dotted path ("credentials.username") into the config,
// returning def when any segment is missing.
func (c *Config) Get(path string, def any) any {
	current := any(c.values)
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return def
		}
		current, ok = m[key]
		if !ok {
			return def
		}
	}
	return current
}

// GetString resolves a dotted path as a string.
func (c *Config) GetString(path, def string) string {
	if v, ok := c.Get(path, def).(string); ok {
		return v
	}
	return def
}

// GetInt resolves a dotted path as an int.
func (c *Config) GetInt(path string, def int) int {
	if v, ok := c.Get(path, def).(int); ok {
		return v
	}
	return def
}

// GetBool resolves a dotted path as a bool.
func (c *Config) GetBool(path string, def bool) bool {
	if v, ok := c.Get(path, def).(bool); ok {
		return v
	}
	return def
}

// BaseURL returns the environment's base URL.
func (c *Config) BaseURL() string {
	return c.GetString("base_url", "")
}

// DingTalk returns the notification settings; Enabled is false when the
// section is absent.
func (c *Config) DingTalk() DingTalkConfig {
	return DingTalkConfig{
		Enabled: c.GetBool("dingtalk.enabled", false),
		Webhook: c.GetString("dingtalk.webhook", ""),
		Secret:  c.GetString("dingtalk.secret", ""),
	}
}
