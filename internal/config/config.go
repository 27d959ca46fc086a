// Package config loads the shell configuration from a YAML, TOML or JSON file,
// with PDSHELL_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PDSHELL_MAX_DEPTH.
const EnvPrefix = "PDSHELL_"

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "PDSHELL_CONFIG"

// ErrUnsupportedFormat is returned for config files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config holds the complete application configuration.
type Config struct {
	// SearchPaths are the directories searched by the "script" command.
	SearchPaths []string `mapstructure:"search_paths"`

	// MaxDepth bounds command re-entry through pd.eval.
	MaxDepth int `mapstructure:"max_depth"`

	// EvalTimeout bounds a single Lua evaluation. Zero disables it.
	EvalTimeout time.Duration `mapstructure:"eval_timeout"`

	HistoryLimit int    `mapstructure:"history_limit"`
	HistoryFile  string `mapstructure:"history_file"`

	// HistoryKey encrypts the persisted history: 32 bytes as hex or base64.
	HistoryKey string `mapstructure:"history_key"`

	// RedisURL switches history and session locking to Redis when set.
	RedisURL    string        `mapstructure:"redis_url"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	RedisTTL    time.Duration `mapstructure:"redis_ttl"`

	// Patch is a YAML fixture loaded into the in-memory host.
	Patch string `mapstructure:"patch"`

	Debug        bool `mapstructure:"debug"`
	MaxInputSize int  `mapstructure:"max_input_size"`
	Port         int  `mapstructure:"port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SearchPaths:  []string{"."},
		MaxDepth:     32,
		EvalTimeout:  5 * time.Second,
		HistoryLimit: 1000,
		HistoryFile:  filepath.Join(".pdshell", "history.json"),
		RedisPrefix:  "pdshell:",
		MaxInputSize: 4096,
		Port:         8080,
	}
}

// Keys lists the recognised configuration keys.
func Keys() []string {
	return []string{
		"search_paths", "max_depth", "eval_timeout",
		"history_limit", "history_file", "history_key",
		"redis_url", "redis_prefix", "redis_ttl",
		"patch", "debug", "max_input_size", "port",
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path loads only the defaults and the environment.
func Load(path string) (*Config, error) {
	raw := map[string]any{}

	if path != "" {
		path = os.ExpandEnv(path)
		fileValues, err := readFile(path)
		if err != nil {
			return nil, err
		}
		raw = fileValues
	}

	for _, key := range Keys() {
		if val, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(key)); ok {
			raw[key] = val
		}
	}

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.expandEnvVars()
	return &cfg, nil
}

// Discover returns the config file to use: $PDSHELL_CONFIG, then pdshell.{yaml,yml,toml,json}
// in the working directory, then ~/.config/pdshell/config.yaml. It returns "" if none exists.
func Discover() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}

	candidates := []string{"pdshell.yaml", "pdshell.yml", "pdshell.toml", "pdshell.json"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "pdshell", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		_, err = toml.Decode(string(data), &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func (c *Config) expandEnvVars() {
	for i, p := range c.SearchPaths {
		c.SearchPaths[i] = os.ExpandEnv(strings.TrimSpace(p))
	}
	c.HistoryFile = os.ExpandEnv(c.HistoryFile)
	c.Patch = os.ExpandEnv(c.Patch)
	c.RedisURL = os.ExpandEnv(c.RedisURL)
}
