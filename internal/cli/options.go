package cli

import (
	"github.com/aretw0/pdshell/internal/config"
)

// Options are the command-line settings shared by every subcommand.
// Non-zero values override the loaded configuration.
type Options struct {
	ConfigPath string
	Debug      bool
	Patch      string
	RedisURL   string
	Port       int

	// JSON switches the REPL to newline-delimited JSON on Stdin/Stdout.
	JSON bool
}

// LoadConfig resolves the configuration file and applies the flag overrides.
func LoadConfig(opts Options) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.Discover()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		cfg.Debug = true
	}
	if opts.Patch != "" {
		cfg.Patch = opts.Patch
	}
	if opts.RedisURL != "" {
		cfg.RedisURL = opts.RedisURL
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	return cfg, nil
}
