// Package config loads runtime settings from an optional TOML file and
// command line flags. Flags win over the file.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"frame-transform/internal/core"
)

// Config holds settings shared by the commands
type Config struct {
	Debug         bool          `toml:"debug"`
	LogFormat     string        `toml:"log_format"`
	Mode          string        `toml:"mode"`
	Device        int           `toml:"device"`
	StatsInterval time.Duration `toml:"stats_interval"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Debug:         false,
		LogFormat:     "json",
		Mode:          core.DefaultMode.String(),
		Device:        0,
		StatsInterval: 5 * time.Second,
	}
}

// Load reads a TOML file on top of the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// Validate checks every field
func (c Config) Validate() error {
	if _, err := core.ParseMode(c.Mode); err != nil {
		return err
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}

	if c.Device < 0 {
		return fmt.Errorf("device must not be negative: %d", c.Device)
	}

	if c.StatsInterval < 0 {
		return fmt.Errorf("stats_interval must not be negative: %s", c.StatsInterval)
	}

	return nil
}

// ProcessingMode returns the parsed Mode field
func (c Config) ProcessingMode() core.Mode {
	mode, err := core.ParseMode(c.Mode)
	if err != nil {
		return core.DefaultMode
	}
	return mode
}

// FromArgs parses the shared flags, loads -config when given, applies the
// flags that were set explicitly and validates the result. It returns the
// remaining positional arguments.
func FromArgs(name string, args []string) (Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	path := fs.String("config", "", "Path to a TOML config file")
	flags := Default()
	fs.BoolVar(&flags.Debug, "debug", flags.Debug, "Enable debug mode with verbose logging")
	fs.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log output format: json or text")
	fs.StringVar(&flags.Mode, "mode", flags.Mode, "Processing mode: grayscale, edge, blur or passthrough")
	fs.IntVar(&flags.Device, "device", flags.Device, "Capture device index")
	fs.DurationVar(&flags.StatsInterval, "stats-interval", flags.StatsInterval, "How often session statistics are logged")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	cfg := Default()
	if *path != "" {
		loaded, err := Load(*path)
		if err != nil {
			return Config{}, nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = flags.Debug
		case "log-format":
			cfg.LogFormat = flags.LogFormat
		case "mode":
			cfg.Mode = flags.Mode
		case "device":
			cfg.Device = flags.Device
		case "stats-interval":
			cfg.StatsInterval = flags.StatsInterval
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}

	return cfg, fs.Args(), nil
}
