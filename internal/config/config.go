// Package config loads svgraster's configuration from a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"svgraster/pkg/converter"
	"svgraster/pkg/viewport"
)

// EnvPrefix prefixes environment overrides, e.g. SVGRASTER_LOG_LEVEL.
const EnvPrefix = "SVGRASTER"

var ErrInvalidConfig = errors.New("invalid configuration")

type Configuration struct {
	Port        uint                   `mapstructure:"port" yaml:"port"`
	Workers     int                    `mapstructure:"workers" yaml:"workers"`
	Log         Log                    `mapstructure:"log" yaml:"log"`
	Cache       Cache                  `mapstructure:"cache" yaml:"cache"`
	Limits      Size                   `mapstructure:"limits" yaml:"limits"`
	Viewport    Size                   `mapstructure:"viewport" yaml:"viewport"`
	Background  string                 `mapstructure:"background" yaml:"background"`
	Quality     float64                `mapstructure:"quality" yaml:"quality"`
	Credentials []converter.Credential `mapstructure:"credentials" yaml:"credentials"`
}

type Log struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type Cache struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	SizeMax uint64 `mapstructure:"sizemax" yaml:"sizemax"`
	LRU     int    `mapstructure:"lru" yaml:"lru"`
}

type Size struct {
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
}

// ViewportSize converts s for the viewport package.
func (s Size) ViewportSize() viewport.Size {
	return viewport.Size{Width: s.Width, Height: s.Height}
}

var defaults = map[string]interface{}{
	"port":            8080,
	"workers":         4,
	"log.level":       "info",
	"log.development": false,
	"cache.dir":       "",
	"cache.sizemax":   64 << 20,
	"cache.lru":       128,
	"limits.width":    8192,
	"limits.height":   8192,
	"viewport.width":  400,
	"viewport.height": 400,
	"background":      "",
	"quality":         0,
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"port":            "port",
	"workers":         "workers",
	"log-level":       "log.level",
	"log-development": "log.development",
	"cache-dir":       "cache.dir",
	"cache-lru":       "cache.lru",
	"background":      "background",
	"quality":         "quality",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "configuration file")
	fs.Uint("port", 8080, "HTTP port")
	fs.Int("workers", 4, "parallel conversions")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("log-development", false, "human-readable logs")
	fs.String("cache-dir", "", "render cache directory (empty disables the disk cache)")
	fs.Int("cache-lru", 128, "in-memory render cache entries")
}

// Load reads the configuration. A file named svgraster.yaml is looked up in
// paths unless fs carries a non-empty --config flag. A missing file is not
// an error; flags that were not set on the command line do not override
// the file or the environment.
func Load(fs *pflag.FlagSet, paths ...string) (*Configuration, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("svgraster")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Configuration) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.Quality < 0 || c.Quality >= 1:
		return fmt.Errorf("%w: quality must be in [0, 1)", ErrInvalidConfig)
	case c.Viewport.Width <= 0 || c.Viewport.Height <= 0:
		return fmt.Errorf("%w: viewport must be positive", ErrInvalidConfig)
	case c.Limits.Width < 0 || c.Limits.Height < 0:
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Dump writes the configuration as YAML. Passwords are masked.
func (c *Configuration) Dump(w io.Writer) error {
	out := *c
	out.Credentials = make([]converter.Credential, len(c.Credentials))
	for i, cred := range c.Credentials {
		if cred.Password != "" {
			cred.Password = "********"
		}
		out.Credentials[i] = cred
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
