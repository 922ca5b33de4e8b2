package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/aip-explorer/pkg/lens"
)

const (
	// FileName is the optional config file read from the working directory
	FileName = "aip-explorer.toml"
	// EnvPrefix prefixes environment overrides, e.g. AIP_EXPLORER_PORT=9090
	EnvPrefix = "AIP_EXPLORER_"
)

// Favourites backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Default favourites locations per backend, used when no path is configured
const (
	DefaultFavouritesDir = ".aip-explorer"
	DefaultFavouritesDB  = ".aip-explorer/favourites.db"
)

// DefaultFavouritesPath returns where backend keeps favourites unless told otherwise
func DefaultFavouritesPath(backend string) string {
	switch backend {
	case BackendSQLite:
		return DefaultFavouritesDB
	case BackendMemory:
		return ""
	default:
		return DefaultFavouritesDir
	}
}

// FavouritesConfig selects where favourite queries are kept
type FavouritesConfig struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

// ClientConfig tunes the remote API client
type ClientConfig struct {
	RateLimit float64       `koanf:"ratelimit"`
	Timeout   time.Duration `koanf:"timeout"`
	CacheSize int           `koanf:"cachesize"`
}

// Config holds all configuration for the application
type Config struct {
	API         string           `koanf:"api"`
	WebMode     bool             `koanf:"web"`
	Port        int              `koanf:"port"`
	OpenBrowser bool             `koanf:"open"`
	Watch       bool             `koanf:"watch"`
	Authors     []string         `koanf:"author"`
	Filter      string           `koanf:"filter"`
	Limit       float64          `koanf:"limit"`
	Width       float64          `koanf:"width"`
	Verbosity   string           `koanf:"verbosity"`
	VerboseCnt  int              `koanf:"verbose"`
	LogFormat   string           `koanf:"logformat"`
	Favourites  FavouritesConfig `koanf:"favourites"`
	Client      ClientConfig     `koanf:"client"`
}

// Defaults returns the lowest-priority configuration layer
func Defaults() map[string]any {
	return map[string]any{
		"api":       "http://localhost:8000/api/",
		"web":       false,
		"port":      8080,
		"open":      true,
		"watch":     false,
		"author":    []string{},
		"filter":    "",
		"limit":     1.0,
		"width":     lens.DefaultViewWidth,
		"verbosity": "",
		"verbose":   0,
		"logformat": "compact",
		"favourites": map[string]any{
			"backend": BackendFile,
			"path":    "",
		},
		"client": map[string]any{
			"ratelimit": 10.0,
			"timeout":   "30s",
			"cachesize": 128,
		},
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFrom(f, FileName)
}

// LoadFrom is Load with an explicit config file path
func LoadFrom(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The config file is optional
	if path != "" {
		_ = k.Load(file.Provider(path), toml.Parser())
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Favourites.Path == "" {
		cfg.Favourites.Path = DefaultFavouritesPath(cfg.Favourites.Backend)
	}

	return &cfg, nil
}

// Validate rejects settings the explorer cannot run with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Favourites.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown favourites backend %q", c.Favourites.Backend)
	}
	if c.Favourites.Backend != BackendMemory && c.Favourites.Path == "" {
		return fmt.Errorf("favourites.path is required for the %s backend", c.Favourites.Backend)
	}
	if _, err := c.Lens(); err != nil {
		return err
	}
	if c.Client.RateLimit < 0 || c.Client.CacheSize < 0 || c.Client.Timeout < 0 {
		return fmt.Errorf("client settings must not be negative")
	}
	return nil
}

// Lens returns the configured view lens
func (c *Config) Lens() (lens.Lens, error) {
	filter, err := lens.ParseTypeFilter(c.Filter)
	if err != nil {
		return lens.Lens{}, err
	}
	l := lens.Lens{Filter: filter, Limit: c.Limit}
	return l, l.Validate()
}

// mapProvider lets a plain map act as a koanf provider
type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) {
	return p, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
