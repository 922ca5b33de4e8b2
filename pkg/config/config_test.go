package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/aip-explorer/pkg/lens"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("aip-explorer", pflag.ContinueOnError)
	fs.Int("port", 8080, "")
	fs.StringSlice("author", nil, "")
	fs.String("filter", "", "")
	fs.Float64("limit", 1, "")
	fs.String("favourites.backend", BackendFile, "")
	return fs
}

func TestFavouritesPathDefaultsPerBackend(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ".aip-explorer"},
		{[]string{"--favourites.backend=sqlite"}, ".aip-explorer/favourites.db"},
		{[]string{"--favourites.backend=memory"}, ""},
		{[]string{"--favourites.backend=sqlite", "--favourites.path=fav.db"}, "fav.db"},
	}

	for _, tt := range tests {
		fs := testFlags()
		fs.String("favourites.path", "", "")
		if err := fs.Parse(tt.args); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadFrom(fs, "")
		if err != nil {
			t.Fatalf("LoadFrom(%v) failed: %v", tt.args, err)
		}
		if cfg.Favourites.Path != tt.want {
			t.Errorf("LoadFrom(%v): path %q, want %q", tt.args, cfg.Favourites.Path, tt.want)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("LoadFrom(%v) should validate: %v", tt.args, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(nil, "")
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Port != 8080 || cfg.API != "http://localhost:8000/api/" || !cfg.OpenBrowser {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.Favourites.Backend != BackendFile || cfg.Favourites.Path != ".aip-explorer" {
		t.Errorf("Unexpected favourites defaults %+v", cfg.Favourites)
	}
	if cfg.Client.Timeout != 30*time.Second || cfg.Client.CacheSize != 128 || cfg.Client.RateLimit != 10 {
		t.Errorf("Unexpected client defaults %+v", cfg.Client)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	toml := strings.Join([]string{
		`port = 9000`,
		`filter = "citation"`,
		`[favourites]`,
		`backend = "sqlite"`,
		`path = "/tmp/favs.db"`,
		`[client]`,
		`timeout = "5s"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AIP_EXPLORER_PORT", "9100")
	t.Setenv("AIP_EXPLORER_CLIENT_CACHESIZE", "16")

	fs := testFlags()
	if err := fs.Parse([]string{"--port=9200", "--author=Ada Lovelace", "--author=Grace Hopper"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(fs, path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Port != 9200 {
		t.Errorf("Flag should win, got port %d", cfg.Port)
	}
	if cfg.Client.CacheSize != 16 {
		t.Errorf("Env should override defaults, got cache size %d", cfg.Client.CacheSize)
	}
	if cfg.Filter != "citation" || cfg.Favourites.Backend != BackendSQLite || cfg.Client.Timeout != 5*time.Second {
		t.Errorf("File values missing: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Authors, []string{"Ada Lovelace", "Grace Hopper"}) {
		t.Errorf("Unexpected authors %v", cfg.Authors)
	}

	l, err := cfg.Lens()
	if err != nil || l.Filter != lens.ShowCitation || l.Limit != 1 {
		t.Errorf("Lens() = %+v, %v", l, err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadFrom(nil, "")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 70000 }},
		{"backend", func(c *Config) { c.Favourites.Backend = "redis" }},
		{"path", func(c *Config) { c.Favourites.Path = "" }},
		{"filter", func(c *Config) { c.Filter = "friends" }},
		{"limit", func(c *Config) { c.Limit = 0 }},
		{"negative cache", func(c *Config) { c.Client.CacheSize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected %s to be rejected", tt.name)
			}
		})
	}

	memory := valid()
	memory.Favourites = FavouritesConfig{Backend: BackendMemory}
	if err := memory.Validate(); err != nil {
		t.Errorf("Memory backend needs no path: %v", err)
	}
}
