package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/ritzau/aip-explorer/pkg/api"
	"github.com/ritzau/aip-explorer/pkg/config"
	"github.com/ritzau/aip-explorer/pkg/explorer"
	"github.com/ritzau/aip-explorer/pkg/favourites"
	"github.com/ritzau/aip-explorer/pkg/lens"
	"github.com/ritzau/aip-explorer/pkg/logging"
	"github.com/ritzau/aip-explorer/pkg/output"
	"github.com/ritzau/aip-explorer/pkg/watcher"
	"github.com/ritzau/aip-explorer/pkg/web"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	f := pflag.NewFlagSet("aip-explorer", pflag.ExitOnError)
	f.String("api", api.DefaultBaseURL, "Base URL of the AIP REST API")
	f.Bool("web", false, "Start web server instead of printing to console")
	f.Int("port", 8080, "Port for web server (only used with --web)")
	f.Bool("open", true, "Open the dashboard in a browser (only used with --web)")
	f.Bool("watch", false, "Reload dashboards when the favourites store changes on disk")
	f.StringSliceP("author", "a", nil, "Author to explore; the first is searched, the rest are added")
	f.String("filter", "", "Edge type to show: citation, coauthorship or empty for both")
	f.Float64("limit", 1, "Fraction of each node list to show, in (0, 1]")
	f.Float64("width", lens.DefaultViewWidth, "Viewport width used for the layout")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.String("logformat", "compact", "Log format: compact, text or json")
	f.String("favourites.backend", config.BackendFile, "Favourites store: file, sqlite or memory")
	f.String("favourites.path", "", "Directory (file) or database (sqlite) for favourites; defaults per backend")
	f.Float64("client.ratelimit", api.DefaultRateLimit, "Maximum API requests per second (0 = unlimited)")
	f.Duration("client.timeout", api.DefaultTimeout, "Timeout per API request")
	f.Int("client.cachesize", api.DefaultCacheSize, "Author graph lookups to cache")
	f.Parse(os.Args[1:])

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := logging.Configure(os.Stderr, level, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	client, err := api.New(cfg.API,
		api.WithRateLimit(cfg.Client.RateLimit),
		api.WithTimeout(cfg.Client.Timeout),
		api.WithCacheSize(cfg.Client.CacheSize),
	)
	if err != nil {
		logging.Fatal("invalid API configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WebMode {
		if err := runWeb(ctx, cfg, client); err != nil {
			logging.Fatal("web server failed", "error", err)
		}
		return
	}

	if err := runCLI(ctx, cfg, client); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openFavourites opens the configured store and returns the files it
// writes, for watching
func openFavourites(cfg config.FavouritesConfig) (favourites.KV, []string, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendMemory:
		return favourites.NewMemoryKV(), nil, noop, nil
	case config.BackendSQLite:
		kv, err := favourites.OpenSQLiteKV(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return kv, []string{cfg.Path}, kv.Close, nil
	default:
		kv, err := favourites.NewFileKV(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return kv, []string{kv.Path(favourites.Key)}, noop, nil
	}
}

func runWeb(ctx context.Context, cfg *config.Config, client *api.Client) error {
	kv, files, closeKV, err := openFavourites(cfg.Favourites)
	if err != nil {
		return fmt.Errorf("opening favourites: %w", err)
	}
	defer closeKV()

	store := favourites.NewStore(kv)
	server := web.NewServer(client, store)

	if cfg.Watch && len(files) > 0 {
		detector := watcher.NewChangeDetector()
		server.SetChangeDetector(detector, files...)
		count := func() (int, error) {
			queries, err := store.List()
			return len(queries), err
		}
		if err := watcher.Watch(ctx, watcher.DefaultConfig(files...), detector, server.Publisher(), count); err != nil {
			logging.Warn("favourites watcher disabled", "error", err)
		}
	}

	// Searches requested on the command line run once the server is up
	go func() {
		time.Sleep(500 * time.Millisecond)
		if cfg.OpenBrowser {
			openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
		}
		explore(ctx, server.Session(), cfg.Authors)
	}()

	err = server.Start(ctx, cfg.Port)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// explore searches the first author and adds the rest. Failed lookups are
// logged and skipped.
func explore(ctx context.Context, session *explorer.Session, authors []string) {
	for i, name := range authors {
		var err error
		if i == 0 {
			_, err = session.Search(ctx, name)
		} else {
			_, err = session.AddAuthor(ctx, name)
		}
		if err != nil {
			logging.Warn(explorer.FailureMessage(name, err), "error", err)
		}
	}
}

func runCLI(ctx context.Context, cfg *config.Config, client *api.Client) error {
	if len(cfg.Authors) == 0 {
		return fmt.Errorf("no author given; use --author NAME or --web")
	}
	l, err := cfg.Lens()
	if err != nil {
		return err
	}

	session := explorer.NewSession(client)
	explore(ctx, session, cfg.Authors)
	if session.State() != explorer.StateLoaded {
		return errors.New(session.Status().Error)
	}

	view, err := session.View(l, cfg.Width)
	if err != nil {
		return err
	}
	rings, err := session.Rings()
	if err != nil {
		return err
	}
	counts, err := session.Counts()
	if err != nil {
		return err
	}

	output.PrintExplorerReport(os.Stdout, output.Report{
		Roots:  session.Status().Roots,
		Counts: counts,
		View:   view,
		Rings:  rings,
	})
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
