package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/venus.report/internal/config"
	"github.com/banshee-data/venus.report/internal/db"
	"github.com/banshee-data/venus.report/internal/monitoring"
	"github.com/banshee-data/venus.report/internal/surface"
	"github.com/banshee-data/venus.report/internal/version"
	"github.com/banshee-data/venus.report/internal/web"
)

var (
	listen       = flag.String("listen", config.DefaultListen, "Listen address")
	devMode      = flag.Bool("dev", false, "Run in dev mode (reload templates from disk)")
	configFile   = flag.String("config", "", "Path to a JSON or YAML server config")
	templatesDir = flag.String("templates", config.DefaultTemplatesDir, "Template directory used in dev mode")
	diagDBPath   = flag.String("diag-db", config.DefaultDiagDBPath, "SQLite file for render diagnostics (empty disables)")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// loadConfig reads the optional config file and lets explicitly set flags
// override it.
func loadConfig(path string, visited map[string]bool) (*config.ServerConfig, error) {
	cfg := config.EmptyServerConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadServerConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if visited["listen"] || cfg.Listen == nil {
		cfg.Listen = listen
	}
	if visited["dev"] || cfg.DevMode == nil {
		cfg.DevMode = devMode
	}
	if visited["templates"] || cfg.TemplatesDir == nil {
		cfg.TemplatesDir = templatesDir
	}
	if visited["diag-db"] || cfg.DiagDBPath == nil {
		cfg.DiagDBPath = diagDBPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func visitedFlags() map[string]bool {
	visited := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { visited[f.Name] = true })
	return visited
}

// newReporter sends diagnostics to the log and, when present, the store.
func newReporter(store *db.DB) monitoring.Reporter {
	if store == nil {
		return monitoring.LogReporter{}
	}
	return monitoring.MultiReporter{monitoring.LogReporter{}, store}
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg, err := loadConfig(*configFile, visitedFlags())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Printf("starting %s", version.String())

	var store *db.DB
	if path := cfg.GetDiagDBPath(); path != "" {
		store, err = db.NewDB(path)
		if err != nil {
			log.Fatalf("Failed to open diagnostics database: %v", err)
		}
		defer store.Close()
		log.Printf("recording render diagnostics to %s", store.Path())
	} else {
		log.Print("diagnostics store disabled")
	}

	session := web.NewSession(
		surface.Render,
		surface.DefaultInput(cfg.GetGridSize(), cfg.GetDefaultValue()),
		web.WithReporter(newReporter(store)),
	)

	wsCfg := web.WebServerConfig{
		Address:         cfg.GetListen(),
		Session:         session,
		DevMode:         cfg.GetDevMode(),
		TemplatesDir:    cfg.GetTemplatesDir(),
		MaxInputBytes:   cfg.GetMaxInputBytes(),
		AssetsHost:      cfg.GetAssetsHost(),
		ShutdownTimeout: cfg.GetShutdownTimeout(),
	}
	// A nil *db.DB in the interface would look configured.
	if store != nil {
		wsCfg.Diagnostics = store
	}

	ws, err := web.NewWebServer(wsCfg)
	if err != nil {
		log.Fatalf("failed to create web server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ws.Start(ctx); err != nil {
		log.Printf("HTTP server error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
