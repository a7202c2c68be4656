// Command oakboardd is the oakboard server daemon. It discovers the plugin
// units on disk, merges the persisted activation state, binds every enabled
// plugin into the host collaborators, and serves the admin API.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oakboard/oakboard/config"
	"github.com/oakboard/oakboard/events"
	"github.com/oakboard/oakboard/host"
	"github.com/oakboard/oakboard/internal/version"
	"github.com/oakboard/oakboard/plugin"
	"github.com/oakboard/oakboard/server"
	"github.com/oakboard/oakboard/state"
)

var configPath = flag.String("config", "oakboard.yaml", "path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	logger.Info("starting oakboardd",
		"version", version.Version,
		"commit", version.Commit,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir %s: %v", cfg.DataDir, err)
	}

	store, err := state.NewSQLiteStore(filepath.Join(cfg.DataDir, "plugins.db"))
	if err != nil {
		log.Fatalf("Failed to open activation store: %v", err)
	}
	defer store.Close()

	platformDB, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "oakboard.db"))
	if err != nil {
		log.Fatalf("Failed to open platform database: %v", err)
	}
	platformDB.SetMaxOpenConns(1)
	defer platformDB.Close()

	manifests, diags := plugin.Discover(logger, cfg.PluginDirs...)
	for _, d := range diags {
		logger.Warn("plugin discovery diagnostic", "dir", d.Dir, "err", d.Err)
	}

	registry := plugin.NewRegistry(store)
	if err := registry.Discover(manifests); err != nil {
		log.Fatalf("Failed to initialize plugin registry: %v", err)
	}

	router := host.NewRouter()
	models := host.NewModelRegistry(platformDB)
	templates := host.NewTemplateRoots()
	loader := plugin.NewLoader(router, models, templates, logger)
	composer := plugin.NewComposer(server.HostMenu(cfg.AdminMenu))
	bus := events.NewInMemoryBus()
	controller := plugin.NewController(registry, loader, composer, bus, logger)

	controller.Refresh(context.Background())

	srv := server.New(*cfg, version.Version, logger)
	srv.SetRuntime(registry, controller, composer)
	srv.SetPluginRouter(router)
	srv.SetBus(bus)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Printf("oakboard running on http://localhost%s\n", cfg.Server.Addr)
	fmt.Printf("Version: %s (%s)\n", version.Version, version.Commit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	fmt.Println("Shutting down...")
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("server stop error", "error", err)
	}
	fmt.Println("Shutdown complete")
}
