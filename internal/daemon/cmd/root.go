// Package cmd implements the ontrackd command line.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ontrack-io/ontrack/internal/config"
	"github.com/ontrack-io/ontrack/internal/daemon/server"
	"github.com/ontrack-io/ontrack/internal/daemon/watcher"
	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
	"github.com/ontrack-io/ontrack/internal/store/filestore"
	"github.com/ontrack-io/ontrack/internal/store/pgstore"
	"github.com/ontrack-io/ontrack/internal/store/sqlitestore"
	"github.com/ontrack-io/ontrack/internal/telemetry"
)

var daemonFlags struct {
	listen  string
	backend string
}

var rootCmd = &cobra.Command{
	Use:          "ontrackd",
	Short:        "OnTrack daemon: HTTP API, analytics and task storage",
	SilenceUsage: true,
	RunE:         runDaemon,
}

// Execute runs the daemon command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVar(&daemonFlags.listen, "listen", "", "HTTP address to listen on (overrides settings)")
	rootCmd.Flags().StringVar(&daemonFlags.backend, "store", "", "store backend: file, sqlite or postgres (overrides settings)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.SetPrefix("[ontrackd] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Ensure global directory exists
	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	// Check if daemon is already running
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if daemonFlags.listen != "" {
		settings.Server.Listen = daemonFlags.listen
	}
	if daemonFlags.backend != "" {
		settings.Store.Backend = daemonFlags.backend
	}

	if err := serve(settings); err != nil {
		return err
	}
	fmt.Println("Daemon stopped")
	return nil
}

// serve runs until SIGINT/SIGTERM or a listener failure.
func serve(settings *models.Settings) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := settings.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", settings.Server.Timezone, err)
	}

	st, err := OpenStore(ctx, settings.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("[store] Close: %v", err)
		}
	}()

	// The file store caches YAML in memory; edits made outside the daemon
	// invalidate it through the watcher.
	if fs, ok := st.(*filestore.Store); ok {
		w, err := watcher.New(fs.Dir())
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Stop()
		go w.Run(ctx, fs)
	}

	events, err := telemetry.New(settings.Telemetry)
	if err != nil {
		log.Printf("[telemetry] Disabled: %v", err)
	}
	defer events.Close()

	opts := server.Options{
		Settings: settings,
		Store:    st,
		Location: loc,
	}
	if events != nil {
		opts.Events = events
	}

	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	daemonInfo := models.NewDaemonInfo(srv.Host(), srv.Port(), srv.GRPCPort(), os.Getpid(), settings.Store.Backend)
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		srv.Stop()
		return fmt.Errorf("failed to write daemon info: %w", err)
	}
	defer func() {
		if err := config.RemoveDaemonInfo(); err != nil {
			log.Printf("Failed to remove daemon info: %v", err)
		}
	}()

	log.Printf("Daemon started on %s (gRPC %d, store %s, tz %s, PID %d)",
		config.DaemonURL(daemonInfo), srv.GRPCPort(), settings.Store.Backend, loc, os.Getpid())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	err = awaitShutdown(errCh, sigCh)
	srv.Stop()
	return err
}

// awaitShutdown blocks until a signal arrives or the server stops on its own.
// A server failure is returned so ontrackd exits non-zero.
func awaitShutdown(errCh <-chan error, sigCh <-chan os.Signal) error {
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		log.Printf("Server error: %v", err)
		return fmt.Errorf("server stopped: %w", err)
	}
}

// OpenStore opens the configured backend.
func OpenStore(ctx context.Context, cfg models.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case models.BackendFile:
		s, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store at %s: %w", cfg.DataDir, err)
		}
		return s, nil
	case models.BackendSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store at %s: %w", cfg.SQLitePath, err)
		}
		return s, nil
	case models.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres store requires %s or PGHOST", config.EnvDatabaseURL)
		}
		s, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
