// Command quakealertd serves the earthquake alert API and runs the poll cycle.
//
// Usage:
//
//	quakealertd serve            # HTTP API plus the in-process poller
//	quakealertd poll             # one poll cycle, for an external scheduler
//	quakealertd migrate          # create or update the database schema
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quakealert-backend/config"
	"quakealert-backend/internal/api"
	"quakealert-backend/internal/db"
)

var logger = log.New(os.Stdout, "quakealert ", log.LstdFlags)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	var configPath string
	root := &cobra.Command{
		Use:          "quakealertd",
		Short:        "Earthquake alert matcher",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the YAML configuration file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(pollCmd(&configPath))
	root.AddCommand(migrateCmd(&configPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config/config.yaml" // Default path for local development
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	logger.Printf("configuration loaded successfully from %s", path)
	return cfg, nil
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			go a.poller.Run(ctx)

			router := api.NewRouter(a.store, cfg, a.metrics)
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: router,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-stop:
				logger.Println("Shutdown signal received, stopping services...")
			case err := <-serverErr:
				return fmt.Errorf("HTTP server ListenAndServe: %w", err)
			}
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server Shutdown: %w", err)
			}

			logger.Println("Server gracefully stopped")
			return nil
		},
	}
}

func pollCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run a single poll cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			// A failed cycle is logged only; the next scheduled run starts fresh.
			report, err := a.poller.PollOnce(ctx)
			if err != nil {
				logger.Printf("poll cycle failed: %v", err)
				return nil
			}
			logger.Printf("poll cycle finished: %+v", report)
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			gormDB, err := db.Open(&cfg.Database)
			if err != nil {
				return err
			}
			if err := db.Migrate(gormDB); err != nil {
				return err
			}
			logger.Println("migrations applied")
			return nil
		},
	}
}
