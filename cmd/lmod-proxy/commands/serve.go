package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mitodl/lmod-proxy/internal/logger"
	"github.com/mitodl/lmod-proxy/pkg/api"
	"github.com/mitodl/lmod-proxy/pkg/edxgrades"
	"github.com/mitodl/lmod-proxy/pkg/gradebook"
	"github.com/mitodl/lmod-proxy/pkg/htpasswd"
	"github.com/mitodl/lmod-proxy/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lmod-proxy server",
	Long: `Start the lmod-proxy HTTP server.

The server loads credentials from the configured htpasswd file, builds the
certificate-authenticated gradebook client, and serves the edX grades
endpoint until interrupted.

Examples:
  # Start with the default config search path
  lmod-proxy serve

  # Start with a custom config file
  lmod-proxy serve --config /etc/lmod-proxy/lmod_proxy.yaml

  # Override any setting from the environment
  LMODP_LOGGING_LEVEL=DEBUG lmod-proxy serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogger(cfg); err != nil {
		return err
	}

	logger.Info("configuration loaded",
		"urlbase", cfg.Gradebook.URLBase,
		"htpasswd", cfg.Auth.HtpasswdPath,
	)

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := htpasswd.New(cfg.Auth.HtpasswdPath)
	if cfg.Auth.Watch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				logger.Error("htpasswd watcher stopped", "error", err)
			}
		}()
	}

	factory, err := gradebook.NewFactory(gradebook.Config{
		URLBase: cfg.Gradebook.URLBase,
		Cert:    cfg.Gradebook.Cert,
		Timeout: cfg.Gradebook.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to build gradebook client: %w", err)
	}

	grades := edxgrades.NewHandler(factory, edxgrades.GradeOptions{
		ApproveGrades:     cfg.Gradebook.ApproveGrades,
		CreateAssignments: cfg.Gradebook.CreateAssignments,
		MaxPointsColumn:   cfg.Gradebook.MaxPointsColumn,
		NormalizeColumn:   cfg.Gradebook.NormalizeColumn,
	})

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	server := api.NewServer(cfg.Server, store, grades)
	return server.Start(ctx)
}
