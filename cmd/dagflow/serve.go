package main

import (
	"os"
	"path/filepath"

	cblog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dagflow/dagflow/internal/api"
	"github.com/dagflow/dagflow/internal/config"
	"github.com/dagflow/dagflow/internal/exec"
	"github.com/dagflow/dagflow/internal/logx"
	"github.com/dagflow/dagflow/internal/pipeline"
	"github.com/dagflow/dagflow/internal/ports"
)

func newServeCmd(flags *rootFlags, logger ports.Logger) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP registration endpoint and the periodic DAG trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.ServiceConfig{Version: "1.0", Name: "dagflow", DagsDir: flags.dagsDir}
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfg.ApplyDefaults()

			// The Postgres connection file is optional: the engine never
			// opens a DB connection itself (SPEC_FULL.md §3.1, "explicitly
			// out of scope"), so a missing .postgres file is not an error,
			// only a missed opportunity to report config in logs.
			pgPath := filepath.Join(cfg.ConfigDir, ".postgres")
			if _, statErr := os.Stat(pgPath); statErr == nil {
				pg, pgErr := config.LoadPostgresINI(pgPath)
				if pgErr != nil {
					return pgErr
				}
				cfg.Postgres = pg
			}

			// Rebuild the logger against the loaded config's level and
			// format, since main.go constructs the default one before any
			// --config flag is parsed.
			formatter := cblog.JSONFormatter
			if cfg.HumanReadable {
				formatter = cblog.TextFormatter
			}
			serviceLogger, err := logx.New(logx.Options{Level: cfg.LogLevel, Component: "serve", Layer: "api", Formatter: formatter})
			if err != nil {
				return err
			}
			logger = serviceLogger

			ctx := cmd.Context()
			logger.Info(ctx, "starting dagflow service", "listen_addr", cfg.ListenAddr, "dags_dir", cfg.DagsDir, "jobs_dir", cfg.JobsDir, "log_level", cfg.LogLevel)
			if cfg.Postgres != nil {
				logger.Info(ctx, "loaded postgres config", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
			}

			mode := exec.ThreadPool
			switch cfg.Execution.Mode {
			case "sequential":
				mode = exec.Sequential
			case "cooperative":
				mode = exec.Cooperative
			}

			demo, err := buildDemoPipeline(pipeline.Options{
				QueueBackend: cfg.Execution.QueueBackend,
				ExecMode:     mode,
				Workers:      cfg.Execution.Workers,
				GCEnabled:    cfg.Execution.GCEnabled,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			reg := demoRegistry(demo)

			server := api.NewServer(cfg.DagsDir, logger)

			trigger := &api.Trigger{
				DagsDir:      cfg.DagsDir,
				Registry:     reg,
				Interval:     cfg.PollInterval,
				Mode:         mode,
				Workers:      cfg.Execution.Workers,
				GCEnabled:    cfg.Execution.GCEnabled,
				QueueBackend: cfg.Execution.QueueBackend,
				Logger:       logger,
			}

			errCh := make(chan error, 2)
			go func() { errCh <- trigger.Run(ctx) }()
			go func() { errCh <- server.ListenAndServe(ctx, cfg.ListenAddr) }()

			return <-errCh
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a dagflow.yaml service configuration file")
	return cmd
}
