package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capture-logs/capture-logs/internal/httpserver"
	"github.com/capture-logs/capture-logs/internal/logging"
	"github.com/capture-logs/capture-logs/internal/metrics"
	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/search"
	"github.com/capture-logs/capture-logs/internal/store"
	"github.com/capture-logs/capture-logs/internal/store/migrate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// errStoreNotEmpty stops demo seeding from colliding with real rows.
var errStoreNotEmpty = errors.New("store already holds logs")

// runServer serves the search API until ctx is cancelled, then drains
// in-flight requests and closes the store.
func runServer(ctx context.Context, cfg appConfig) error {
	logger, err := logging.New("capturelogs", logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	st, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if cfg.SeedDemo {
		switch err := seedDemo(ctx, st, cfg.DemoRows); {
		case errors.Is(err, errStoreNotEmpty):
			logger.Info("demo seed skipped", zap.String("reason", err.Error()))
		case err != nil:
			return fmt.Errorf("failed to seed demo data: %w", err)
		default:
			logger.Info("demo data loaded", zap.Int("rows", cfg.DemoRows))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := httpserver.NewServer(httpserver.Config{
		Addr:     cfg.HTTPAddr(),
		TLSAddr:  cfg.HTTPSAddr(),
		CertFile: cfg.TLSCertFile,
		KeyFile:  cfg.TLSKeyFile,
		Logger:   logger,
		Metrics:  metrics.New(reg),
	}, search.NewService(st, logger), st)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	logger.Info("capturelogs started",
		zap.String("version", version),
		zap.Stringers("addrs", srv.Addrs()),
		zap.String("driver", st.Driver()),
		zap.String("config", cfg.ConfigPath),
		zap.Bool("tls", cfg.HTTPSAddr() != ""),
	)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("capturelogs stopped")
	return nil
}

// seedDemo loads n demo rows into an empty store.
func seedDemo(ctx context.Context, st *store.Store, n int) error {
	count, err := st.CountLogs(ctx, model.Filter{})
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w (%d rows)", errStoreNotEmpty, count)
	}
	return store.Seed(ctx, st, n, time.Now().UTC())
}

func newMigrateCmd(v *viper.Viper, configPath *string) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, *configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			storeCfg := cfg.StoreConfig()
			storeCfg.AutoMigrate = false
			st, err := store.Open(cmd.Context(), storeCfg)
			if err != nil {
				return err
			}
			defer st.Close()

			runner := migrate.NewRunner(st.DB())
			if !statusOnly {
				if err := runner.Run(cmd.Context()); err != nil {
					return err
				}
			}
			rep, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schema version %d, %d pending\n", rep.Current, len(rep.Pending))
			for _, name := range rep.Pending {
				fmt.Fprintf(out, "  pending %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report the schema version without migrating")
	return cmd
}

func newSeedCmd(v *viper.Viper, configPath *string) *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo capture logs into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, *configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			st, err := store.Open(cmd.Context(), cfg.StoreConfig())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := seedDemo(cmd.Context(), st, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d demo logs\n", rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", defaultDemoRows, "number of demo logs")
	return cmd
}
