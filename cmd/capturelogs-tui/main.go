package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/capture-logs/capture-logs/internal/client"
	"github.com/capture-logs/capture-logs/internal/logging"
	"github.com/capture-logs/capture-logs/internal/tui"
	"github.com/capture-logs/capture-logs/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := newViper()
	var configPath string

	root := &cobra.Command{
		Use:           "capturelogs-tui",
		Short:         "Browse capture detection logs in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig(v, configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/capture-logs/config.yml)")
	root.Flags().String("api-url", "", "search API base URL")
	root.Flags().Int("page-size", 0, "initial page size (20, 50 or 100)")
	root.Flags().Bool("drop-filter-on-resize", false, "send page size changes without the active filter")
	for _, name := range []string{"api-url", "page-size", "drop-filter-on-resize"} {
		_ = v.BindPFlag(name, root.Flags().Lookup(name))
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "capturelogs-tui - Capture Log Viewer\n")
			fmt.Fprintf(out, "  Version:    %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Built:      %s\n", buildTime)
			fmt.Fprintf(out, "  Go version: %s\n", goVersion)
		},
	})
	return root
}

func runTUI(ctx context.Context, cfg cliConfig) error {
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = logging.DefaultStateFile("capture-logs")
	}
	// The terminal belongs to the UI; logs go to a file.
	logger, err := logging.New("capturelogs-tui", logging.Config{Level: cfg.LogLevel, Format: "json", File: logFile})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	api := client.New(cfg.APIURL)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	count, err := api.Health(pingCtx)
	cancel()
	if err != nil {
		logger.Warn("health check failed", zap.String("api_url", cfg.APIURL), zap.Error(err))
	} else {
		logger.Info("connected", zap.String("api_url", cfg.APIURL), zap.Int64("log_count", count))
	}

	table := tui.NewLogTable(tui.Config{
		Searcher:     api,
		Logger:       logger,
		PageSize:     cfg.PageSize,
		FetchTimeout: cfg.FetchTimeout,
		Options:      view.Options{DropFilterOnResize: cfg.DropFilterOnResize},
	})

	p := tea.NewProgram(table, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
