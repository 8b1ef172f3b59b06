package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
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

// newRootCmd wires the server command and its subcommands to one viper
// instance so flags, env and config file resolve the same keys.
func newRootCmd() *cobra.Command {
	v := newViper()
	var configPath string

	root := &cobra.Command{
		Use:           "capturelogs",
		Short:         "Capture detection log search API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/capture-logs/config.yml)")
	flags.String("db-driver", "", "database driver: duckdb or pgx")
	flags.String("db-path", "", "DuckDB file path (empty string keeps the default)")
	flags.String("db-dsn", "", "database DSN for the pgx driver")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	bindFlags(v, flags, "db-driver", "db-path", "db-dsn", "log-level")

	root.Flags().Int("port", defaultPort, "plain HTTP port")
	root.Flags().Bool("seed-demo", false, "load demo rows into an empty store at startup")
	bindFlags(v, root.Flags(), "port", "seed-demo")

	root.AddCommand(newVersionCmd(), newMigrateCmd(v, &configPath), newSeedCmd(v, &configPath))
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = v.BindPFlag(name, fs.Lookup(name))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "capturelogs - Capture Log Search API\n")
			fmt.Fprintf(out, "  Version:    %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Built:      %s\n", buildTime)
			fmt.Fprintf(out, "  Go version: %s\n", goVersion)
		},
	}
}
