package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/durafsm/internal/config"
	"github.com/aretw0/durafsm/internal/logging"
)

var (
	cfg      config.Config
	logger   *slog.Logger
	shutdown = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "durafsm",
	Short: "durafsm manages persistent finite state machines",
	Long: `durafsm validates YAML machine definitions, drives actors through them and
inspects the snapshots kept in a file, Redis or SQL store.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  loadConfig,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", ".env", "Dotenv file read before the environment")
	flags.StringP("machine", "m", "", "Path to the YAML machine definition (DURAFSM_MACHINE)")
	flags.String("store", "", "Snapshot store: file, redis, sql or memory (DURAFSM_STORE)")
	flags.String("dir", "", "Directory of the file store (DURAFSM_DIR)")
	flags.String("codec", "", "Snapshot encoding: json or yaml (DURAFSM_CODEC)")
	flags.String("redis-url", "", "Redis URL (DURAFSM_REDIS_URL)")
	flags.String("redis-prefix", "", "Redis key prefix (DURAFSM_REDIS_PREFIX)")
	flags.String("database-url", "", "Database URL, postgres://... or sqlite:file:... (DURAFSM_DATABASE_URL)")
	flags.String("namespace", "", "SQL namespace (DURAFSM_NAMESPACE)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (DURAFSM_LOG_LEVEL)")
	flags.Bool("trace", false, "Print OpenTelemetry spans of adapter calls to stderr (DURAFSM_TRACE)")
}

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")

	loaded, err := config.Load(envFile)
	if err != nil {
		return err
	}

	overrides := map[string]*string{
		"machine":      &loaded.Machine,
		"store":        &loaded.Store,
		"dir":          &loaded.Dir,
		"codec":        &loaded.Codec,
		"redis-url":    &loaded.RedisURL,
		"redis-prefix": &loaded.RedisPrefix,
		"database-url": &loaded.DatabaseURL,
		"namespace":    &loaded.Namespace,
		"log-level":    &loaded.LogLevel,
	}
	for name, target := range overrides {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}

	if flags.Changed("trace") {
		loaded.Trace, _ = flags.GetBool("trace")
	}

	if err := loaded.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(loaded.LogLevel)
	cfg = loaded
	logger = logging.NewWithWriter(cmd.ErrOrStderr(), level, loaded.LogJSON)

	if cfg.Trace {
		stop, err := initTelemetry(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to start tracing: %w", err)
		}
		shutdown = stop
	}
	return nil
}
