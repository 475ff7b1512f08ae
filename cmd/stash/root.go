package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stash/internal/config"
	"github.com/aretw0/stash/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stash",
	Short: "Stash is namespaced, lockable session storage",
	Long: `Stash partitions a user session into named namespaces that can be locked
against mutation. It ships an HTTP host, an MCP admin server and inspection tools
over memory, file, redis and sqlite backends.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a dotenv file (ignored when missing)")
	rootCmd.PersistentFlags().String("backend", "", "Session backend: memory, file, redis or sqlite")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig resolves the configuration for cmd. Flags set on the command line
// override the file and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	// Validation runs again once flags are applied.
	cfg, err := config.Load(path, envFile)
	if err != nil && !errors.Is(err, config.ErrInvalidConfig) {
		return cfg, nil, err
	}

	if cmd.Flags().Changed("backend") {
		cfg.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if f := cmd.Flags().Lookup("listen"); f != nil && f.Changed {
		cfg.Listen = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	return cfg, logging.New(level), nil
}
