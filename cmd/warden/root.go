package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/config"
	"agentgov/warden/pkg/registry"
	"agentgov/warden/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile      string
	registryRoot string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - governance engine for autonomous agent skills",
	Long: `Warden governs what autonomous agents may do. Skills are defined as
YAML documents in a registry; warden validates them, gates which agents
may use them, renders the instruction files agents consume, and
enforces workflow control points at runtime.

Exit codes:
  0  success
  1  failure (invalid document, denied access, command error)
  2  vetoed control point fired; halt immediately`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and applies the exit code protocol.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var exitErr *cli.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(cli.ExitError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&registryRoot, "registry", "", "skill registry root (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration file and applies global flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if registryRoot != "" {
		cfg.Registry.Root = registryRoot
	}
	return cfg, nil
}

// newLogger builds the logger from config plus the verbose flag.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
}

// openRegistry loads the registry from the configured root, syncing
// from git first when configured.
func openRegistry(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger) (*registry.Registry, error) {
	if cfg.Registry.Git != nil {
		src := &registry.GitSource{
			URL:    cfg.Registry.Git.URL,
			Branch: cfg.Registry.Git.Branch,
			Dir:    cfg.Registry.Root,
			Logger: logger,
		}
		if err := src.Sync(cmd.Context()); err != nil {
			return nil, err
		}
	}

	reg := registry.New(registry.WithLogger(logger))
	if _, err := reg.Reload(cfg.Registry.Root); err != nil {
		return nil, err
	}
	return reg, nil
}
