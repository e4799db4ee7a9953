// Package cmd provides the command-line interface for sitepack.
//
// Configuration is layered, highest priority first:
//  1. Command-line flags (--source, --output, --port, ...)
//  2. SITEPACK_CONFIG_FILE environment variable (custom config file path)
//  3. Individual environment variables (SITEPACK_SOURCE, SITEPACK_SERVER_PORT, ...)
//  4. .sitepack.yml in the working directory
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sitepack/sitepack/internal/config"
	"github.com/sitepack/sitepack/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sitepack",
	Short: "Static-site asset pipeline with incremental rebuilds",
	Long: `Sitepack scans a source tree of HTML/SHTML/PHP pages and their referenced
assets, bundles and minifies each asset with a content-hashed output name,
resolves SSI includes recursively, rewrites in-page references to the
processed outputs, and writes the result to an output tree.

Incremental rebuilds are driven by a persisted manifest; stale output files
from previous builds are garbage-collected.

Quick Start:
  sitepack init                   Scaffold a .sitepack.yml
  sitepack pack                   Build the site
  sitepack watch                  Rebuild on source changes
  sitepack serve                  Dev server with live reload`,
}

// Execute adds all child commands to the root command and runs it. The
// command context is cancelled on interrupt so watch and serve shut down
// cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .sitepack.yml, can also use SITEPACK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("source", "s", "", "source tree root")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output tree root")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig wires viper to the config file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SITEPACK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sitepack")
	}

	viper.SetEnvPrefix("SITEPACK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file degrades to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfigAndLogger resolves the process configuration and builds the root
// logger from it.
func loadConfigAndLogger() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	return cfg, logger, nil
}
