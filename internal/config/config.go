// Package config provides configuration management for sitepack using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// Configuration is read from .sitepack.yml in the working directory (or the
// file named by SITEPACK_CONFIG_FILE), with environment overrides using the
// SITEPACK_ prefix. The resolved Config is constructed once at process start
// and passed explicitly to every component; nothing reads ambient state
// after Load returns.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved process configuration.
type Config struct {
	Source string       `yaml:"source"`
	Output string       `yaml:"output"`
	Build  BuildConfig  `yaml:"build"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// BuildConfig holds pack-specific options.
type BuildConfig struct {
	Precompress bool `yaml:"precompress"`
}

// ServerConfig holds dev-server options.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ManifestName is the filename of the persisted build manifest, written at
// the root of the output site tree.
const ManifestName = "manifest.json"

// OutputSiteRoot returns the directory the built site is written to. The
// output tree mirrors the source tree's relative structure under a
// subdirectory named after the source root's basename.
func (c *Config) OutputSiteRoot() string {
	return filepath.Join(c.Output, filepath.Base(filepath.Clean(c.Source)))
}

// ManifestPath returns the location of the persisted manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.OutputSiteRoot(), ManifestName)
}

// Load builds a Config from viper state, applying defaults and validating
// the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Workarounds for viper's handling of flag-bound scalars
	if viper.IsSet("source") {
		config.Source = viper.GetString("source")
	}
	if viper.IsSet("output") {
		config.Output = viper.GetString("output")
	}
	if viper.IsSet("build.precompress") {
		config.Build.Precompress = viper.GetBool("build.precompress")
	}
	if viper.IsSet("server.port") {
		config.Server.Port = viper.GetInt("server.port")
	}
	if viper.IsSet("server.host") {
		config.Server.Host = viper.GetString("server.host")
	}
	if viper.IsSet("log-level") {
		config.Log.Level = viper.GetString("log-level")
	}

	// Apply defaults
	if config.Source == "" {
		config.Source = "site"
	}
	if config.Output == "" {
		config.Output = "dist"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness.
func validateConfig(config *Config) error {
	if err := validatePath(config.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := validatePath(config.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d is not in valid range 0-65535", config.Server.Port)
	}

	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q is not one of debug, info, warn, error", config.Log.Level)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q is not one of text, json", config.Log.Format)
	}

	return nil
}

// validatePath validates a file path for security.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
