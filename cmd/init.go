package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sitepack/sitepack/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a .sitepack.yml in the current directory",
	RunE:  runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing .sitepack.yml")
}

const configFileName = ".sitepack.yml"

func runInit(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(configFileName); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
		}
	}

	defaults := config.Config{
		Source: "site",
		Output: "dist",
		Server: config.ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Log: config.LogConfig{
			Level:  "info",
			Format: "text",
		},
	}

	data, err := yaml.Marshal(&defaults)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	header := []byte("# sitepack configuration\n# Values can be overridden with SITEPACK_* environment variables.\n")
	if err := os.WriteFile(configFileName, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFileName, err)
	}

	fmt.Println("Wrote", configFileName)

	return nil
}
