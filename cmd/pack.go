package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sitepack/sitepack/internal/pack"
	"github.com/sitepack/sitepack/internal/version"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Build the site into the output tree",
	Long: `Build every page and referenced asset from the source tree into the
output tree, incrementally: files whose modification time has not advanced
past the persisted manifest are skipped.

Examples:
  sitepack pack                   # Incremental build
  sitepack pack --force           # Full rebuild, ignoring the manifest
  sitepack pack --precompress     # Also emit .br siblings for text outputs`,
	RunE: runPack,
}

var packForce bool

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().BoolVarP(&packForce, "force", "f", false, "Ignore the existing manifest and rebuild everything")
	packCmd.Flags().Bool("precompress", false, "Write brotli-compressed siblings next to text outputs")

	_ = viper.BindPFlag("build.precompress", packCmd.Flags().Lookup("precompress"))
}

func runPack(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	packer := pack.New(cfg, logger, version.GetShortVersion())

	return packer.Pack(cmd.Context(), packForce)
}
