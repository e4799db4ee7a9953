package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sitepack/sitepack/internal/pack"
	"github.com/sitepack/sitepack/internal/server"
	"github.com/sitepack/sitepack/internal/version"
	"github.com/sitepack/sitepack/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built site with live reload",
	Long: `Build the site, serve the output tree over HTTP, and rebuild on source
changes. Connected browsers reload automatically after each rebuild.

Examples:
  sitepack serve                  # Serve on localhost:8080
  sitepack serve --port 3000      # Custom port`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	serveCmd.Flags().String("host", "", "Host to bind to")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	packer := pack.New(cfg, logger, version.GetShortVersion())

	if err := packer.Pack(ctx, false); err != nil {
		return err
	}

	srv := server.New(cfg, logger)

	fw, err := watcher.NewFileWatcher(300*time.Millisecond, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.SourceFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		logger.Info(ctx, "source changed, repacking", "files", len(events))
		if err := packer.Pack(ctx, false); err != nil {
			return err
		}
		srv.NotifyReload(ctx)

		return nil
	})

	if err := fw.AddRecursive(cfg.Source); err != nil {
		return fmt.Errorf("failed to watch source tree: %w", err)
	}

	fw.Start(ctx)

	return srv.ListenAndServe(ctx)
}
