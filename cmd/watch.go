package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitepack/sitepack/internal/pack"
	"github.com/sitepack/sitepack/internal/version"
	"github.com/sitepack/sitepack/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the site whenever a source file changes",
	Long: `Run an initial build, then watch the source tree and run an incremental
rebuild for every debounced batch of changes. Stops on interrupt.`,
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Delay before a change batch triggers a rebuild")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	packer := pack.New(cfg, logger, version.GetShortVersion())

	if err := packer.Pack(ctx, false); err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.SourceFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		logger.Info(ctx, "source changed, repacking", "files", len(events))

		return packer.Pack(ctx, false)
	})

	if err := fw.AddRecursive(cfg.Source); err != nil {
		return fmt.Errorf("failed to watch source tree: %w", err)
	}

	fw.Start(ctx)

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.Source)
	<-ctx.Done()

	return nil
}
