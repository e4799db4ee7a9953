package pack

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	packerrors "github.com/sitepack/sitepack/internal/errors"
	"github.com/sitepack/sitepack/internal/logging"
)

// cleanupOutput removes every file under outputRoot that is not in the
// keep-set, then prunes directories left without any kept entry. The walk is
// bottom-up and only schedules work; file deletions execute concurrently
// once the walk completes, directory removals follow deepest-first.
func cleanupOutput(ctx context.Context, outputRoot string, keep map[string]bool, logger logging.Logger) error {
	var staleFiles []string
	var emptyDirs []string

	var walk func(dir string) (kept int, err error)
	walk = func(dir string) (int, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return 0, packerrors.NewIOError(packerrors.ErrCodeCleanupFailed, "failed to read output directory", err).WithFile(dir)
		}

		kept := 0
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())

			if entry.IsDir() {
				subKept, err := walk(full)
				if err != nil {
					return 0, err
				}
				if subKept == 0 {
					emptyDirs = append(emptyDirs, full)
				}
				kept += subKept

				continue
			}

			if keep[full] {
				kept++
			} else {
				staleFiles = append(staleFiles, full)
			}
		}

		return kept, nil
	}

	if _, err := walk(outputRoot); err != nil {
		return err
	}

	if len(staleFiles) == 0 && len(emptyDirs) == 0 {
		return nil
	}

	logger.Info(ctx, "cleaning stale output",
		"files", len(staleFiles),
		"directories", len(emptyDirs),
	)

	errs := make([]error, len(staleFiles))
	semaphore := make(chan struct{}, 8)

	var wg sync.WaitGroup
	for i, file := range staleFiles {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := os.Remove(file); err != nil {
				errs[i] = packerrors.NewIOError(packerrors.ErrCodeCleanupFailed, "failed to delete stale output", err).WithFile(file)
			}
		}(i, file)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	// emptyDirs is deepest-first: children were appended during recursion
	// before their parent was considered.
	for _, dir := range emptyDirs {
		if err := os.Remove(dir); err != nil {
			return packerrors.NewIOError(packerrors.ErrCodeCleanupFailed, "failed to delete empty output directory", err).WithFile(dir)
		}
	}

	return nil
}
