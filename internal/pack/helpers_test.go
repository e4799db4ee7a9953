package pack

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitepack/sitepack/internal/logging"
	"github.com/sitepack/sitepack/internal/transform"
)

// newTestEnv builds a buildEnv over fresh temp source and output roots.
func newTestEnv(t *testing.T) *buildEnv {
	t.Helper()

	return &buildEnv{
		sourceRoot:   t.TempDir(),
		outputRoot:   t.TempDir(),
		old:          NewManifest(),
		next:         NewManifest(),
		pages:        make(map[string]*Page),
		assets:       make(map[string]*Asset),
		minifier:     transform.NewMinifier(),
		bundler:      transform.NewBundler(),
		logger:       logging.NopLogger{},
		pagesWritten: &atomic.Int64{},
	}
}

// writeSource creates a source file at the given web-rooted pathname.
func writeSource(t *testing.T, env *buildEnv, pathname, content string) {
	t.Helper()

	full := env.sourcePath(pathname)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

// bumpModTime advances a source file's modification time so a rebuild sees
// it as changed regardless of filesystem timestamp granularity.
func bumpModTime(t *testing.T, path string) {
	t.Helper()

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
}

// readOutput reads a file from the output tree by pathname.
func readOutput(t *testing.T, env *buildEnv, pathname string) string {
	t.Helper()

	data, err := os.ReadFile(env.outputPath(pathname))
	require.NoError(t, err)

	return string(data)
}

// outputExists reports whether an output pathname exists on disk.
func outputExists(env *buildEnv, pathname string) bool {
	_, err := os.Stat(env.outputPath(pathname))

	return err == nil
}
