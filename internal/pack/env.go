package pack

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sitepack/sitepack/internal/logging"
	"github.com/sitepack/sitepack/internal/transform"
)

// buildEnv is the shared state of one build cycle. The previous manifest is
// read-only during the build; pages and assets each write a distinct key of
// the next manifest, so the only synchronization needed is the manifest's
// own mutex.
type buildEnv struct {
	sourceRoot  string
	outputRoot  string
	precompress bool

	old  *Manifest
	next *Manifest

	// pagesWritten counts top-level page outputs actually written this
	// cycle. It gates cleanup and manifest persistence.
	pagesWritten *atomic.Int64

	pages  map[string]*Page
	assets map[string]*Asset

	minifier *transform.Minifier
	bundler  *transform.Bundler
	logger   logging.Logger
}

// sourcePath resolves a pathname against the source root.
func (env *buildEnv) sourcePath(pathname string) string {
	return filepath.Join(env.sourceRoot, filepath.FromSlash(strings.TrimPrefix(pathname, "/")))
}

// outputPath resolves an output pathname against the output site root.
func (env *buildEnv) outputPath(pathname string) string {
	return filepath.Join(env.outputRoot, filepath.FromSlash(strings.TrimPrefix(pathname, "/")))
}

// nestedPage constructs a fresh page builder for an SSI include target,
// seeded from the previous manifest. Includes are always built on their own
// instance so a concurrently building top-level page never shares state with
// the fragment resolving inside another page.
func (env *buildEnv) nestedPage(pathname string) *Page {
	rec, known := env.old.Page(pathname)

	return NewPage(pathname, rec, known)
}
