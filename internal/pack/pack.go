package pack

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sitepack/sitepack/internal/config"
	packerrors "github.com/sitepack/sitepack/internal/errors"
	"github.com/sitepack/sitepack/internal/logging"
	"github.com/sitepack/sitepack/internal/transform"
)

// Packer is the top-level build coordinator. One Packer can run any number
// of sequential build cycles; each cycle discovers pages and special files,
// populates pages, builds the referenced asset union, builds every page, and
// reconciles the output tree with the new keep-set.
type Packer struct {
	cfg      *config.Config
	logger   logging.Logger
	minifier *transform.Minifier
	bundler  *transform.Bundler
	version  string
}

// New creates a Packer. version is written verbatim into the manifest.
func New(cfg *config.Config, logger logging.Logger, version string) *Packer {
	return &Packer{
		cfg:      cfg,
		logger:   logger.WithComponent("packer"),
		minifier: transform.NewMinifier(),
		bundler:  transform.NewBundler(),
		version:  version,
	}
}

// Pack runs one build cycle. With force set the existing manifest is
// ignored and everything is reprocessed.
//
// A cycle either fully succeeds (outputs written, stale files cleaned, new
// manifest persisted) or fails with the previous manifest untouched. When
// nothing changed the cycle is a no-op: no writes at all.
func (p *Packer) Pack(ctx context.Context, force bool) error {
	started := time.Now()
	outputRoot := p.cfg.OutputSiteRoot()

	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeWriteFailed, "failed to create output root", err).WithFile(outputRoot)
	}

	old := NewManifest()
	if !force {
		var loaded bool
		if old, loaded = LoadManifest(p.cfg.ManifestPath()); !loaded {
			p.logger.Info(ctx, "no usable manifest, performing full build")
		}
	}

	env := &buildEnv{
		sourceRoot:  p.cfg.Source,
		outputRoot:  outputRoot,
		precompress: p.cfg.Build.Precompress,
		old:         old,
		next:        NewManifest(),
		pages:       make(map[string]*Page),
		assets:      make(map[string]*Asset),
		minifier:    p.minifier,
		bundler:     p.bundler,
		logger:      p.logger,
	}

	specials, err := p.discover(env)
	if err != nil {
		return err
	}

	p.logger.Info(ctx, "source tree discovered",
		"pages", len(env.pages),
		"special_files", len(specials),
	)

	if err := p.populatePages(ctx, env); err != nil {
		return err
	}

	if err := p.buildAssets(ctx, env, specials); err != nil {
		return err
	}

	written, err := p.buildPages(ctx, env)
	if err != nil {
		return err
	}

	if written == 0 {
		if assetChanged(env.assets) {
			// Known lag: an asset changed but no page output moved, so the
			// manifest keeps the asset's previous record until a page build
			// forces the next persist.
			p.logger.Warn(ctx, nil, "assets changed but no page was rebuilt; manifest left as-is")
		}
		p.logger.Info(ctx, "nothing to do", "duration", time.Since(started).String())

		return nil
	}

	if err := cleanupOutput(ctx, outputRoot, p.keepSet(env), p.logger.WithComponent("cleanup")); err != nil {
		return err
	}

	env.next.Version = p.version
	if err := env.next.Save(p.cfg.ManifestPath()); err != nil {
		return err
	}

	p.logger.Info(ctx, "pack complete",
		"pages_written", written,
		"assets", len(env.assets),
		"duration", time.Since(started).String(),
	)

	return nil
}

// discover walks the source tree, instantiating a Page for every page file
// and collecting pathnames of specially-named files to track as assets.
// Everything else is only an artifact if some page references it.
func (p *Packer) discover(env *buildEnv) ([]string, error) {
	var specials []string

	err := filepath.WalkDir(env.sourceRoot, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return packerrors.NewIOError(packerrors.ErrCodeWalkFailed, "failed to walk source tree", err).WithFile(fullPath)
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(env.sourceRoot, fullPath)
		if err != nil {
			return packerrors.NewInternalError(packerrors.ErrCodeInternalFailure, "failed to relativize path", err)
		}
		pathname := NormalizePathname(rel)

		switch {
		case IsPagePathname(pathname):
			rec, known := env.old.Page(pathname)
			env.pages[pathname] = NewPage(pathname, rec, known)
		case IsSpecialName(d.Name()):
			specials = append(specials, pathname)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return specials, nil
}

// populatePages extracts asset references from every discovered page
// concurrently.
func (p *Packer) populatePages(ctx context.Context, env *buildEnv) error {
	tasks := make([]func() error, 0, len(env.pages))
	for _, page := range env.pages {
		page := page
		tasks = append(tasks, func() error { return page.Populate(ctx, env) })
	}

	return runAll(tasks)
}

// buildAssets builds the union of all referenced assets: the special files
// plus every non-page reference found across every populated page.
func (p *Packer) buildAssets(ctx context.Context, env *buildEnv, specials []string) error {
	union := make(map[string]bool, len(specials))
	for _, pathname := range specials {
		union[pathname] = true
	}
	for _, page := range env.pages {
		for _, ref := range page.References {
			if !IsPagePathname(ref.Pathname) {
				union[ref.Pathname] = true
			}
		}
	}

	pathnames := make([]string, 0, len(union))
	for pathname := range union {
		pathnames = append(pathnames, pathname)
	}
	sort.Strings(pathnames)

	tasks := make([]func() error, 0, len(pathnames))
	for _, pathname := range pathnames {
		rec, known := env.old.Asset(pathname)
		asset := NewAsset(pathname, rec, known)
		env.assets[pathname] = asset
		tasks = append(tasks, func() error { return asset.Build(ctx, env) })
	}

	if err := runAll(tasks); err != nil {
		return err
	}

	for pathname, asset := range env.assets {
		env.next.SetAsset(pathname, asset.Record())
	}

	return nil
}

// buildPages builds every top-level page concurrently and returns how many
// page outputs were written.
func (p *Packer) buildPages(ctx context.Context, env *buildEnv) (int, error) {
	var written atomic.Int64
	env.pagesWritten = &written

	tasks := make([]func() error, 0, len(env.pages))
	for _, page := range env.pages {
		page := page
		tasks = append(tasks, func() error { return page.Build(ctx, env, true, nil) })
	}

	if err := runAll(tasks); err != nil {
		return 0, err
	}

	for pathname, page := range env.pages {
		env.next.SetPage(pathname, page.Record())
	}

	return int(written.Load()), nil
}

// keepSet builds the set of absolute output paths that must survive
// cleanup: every built asset, every non-private page output, their
// precompressed siblings, and the manifest itself.
func (p *Packer) keepSet(env *buildEnv) map[string]bool {
	keep := make(map[string]bool, len(env.assets)+len(env.pages)+1)

	add := func(pathname string) {
		abs := env.outputPath(pathname)
		keep[abs] = true
		if env.precompress && isPrecompressible(pathname) {
			keep[abs+".br"] = true
		}
	}

	for _, asset := range env.assets {
		if asset.OutPathname != "" {
			add(asset.OutPathname)
		}
	}
	for _, page := range env.pages {
		if !page.IsPrivate() {
			add(page.OutPathname())
		}
	}

	keep[p.cfg.ManifestPath()] = true

	return keep
}

func assetChanged(assets map[string]*Asset) bool {
	for _, asset := range assets {
		if asset.Changed {
			return true
		}
	}

	return false
}

// runAll executes tasks with bounded parallelism; every task runs to
// completion and the first error is returned.
func runAll(tasks []func() error) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	semaphore := make(chan struct{}, 8)

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func() error) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			errs[i] = task()
		}(i, task)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
