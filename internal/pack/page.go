package pack

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"

	packerrors "github.com/sitepack/sitepack/internal/errors"
)

// changeState is the three-way rebuild decision for a page.
type changeState int

const (
	// changeNone: neither the page nor anything it references changed.
	changeNone changeState = iota
	// changeSelf: the page file itself has a newer modification time.
	changeSelf
	// changeDependency: the page is untouched but a referenced asset or
	// included fragment changed, so its output is stale.
	changeDependency
)

// Page represents one page file (.html, .shtml or .php). Pages are populated
// first, so every asset reference across the site is known before any asset
// is processed, then built once the asset set is complete.
type Page struct {
	// Pathname is the page's identity: its web-rooted source path.
	Pathname string

	// ModTime is the last-observed modification time in Unix milliseconds.
	ModTime int64

	// Changed is true once this cycle detected a newer modification time or
	// a missing previous record.
	Changed bool

	// References are the recognized tag/import/include occurrences in the
	// page's markup, in extraction order.
	References []Reference

	// code is the page's working text. Only held during a build cycle.
	code string
}

// NewPage creates a page seeded from a previous manifest record, when one
// exists.
func NewPage(pathname string, rec PageRecord, known bool) *Page {
	p := &Page{Pathname: pathname}
	if known {
		p.ModTime = rec.ModTime
		p.References = rec.Assets
	}

	return p
}

// OutPathname returns the page's output pathname, with .shtml rewritten to
// .html.
func (p *Page) OutPathname() string {
	return OutputPagePathname(p.Pathname)
}

// IsPrivate reports whether the page is a fragment meant only for inclusion.
func (p *Page) IsPrivate() bool {
	return IsPrivatePathname(p.Pathname)
}

// Record returns the page's manifest record.
func (p *Page) Record() PageRecord {
	return PageRecord{ModTime: p.ModTime, Assets: p.References}
}

// Populate stats the source file and, when its modification time advanced
// past the recorded one, loads the text and extracts every asset reference.
// An untouched page keeps its manifest-cached reference list and loads its
// text lazily if a build turns out to be needed.
func (p *Page) Populate(ctx context.Context, env *buildEnv) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	srcPath := env.sourcePath(p.Pathname)

	info, err := os.Stat(srcPath)
	if err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeStatFailed, "failed to stat page", err).WithFile(srcPath)
	}

	modTime := info.ModTime().UnixMilli()
	if p.ModTime >= modTime {
		return nil
	}

	p.Changed = true
	p.ModTime = modTime

	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeReadFailed, "failed to read page", err).WithFile(srcPath)
	}

	p.code = string(raw)
	p.References = ExtractReferences(p.code)

	return nil
}

// changeStateIn decides whether the page needs rebuilding this cycle.
func (p *Page) changeStateIn(env *buildEnv) changeState {
	if p.Changed {
		return changeSelf
	}

	for _, ref := range p.References {
		if a, ok := env.assets[ref.Pathname]; ok && a.Changed {
			return changeDependency
		}
		if pg, ok := env.pages[ref.Pathname]; ok && pg.Changed {
			return changeDependency
		}
	}

	return changeNone
}

// Build resolves the page into final output. With writeOutput set the result
// is minified and written under the output root; without it (or for private
// fragments) the rendered code stays in memory for a parent include.
//
// chain carries the pathnames currently being resolved above this page, so a
// circular include fails with the full chain instead of recursing forever.
func (p *Page) Build(ctx context.Context, env *buildEnv, writeOutput bool, chain []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Incremental fast path: an untouched page with untouched dependencies
	// costs nothing.
	if writeOutput && p.changeStateIn(env) == changeNone {
		return nil
	}

	if p.code == "" {
		raw, err := os.ReadFile(env.sourcePath(p.Pathname))
		if err != nil {
			return packerrors.NewIOError(packerrors.ErrCodeReadFailed, "failed to read page", err).WithFile(p.Pathname)
		}
		p.code = string(raw)
	}

	if strings.HasSuffix(strings.ToLower(p.Pathname), ".shtml") {
		if err := p.resolveIncludes(ctx, env, chain); err != nil {
			return err
		}
	}

	p.rewriteAssetReferences(ctx, env)

	if !writeOutput || p.IsPrivate() {
		return nil
	}

	minified, err := env.minifier.HTML(p.Pathname, p.code)
	if err != nil {
		return err
	}

	env.logger.Debug(ctx, "page built",
		"pathname", p.Pathname,
		"out", p.OutPathname(),
	)

	if err := env.writeOutput(p.OutPathname(), []byte(minified)); err != nil {
		return err
	}

	if env.pagesWritten != nil {
		env.pagesWritten.Add(1)
	}

	return nil
}

// resolveIncludes builds every SSI include target as a fresh in-memory page
// and substitutes the rendered fragment at the exact match site. All nested
// builds for the page complete before any substitution is applied.
func (p *Page) resolveIncludes(ctx context.Context, env *buildEnv, chain []string) error {
	var includes []Reference
	for _, ref := range p.References {
		if IsPagePathname(ref.Pathname) {
			includes = append(includes, ref)
		}
	}
	if len(includes) == 0 {
		return nil
	}

	chain = append(slices.Clone(chain), p.Pathname)

	codes := make([]string, len(includes))
	errs := make([]error, len(includes))

	var wg sync.WaitGroup
	for i, ref := range includes {
		wg.Add(1)
		go func(i int, ref Reference) {
			defer wg.Done()

			if slices.Contains(chain, ref.Pathname) {
				errs[i] = packerrors.ErrIncludeCycle(append(slices.Clone(chain), ref.Pathname))

				return
			}

			nested := env.nestedPage(ref.Pathname)
			if err := nested.Populate(ctx, env); err != nil {
				errs[i] = err

				return
			}
			if err := nested.Build(ctx, env, false, chain); err != nil {
				errs[i] = err

				return
			}
			codes[i] = nested.code
		}(i, ref)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for i, ref := range includes {
		p.code = strings.Replace(p.code, ref.Match, codes[i], 1)
	}

	return nil
}

// rewriteAssetReferences substitutes each referenced pathname with its
// asset's resolved output pathname, inside the literal matched span only.
func (p *Page) rewriteAssetReferences(ctx context.Context, env *buildEnv) {
	for _, ref := range p.References {
		if IsPagePathname(ref.Pathname) {
			continue
		}

		asset, ok := env.assets[ref.Pathname]
		if !ok || asset.OutPathname == "" {
			// Referenced file is absent this cycle. Leave the markup as-is
			// rather than break the page.
			env.logger.Warn(ctx, nil, "reference to missing asset left unrewritten",
				"page", p.Pathname,
				"asset", ref.Pathname,
			)

			continue
		}

		rewritten := strings.Replace(ref.Match, ref.Pathname, asset.OutPathname, 1)
		p.code = strings.Replace(p.code, ref.Match, rewritten, 1)
	}
}
