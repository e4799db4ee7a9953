package pack

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	packerrors "github.com/sitepack/sitepack/internal/errors"
	"github.com/sitepack/sitepack/internal/hash"
)

// Asset represents one non-page source file: a script, stylesheet, image, or
// specially-named server file. An asset knows how to decide whether it
// changed this cycle, process its content, and compute its output name.
type Asset struct {
	// Pathname is the asset's identity: its web-rooted source path.
	Pathname string

	// ModTime is the last-observed modification time in Unix milliseconds.
	ModTime int64

	// Changed is true once this cycle detected a newer modification time or
	// a missing previous record.
	Changed bool

	// OutName is the generated output filename: content hash plus extension,
	// or the original basename for specially-named files.
	OutName string

	// OutPathname is OutName joined with the asset's source directory. It is
	// only meaningful once the asset has been built at least once, this run
	// or a previous one.
	OutPathname string
}

// NewAsset creates an asset seeded from a previous manifest record, when one
// exists.
func NewAsset(pathname string, rec AssetRecord, known bool) *Asset {
	a := &Asset{Pathname: pathname}
	if known {
		a.ModTime = rec.ModTime
		a.OutName = rec.OutName
		if rec.OutName != "" {
			a.OutPathname = path.Join(path.Dir(pathname), rec.OutName)
		}
	}

	return a
}

// Record returns the asset's manifest record.
func (a *Asset) Record() AssetRecord {
	return AssetRecord{ModTime: a.ModTime, OutName: a.OutName}
}

// Build stats the asset's source file and, when it changed since the last
// recorded build, transforms and writes the output file.
//
// A missing source file is a silent no-op: the asset is simply absent this
// cycle. Pages referencing it must tolerate an empty OutPathname, which in
// practice only happens when a referenced file was deleted between runs.
func (a *Asset) Build(ctx context.Context, env *buildEnv) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	srcPath := env.sourcePath(a.Pathname)

	info, err := os.Stat(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeStatFailed, "failed to stat asset", err).WithFile(srcPath)
	}

	modTime := info.ModTime().UnixMilli()
	if a.ModTime >= modTime {
		return nil
	}

	a.Changed = true
	a.ModTime = modTime

	// Page extensions are owned by the page builder, never processed here.
	ext := strings.ToLower(path.Ext(a.Pathname))
	if pageExtensions[ext] {
		return nil
	}

	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeReadFailed, "failed to read asset", err).WithFile(srcPath)
	}

	var output []byte
	switch {
	case bundledExtensions[ext]:
		output, err = a.bundle(env, srcPath, ext)
		if err != nil {
			return err
		}
		a.OutName = hash.Content(raw) + ext

	case IsSpecialName(path.Base(a.Pathname)):
		output = raw
		a.OutName = path.Base(a.Pathname)
		if a.OutName == ".htaccess" {
			// SHTML sources always resolve to .html outputs, so server rules
			// must follow.
			output = []byte(strings.ReplaceAll(string(raw), ".shtml", ".html"))
		}

	default:
		output = raw
		a.OutName = hash.Content(raw) + ext
	}

	a.OutPathname = path.Join(path.Dir(a.Pathname), a.OutName)

	env.logger.Debug(ctx, "asset built",
		"pathname", a.Pathname,
		"out", a.OutPathname,
		"bytes", len(output),
	)

	return env.writeOutput(a.OutPathname, output)
}

// bundle resolves the entry's internal imports into one artifact and
// minifies it for its content type.
func (a *Asset) bundle(env *buildEnv, srcPath, ext string) ([]byte, error) {
	bundled, err := env.bundler.Bundle(a.Pathname, srcPath)
	if err != nil {
		return nil, err
	}

	var minified string
	if ext == ".css" {
		minified, err = env.minifier.CSS(a.Pathname, string(bundled))
	} else {
		minified, err = env.minifier.JS(a.Pathname, string(bundled))
	}
	if err != nil {
		return nil, err
	}

	return []byte(minified), nil
}
