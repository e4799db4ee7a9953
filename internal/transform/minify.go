// Package transform wraps the external content transforms the pipeline
// relies on: minification (tdewolff/minify) and script/style bundling
// (esbuild). Failures from either are reported as transform errors carrying
// the source path that failed; the packer treats them as fatal.
package transform

import (
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	packerrors "github.com/sitepack/sitepack/internal/errors"
)

const (
	mimeHTML = "text/html"
	mimeCSS  = "text/css"
	mimeJS   = "application/javascript"
)

var scriptMimeRegexp = regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$")

// Minifier minifies HTML, CSS and JS content. Inline <script> and <style>
// blocks inside HTML are minified by the registered JS/CSS handlers.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates a Minifier with HTML, CSS and JS handlers registered.
func NewMinifier() *Minifier {
	m := minify.New()
	m.AddFunc(mimeCSS, css.Minify)
	m.AddFuncRegexp(scriptMimeRegexp, js.Minify)
	m.Add(mimeHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})

	return &Minifier{m: m}
}

// HTML minifies page markup. sourcePath is reported on failure.
func (mf *Minifier) HTML(sourcePath, code string) (string, error) {
	return mf.run(mimeHTML, sourcePath, code)
}

// CSS minifies stylesheet content. sourcePath is reported on failure.
func (mf *Minifier) CSS(sourcePath, code string) (string, error) {
	return mf.run(mimeCSS, sourcePath, code)
}

// JS minifies script content. sourcePath is reported on failure.
func (mf *Minifier) JS(sourcePath, code string) (string, error) {
	return mf.run(mimeJS, sourcePath, code)
}

func (mf *Minifier) run(mediatype, sourcePath, code string) (string, error) {
	out, err := mf.m.String(mediatype, code)
	if err != nil {
		return "", packerrors.NewTransformError(
			packerrors.ErrCodeMinifyFailed,
			"minification failed",
			err,
		).WithFile(sourcePath)
	}

	return out, nil
}
