package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	packerrors "github.com/sitepack/sitepack/internal/errors"
)

// Bundler resolves a script or stylesheet entry point's internal imports
// into a single self-contained artifact, in memory. Minification is left to
// the Minifier so output names stay decoupled from esbuild's own minifier.
type Bundler struct{}

// NewBundler creates a Bundler.
func NewBundler() *Bundler {
	return &Bundler{}
}

// Bundle builds the entry file at absPath into one artifact and returns its
// content. sourcePath is the web-rooted pathname reported on failure.
func (b *Bundler) Bundle(sourcePath, absPath string) ([]byte, error) {
	result := api.Build(api.BuildOptions{
		EntryPoints: []string{absPath},
		Bundle:      true,
		Write:       false,
		LogLevel:    api.LogLevelSilent,
		Format:      api.FormatESModule,
	})

	if len(result.Errors) > 0 {
		return nil, packerrors.NewTransformError(
			packerrors.ErrCodeBundleFailed,
			"bundling failed: "+formatMessages(result.Errors),
			nil,
		).WithFile(sourcePath)
	}

	if len(result.OutputFiles) == 0 {
		return nil, packerrors.NewTransformError(
			packerrors.ErrCodeBundleFailed,
			"bundling produced no output",
			nil,
		).WithFile(sourcePath)
	}

	return result.OutputFiles[0].Contents, nil
}

func formatMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Location != nil {
			parts = append(parts, fmt.Sprintf("%s:%d: %s", msg.Location.File, msg.Location.Line, msg.Text))
			continue
		}
		parts = append(parts, msg.Text)
	}

	return strings.Join(parts, "; ")
}
