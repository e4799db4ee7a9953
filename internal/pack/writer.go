package pack

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"

	packerrors "github.com/sitepack/sitepack/internal/errors"
)

// precompressedExtensions are the text output types that get a .br sibling
// when precompression is enabled.
var precompressedExtensions = map[string]bool{
	".html": true,
	".css":  true,
	".js":   true,
	".mjs":  true,
	".svg":  true,
}

// writeOutput writes data to the output tree at the given pathname, creating
// parent directories as needed. When precompression is enabled and the file
// type is compressible, a brotli-compressed sibling is written alongside.
func (env *buildEnv) writeOutput(pathname string, data []byte) error {
	abs := env.outputPath(pathname)

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeWriteFailed, "failed to create output directory", err).WithFile(abs)
	}

	if err := os.WriteFile(abs, data, 0644); err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeWriteFailed, "failed to write output file", err).WithFile(abs)
	}

	if env.precompress && isPrecompressible(pathname) {
		if err := writeBrotli(abs+".br", data); err != nil {
			return err
		}
	}

	return nil
}

func isPrecompressible(pathname string) bool {
	return precompressedExtensions[strings.ToLower(filepath.Ext(pathname))]
}

func writeBrotli(abs string, data []byte) error {
	f, err := os.Create(abs)
	if err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeWriteFailed, "failed to create precompressed file", err).WithFile(abs)
	}

	w := brotli.NewWriterLevel(f, brotli.BestCompression)
	if _, err := w.Write(data); err != nil {
		f.Close()

		return packerrors.NewIOError(packerrors.ErrCodeWriteFailed, "failed to write precompressed file", err).WithFile(abs)
	}
	if err := w.Close(); err != nil {
		f.Close()

		return packerrors.NewIOError(packerrors.ErrCodeWriteFailed, "failed to flush precompressed file", err).WithFile(abs)
	}

	return f.Close()
}
