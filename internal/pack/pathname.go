// Package pack implements the sitepack build engine: source-tree discovery,
// asset processing with content-addressed output names, SSI-resolving page
// builds, the incremental-rebuild manifest, and garbage collection of stale
// output files.
package pack

import (
	"path"
	"strings"
)

// A pathname is a web-rooted, forward-slash string identifying a source file
// relative to the source root (e.g. /assets/scripts/core.mjs). It is the
// canonical key in every map the engine keeps, so it is normalized the same
// way on every platform.

var pageExtensions = map[string]bool{
	".html":  true,
	".shtml": true,
	".php":   true,
}

var bundledExtensions = map[string]bool{
	".js":  true,
	".mjs": true,
	".css": true,
}

var imageExtensions = map[string]bool{
	".ico":  true,
	".jpeg": true,
	".png":  true,
	".svg":  true,
}

// NormalizePathname converts a source-relative file path to its canonical
// web-rooted pathname.
func NormalizePathname(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return path.Clean(p)
}

// IsPagePathname reports whether the pathname has a page extension.
func IsPagePathname(p string) bool {
	return pageExtensions[strings.ToLower(path.Ext(p))]
}

// IsBundledPathname reports whether the pathname is a script or stylesheet
// that goes through the bundler.
func IsBundledPathname(p string) bool {
	return bundledExtensions[strings.ToLower(path.Ext(p))]
}

// IsImagePathname reports whether the pathname has a recognized image
// extension.
func IsImagePathname(p string) bool {
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

// IsSpecialName reports whether the basename is one a web server or client
// expects at a fixed path: such files keep their original name instead of a
// content hash.
func IsSpecialName(name string) bool {
	return name == ".htaccess" || strings.HasPrefix(name, "favicon")
}

// IsPrivatePathname reports whether the pathname names a private fragment,
// meant only to be inlined via SSI and never written standalone.
func IsPrivatePathname(p string) bool {
	return strings.HasPrefix(path.Base(p), "_")
}

// OutputPagePathname derives a page's output pathname: SHTML sources always
// resolve to .html outputs.
func OutputPagePathname(p string) string {
	if strings.HasSuffix(strings.ToLower(p), ".shtml") {
		return p[:len(p)-len(".shtml")] + ".html"
	}

	return p
}
