package pack

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepack/sitepack/internal/config"
	"github.com/sitepack/sitepack/internal/hash"
	"github.com/sitepack/sitepack/internal/logging"
)

const testSiteCSS = "body {\n  color: red;\n}\n"

// newTestSite lays out a small but representative source tree and returns a
// Packer over it together with the resolved output site root.
func newTestSite(t *testing.T) (*Packer, *config.Config, string) {
	t.Helper()

	cfg := &config.Config{
		Source: filepath.Join(t.TempDir(), "site"),
		Output: t.TempDir(),
	}
	require.NoError(t, os.MkdirAll(cfg.Source, 0755))

	writeSite(t, cfg, "/index.shtml", `<html><head><link rel="stylesheet" href="/css/site.css"></head><body><!--#include virtual="/_header.shtml"--><main>welcome</main></body></html>`)
	writeSite(t, cfg, "/_header.shtml", `<header><p>Hello</p></header>`)
	writeSite(t, cfg, "/about.html", `<html><body><p>about us</p></body></html>`)
	writeSite(t, cfg, "/css/site.css", testSiteCSS)
	writeSite(t, cfg, "/favicon.ico", "icon-bytes")
	writeSite(t, cfg, "/.htaccess", "DirectoryIndex index.shtml\n")

	packer := New(cfg, logging.NopLogger{}, "test-version")

	return packer, cfg, cfg.OutputSiteRoot()
}

func writeSite(t *testing.T, cfg *config.Config, pathname, content string) {
	t.Helper()

	full := filepath.Join(cfg.Source, filepath.FromSlash(pathname[1:]))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func readSite(t *testing.T, siteRoot, pathname string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(siteRoot, filepath.FromSlash(pathname[1:])))
	require.NoError(t, err)

	return string(data)
}

func siteExists(siteRoot, pathname string) bool {
	_, err := os.Stat(filepath.Join(siteRoot, filepath.FromSlash(pathname[1:])))

	return err == nil
}

func TestPacker_FullBuild(t *testing.T) {
	packer, cfg, siteRoot := newTestSite(t)

	require.NoError(t, packer.Pack(context.Background(), false))

	// SHTML pages come out as .html with their includes inlined and their
	// stylesheet reference pointing at the hashed artifact.
	index := readSite(t, siteRoot, "/index.html")
	cssName := hash.Content([]byte(testSiteCSS)) + ".css"
	assert.Contains(t, index, "<p>Hello</p>")
	assert.Contains(t, index, "/css/"+cssName)
	assert.NotContains(t, index, "/css/site.css")

	assert.Equal(t, "body{color:red}", readSite(t, siteRoot, "/css/"+cssName))
	assert.Contains(t, readSite(t, siteRoot, "/about.html"), "about us")

	// Specially-named files keep their basename; fragments stay private.
	assert.True(t, siteExists(siteRoot, "/favicon.ico"))
	assert.Contains(t, readSite(t, siteRoot, "/.htaccess"), "index.html")
	assert.False(t, siteExists(siteRoot, "/_header.html"))
	assert.False(t, siteExists(siteRoot, "/_header.shtml"))

	m, loaded := LoadManifest(cfg.ManifestPath())
	require.True(t, loaded)
	assert.Equal(t, "test-version", m.Version)

	_, ok := m.Page("/index.shtml")
	assert.True(t, ok)
	rec, ok := m.Asset("/css/site.css")
	require.True(t, ok)
	assert.Equal(t, cssName, rec.OutName)
}

func TestPacker_SecondRunIsNoOp(t *testing.T) {
	packer, cfg, siteRoot := newTestSite(t)

	require.NoError(t, packer.Pack(context.Background(), false))

	manifestBefore, err := os.ReadFile(cfg.ManifestPath())
	require.NoError(t, err)
	indexBefore := readSite(t, siteRoot, "/index.html")

	require.NoError(t, packer.Pack(context.Background(), false))

	manifestAfter, err := os.ReadFile(cfg.ManifestPath())
	require.NoError(t, err)

	assert.Equal(t, string(manifestBefore), string(manifestAfter))
	assert.Equal(t, indexBefore, readSite(t, siteRoot, "/index.html"))
}

func TestPacker_AssetChangePropagates(t *testing.T) {
	packer, cfg, siteRoot := newTestSite(t)
	require.NoError(t, packer.Pack(context.Background(), false))

	oldName := hash.Content([]byte(testSiteCSS)) + ".css"
	newCSS := "body {\n  color: blue;\n}\n"
	writeSite(t, cfg, "/css/site.css", newCSS)
	bumpModTime(t, filepath.Join(cfg.Source, "css", "site.css"))

	require.NoError(t, packer.Pack(context.Background(), false))

	newName := hash.Content([]byte(newCSS)) + ".css"
	assert.Equal(t, "body{color:blue}", readSite(t, siteRoot, "/css/"+newName))

	// The page it appears in was rebuilt even though the page file itself
	// never changed, and the superseded artifact was cleaned up.
	assert.Contains(t, readSite(t, siteRoot, "/index.html"), "/css/"+newName)
	assert.False(t, siteExists(siteRoot, "/css/"+oldName))
}

func TestPacker_FragmentChangePropagates(t *testing.T) {
	packer, cfg, siteRoot := newTestSite(t)
	require.NoError(t, packer.Pack(context.Background(), false))

	writeSite(t, cfg, "/_header.shtml", `<header><p>Goodbye</p></header>`)
	bumpModTime(t, filepath.Join(cfg.Source, "_header.shtml"))

	require.NoError(t, packer.Pack(context.Background(), false))

	index := readSite(t, siteRoot, "/index.html")
	assert.Contains(t, index, "<p>Goodbye</p>")
	assert.NotContains(t, index, "<p>Hello</p>")
}

func TestPacker_PageChangeRebuildsOnlyThatPage(t *testing.T) {
	packer, cfg, siteRoot := newTestSite(t)
	require.NoError(t, packer.Pack(context.Background(), false))

	indexBefore := readSite(t, siteRoot, "/index.html")

	writeSite(t, cfg, "/about.html", `<html><body><p>about, revised</p></body></html>`)
	bumpModTime(t, filepath.Join(cfg.Source, "about.html"))

	require.NoError(t, packer.Pack(context.Background(), false))

	assert.Contains(t, readSite(t, siteRoot, "/about.html"), "about, revised")
	assert.Equal(t, indexBefore, readSite(t, siteRoot, "/index.html"))
}

func TestPacker_ForceRebuildsEverything(t *testing.T) {
	packer, _, siteRoot := newTestSite(t)
	require.NoError(t, packer.Pack(context.Background(), false))

	require.NoError(t, os.Remove(filepath.Join(siteRoot, "about.html")))

	// An incremental run trusts the manifest and leaves the gap.
	require.NoError(t, packer.Pack(context.Background(), false))
	assert.False(t, siteExists(siteRoot, "/about.html"))

	// A forced run reprocesses every input.
	require.NoError(t, packer.Pack(context.Background(), true))
	assert.Contains(t, readSite(t, siteRoot, "/about.html"), "about us")
}

func TestPacker_RemovedPageIsCleanedUp(t *testing.T) {
	packer, cfg, siteRoot := newTestSite(t)
	require.NoError(t, packer.Pack(context.Background(), false))
	require.True(t, siteExists(siteRoot, "/about.html"))

	require.NoError(t, os.Remove(filepath.Join(cfg.Source, "about.html")))
	// Another page has to move for the cycle to write and reconcile.
	bumpModTime(t, filepath.Join(cfg.Source, "index.shtml"))

	require.NoError(t, packer.Pack(context.Background(), false))

	assert.False(t, siteExists(siteRoot, "/about.html"))
	assert.True(t, siteExists(siteRoot, "/index.html"))
}

func TestPacker_Precompress(t *testing.T) {
	packer, cfg, siteRoot := newTestSite(t)
	cfg.Build.Precompress = true

	require.NoError(t, packer.Pack(context.Background(), false))

	cssName := hash.Content([]byte(testSiteCSS)) + ".css"
	assert.True(t, siteExists(siteRoot, "/index.html.br"))
	assert.True(t, siteExists(siteRoot, "/css/"+cssName+".br"))
	assert.False(t, siteExists(siteRoot, "/favicon.ico.br"))

	// Compressed siblings are part of the keep-set on later runs.
	bumpModTime(t, filepath.Join(cfg.Source, "about.html"))
	require.NoError(t, packer.Pack(context.Background(), false))
	assert.True(t, siteExists(siteRoot, "/index.html.br"))
}

func TestPacker_EmptySourceTree(t *testing.T) {
	cfg := &config.Config{
		Source: filepath.Join(t.TempDir(), "site"),
		Output: t.TempDir(),
	}
	require.NoError(t, os.MkdirAll(cfg.Source, 0755))

	packer := New(cfg, logging.NopLogger{}, "test-version")
	require.NoError(t, packer.Pack(context.Background(), false))

	// No pages written, so not even a manifest appears.
	assert.NoFileExists(t, cfg.ManifestPath())
}
