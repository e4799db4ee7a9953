package pack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepack/sitepack/internal/hash"
)

func TestAsset_BuildStylesheet(t *testing.T) {
	env := newTestEnv(t)
	raw := "body {\n  color: red;\n}\n"
	writeSource(t, env, "/css/site.css", raw)

	a := NewAsset("/css/site.css", AssetRecord{}, false)
	require.NoError(t, a.Build(context.Background(), env))

	assert.True(t, a.Changed)
	assert.Equal(t, hash.Content([]byte(raw))+".css", a.OutName)
	assert.Equal(t, "/css/"+a.OutName, a.OutPathname)
	assert.Equal(t, "body{color:red}", readOutput(t, env, a.OutPathname))
}

func TestAsset_BuildScript(t *testing.T) {
	env := newTestEnv(t)
	writeSource(t, env, "/js/lib.mjs", "export const n = 1 + 2;\n")
	raw := "import { n } from \"./lib.mjs\";\nconsole.log(n);\n"
	writeSource(t, env, "/js/app.mjs", raw)

	a := NewAsset("/js/app.mjs", AssetRecord{}, false)
	require.NoError(t, a.Build(context.Background(), env))

	// Output name hashes the entry source, not the bundled result.
	assert.Equal(t, hash.Content([]byte(raw))+".mjs", a.OutName)

	out := readOutput(t, env, a.OutPathname)
	assert.Contains(t, out, "console.log")
	assert.NotContains(t, out, "./lib.mjs")
}

func TestAsset_BuildImageVerbatim(t *testing.T) {
	env := newTestEnv(t)
	raw := "\x89PNG\r\n\x1a\nnot really a png"
	writeSource(t, env, "/img/logo.png", raw)

	a := NewAsset("/img/logo.png", AssetRecord{}, false)
	require.NoError(t, a.Build(context.Background(), env))

	assert.Equal(t, hash.Content([]byte(raw))+".png", a.OutName)
	assert.Equal(t, raw, readOutput(t, env, a.OutPathname))
}

func TestAsset_HtaccessKeepsNameAndRewritesExtensions(t *testing.T) {
	env := newTestEnv(t)
	writeSource(t, env, "/.htaccess", "DirectoryIndex index.shtml\nErrorDocument 404 /404.shtml\n")

	a := NewAsset("/.htaccess", AssetRecord{}, false)
	require.NoError(t, a.Build(context.Background(), env))

	assert.Equal(t, ".htaccess", a.OutName)
	assert.Equal(t, "/.htaccess", a.OutPathname)

	out := readOutput(t, env, "/.htaccess")
	assert.Contains(t, out, "index.html")
	assert.Contains(t, out, "/404.html")
	assert.NotContains(t, out, ".shtml")
}

func TestAsset_FaviconKeepsName(t *testing.T) {
	env := newTestEnv(t)
	raw := "icon-bytes"
	writeSource(t, env, "/favicon.ico", raw)

	a := NewAsset("/favicon.ico", AssetRecord{}, false)
	require.NoError(t, a.Build(context.Background(), env))

	assert.Equal(t, "favicon.ico", a.OutName)
	assert.Equal(t, raw, readOutput(t, env, "/favicon.ico"))
}

func TestAsset_UnchangedSkipsRebuild(t *testing.T) {
	env := newTestEnv(t)
	writeSource(t, env, "/img/logo.png", "png-bytes")

	first := NewAsset("/img/logo.png", AssetRecord{}, false)
	require.NoError(t, first.Build(context.Background(), env))
	require.True(t, first.Changed)

	// A second cycle seeded from the first cycle's record sees the same
	// modification time and does nothing, but still knows its output name.
	second := NewAsset("/img/logo.png", first.Record(), true)
	require.NoError(t, second.Build(context.Background(), env))

	assert.False(t, second.Changed)
	assert.Equal(t, first.OutName, second.OutName)
	assert.Equal(t, first.OutPathname, second.OutPathname)
}

func TestAsset_ModifiedSourceRebuilds(t *testing.T) {
	env := newTestEnv(t)
	writeSource(t, env, "/img/logo.png", "png-bytes")

	first := NewAsset("/img/logo.png", AssetRecord{}, false)
	require.NoError(t, first.Build(context.Background(), env))

	writeSource(t, env, "/img/logo.png", "different-bytes")
	bumpModTime(t, env.sourcePath("/img/logo.png"))

	second := NewAsset("/img/logo.png", first.Record(), true)
	require.NoError(t, second.Build(context.Background(), env))

	assert.True(t, second.Changed)
	assert.NotEqual(t, first.OutName, second.OutName)
}

func TestAsset_MissingSourceIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	a := NewAsset("/img/deleted.png", AssetRecord{}, false)
	require.NoError(t, a.Build(context.Background(), env))

	assert.False(t, a.Changed)
	assert.Empty(t, a.OutName)
}

func TestAsset_PageExtensionIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	writeSource(t, env, "/index.html", "<html></html>")

	a := NewAsset("/index.html", AssetRecord{}, false)
	require.NoError(t, a.Build(context.Background(), env))

	assert.Empty(t, a.OutName)
	assert.False(t, outputExists(env, "/index.html"))
}
