package pack

import (
	"io"
	"os"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutput_CreatesParentDirectories(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.writeOutput("/en/docs/guide.html", []byte("<html></html>")))

	assert.Equal(t, "<html></html>", readOutput(t, env, "/en/docs/guide.html"))
}

func TestWriteOutput_PrecompressedSibling(t *testing.T) {
	env := newTestEnv(t)
	env.precompress = true

	content := []byte("<html><body>compress me, repeatedly, compress me</body></html>")
	require.NoError(t, env.writeOutput("/index.html", content))

	f, err := os.Open(env.outputPath("/index.html") + ".br")
	require.NoError(t, err)
	defer f.Close()

	decoded, err := io.ReadAll(brotli.NewReader(f))
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestWriteOutput_SkipsBinaryTypes(t *testing.T) {
	env := newTestEnv(t)
	env.precompress = true

	require.NoError(t, env.writeOutput("/img/logo.png", []byte("png-bytes")))

	assert.True(t, outputExists(env, "/img/logo.png"))
	assert.False(t, outputExists(env, "/img/logo.png.br"))
}
