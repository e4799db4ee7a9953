package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContent(t *testing.T) {
	t.Run("matches truncated sha256", func(t *testing.T) {
		content := []byte("body{color:red}")
		sum := sha256.Sum256(content)
		want := hex.EncodeToString(sum[:])[:IDLength]

		assert.Equal(t, want, Content(content))
	})

	t.Run("deterministic", func(t *testing.T) {
		content := []byte("some asset content")

		assert.Equal(t, Content(content), Content(content))
	})

	t.Run("single byte change produces different identifier", func(t *testing.T) {
		a := Content([]byte("body{color:red}"))
		b := Content([]byte("body{color:ree}"))

		assert.NotEqual(t, a, b)
	})

	t.Run("identifier length", func(t *testing.T) {
		assert.Len(t, Content([]byte("")), IDLength)
		assert.Len(t, Content([]byte("x")), IDLength)
	})
}
