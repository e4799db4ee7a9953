package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackError_Error(t *testing.T) {
	t.Run("includes code, file and message", func(t *testing.T) {
		err := NewTransformError(ErrCodeMinifyFailed, "minification failed", fmt.Errorf("unexpected token")).
			WithFile("/assets/app.css")

		msg := err.Error()
		assert.Contains(t, msg, "[ERR_MINIFY_FAILED]")
		assert.Contains(t, msg, "/assets/app.css")
		assert.Contains(t, msg, "minification failed")
		assert.Contains(t, msg, "unexpected token")
	})

	t.Run("message only", func(t *testing.T) {
		err := NewConfigError(ErrCodeConfigInvalid, "bad source path")

		assert.Equal(t, "[ERR_CONFIG_INVALID] bad source path", err.Error())
	})
}

func TestPackError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewIOError(ErrCodeWriteFailed, "failed to write output file", cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.ErrorIs(t, err, cause)
}

func TestPackError_Is(t *testing.T) {
	a := NewIOError(ErrCodeWriteFailed, "one", nil)
	b := NewIOError(ErrCodeWriteFailed, "another", nil)
	c := NewIOError(ErrCodeReadFailed, "read", nil)

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestIsTransformError(t *testing.T) {
	transform := NewTransformError(ErrCodeBundleFailed, "bundling failed", nil)
	io := NewIOError(ErrCodeReadFailed, "read failed", nil)

	assert.True(t, IsTransformError(transform))
	assert.False(t, IsTransformError(io))
	assert.False(t, IsTransformError(fmt.Errorf("plain")))

	wrapped := fmt.Errorf("pack: %w", transform)
	assert.True(t, IsTransformError(wrapped))
}

func TestErrIncludeCycle(t *testing.T) {
	err := ErrIncludeCycle([]string{"/a.shtml", "/b.shtml", "/a.shtml"})

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeIncludeCycle, err.Code)
	assert.Contains(t, err.Error(), "/a.shtml -> /b.shtml -> /a.shtml")
}
