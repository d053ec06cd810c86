package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateFirstMatchWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a")
	second := filepath.Join(dir, "b")
	require.NoError(t, os.MkdirAll(first, 0o750))
	require.NoError(t, os.MkdirAll(second, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(first, "about.html"), []byte("<p>from a</p>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(second, "about.html"), []byte("<p>from b</p>"), 0o600))

	l := NewLocator(first, second)
	content, err := l.Locate("about")
	require.NoError(t, err)
	assert.Equal(t, "<p>from a</p>", content)
}

func TestLocateProbesAllRoots(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	last := filepath.Join(dir, "last")
	require.NoError(t, os.MkdirAll(empty, 0o750))
	require.NoError(t, os.MkdirAll(last, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(last, "contact.html"), []byte("<p>found</p>"), 0o600))

	l := NewLocator(empty, last)
	content, err := l.Locate("contact")
	require.NoError(t, err)
	assert.Equal(t, "<p>found</p>", content)
}

func TestLocateHomeMapsToIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>home</h1>"), 0o600))

	l := NewLocator(dir)
	content, err := l.Locate("home")
	require.NoError(t, err)
	assert.Equal(t, "<h1>home</h1>", content)
}

func TestLocateNotFound(t *testing.T) {
	l := NewLocator(t.TempDir())
	_, err := l.Locate("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
