package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndResolve(t *testing.T) {
	s, err := NewImageStore(t.TempDir(), 1024)
	require.NoError(t, err)

	ref, err := s.Save(strings.NewReader("fake image bytes"), "photo.JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".jpg"), "extension is normalized: %s", ref)

	data, err := os.ReadFile(filepath.Join(s.Dir(), ref))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))

	assert.Equal(t, "/uploads/"+ref, s.URL(ref))
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	s, err := NewImageStore(t.TempDir(), 1024)
	require.NoError(t, err)

	_, err = s.Save(strings.NewReader("x"), "script.sh")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = s.Save(strings.NewReader("x"), "noext")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveRejectsOversized(t *testing.T) {
	dir := t.TempDir()
	s, err := NewImageStore(dir, 10)
	require.NoError(t, err)

	_, err = s.Save(strings.NewReader("0123456789a"), "big.png")
	assert.ErrorIs(t, err, ErrTooLarge)

	// The partial file must not linger.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Exactly at the limit is fine.
	_, err = s.Save(strings.NewReader("0123456789"), "ok.png")
	assert.NoError(t, err)
}

func TestURLRejectsPathishRefs(t *testing.T) {
	s, err := NewImageStore(t.TempDir(), 1024)
	require.NoError(t, err)

	assert.Empty(t, s.URL(""))
	assert.Empty(t, s.URL("../etc/passwd"))
	assert.Empty(t, s.URL("a\\b.png"))

	assert.Equal(t, []string{"/uploads/a.png"}, s.URLs([]string{"a.png", "../b.png", ""}))
}
