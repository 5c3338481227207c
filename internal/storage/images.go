// Package storage implements the image blob store. Uploads are written to a
// local directory under an opaque UUID reference; references resolve to
// stable /uploads URLs served statically by the HTTP layer. Callers must
// tolerate a reference that no longer resolves (the URL may 404).
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the public path under which stored images are served.
const URLPrefix = "/uploads"

var (
	// ErrUnsupportedType is returned for uploads outside the accepted image
	// extensions.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("image too large")
)

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// ImageStore saves uploads and resolves references to URLs.
type ImageStore struct {
	dir      string
	maxBytes int64
}

// NewImageStore ensures the upload directory exists and returns a store.
func NewImageStore(dir string, maxBytes int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory backing the store, for static file serving.
func (s *ImageStore) Dir() string { return s.dir }

// Save writes the upload to disk and returns its opaque reference. filename
// is only consulted for the extension; the stored name is a fresh UUID.
func (s *ImageStore) Save(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	ref := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// Copy one byte past the limit so oversized uploads are detected without
	// buffering them fully.
	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	if n > s.maxBytes {
		_ = os.Remove(dst.Name())
		return "", ErrTooLarge
	}
	return ref, nil
}

// URL resolves a reference to its public URL. A syntactically invalid
// reference yields ""; callers treat that as a missing image.
func (s *ImageStore) URL(ref string) string {
	if ref == "" || strings.ContainsAny(ref, "/\\") {
		return ""
	}
	return URLPrefix + "/" + ref
}

// URLs maps a reference list to URLs, dropping unresolvable entries.
func (s *ImageStore) URLs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if u := s.URL(ref); u != "" {
			out = append(out, u)
		}
	}
	return out
}
