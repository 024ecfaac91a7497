// Package tempfile stores uploaded documents on disk for the duration of a single OCR call.
package tempfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

const (
	fallbackName = "document"
	// maxNameBytes stays under the 255-byte NAME_MAX of common filesystems.
	maxNameBytes = 200
	maxExtBytes  = 16
)

// Store creates per-request artifacts under a root directory.
type Store struct {
	root string
}

// New creates the root directory (if needed) and returns a Store.
func New(root string) (*Store, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "autoeval")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory artifacts are created in.
func (s *Store) Root() string { return s.root }

// Artifact is a document written to its own directory. Release removes it.
// It implements domain.Artifact.
type Artifact struct {
	dir  string
	path string
}

// Path returns the file path handed to extractors.
func (a *Artifact) Path() string { return a.path }

// Save writes content to <root>/<uuid>/<sanitized filename>. Concurrent saves of the same
// filename never collide.
func (s *Store) Save(filename string, content []byte) (domain.Artifact, error) {
	dir := filepath.Join(s.root, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w: %w", domain.ErrTempStorage, err)
	}

	a := &Artifact{dir: dir, path: filepath.Join(dir, sanitize(filename))}
	if err := os.WriteFile(a.path, content, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write artifact: %w: %w", domain.ErrTempStorage, err)
	}
	return a, nil
}

// Release removes the artifact and its directory. Releasing twice is a no-op.
func (a *Artifact) Release() error {
	if err := os.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("remove artifact: %w: %w", domain.ErrTempStorage, err)
	}
	return nil
}

// sanitize keeps only the base name of a client-supplied filename so it cannot escape the
// artifact directory. The extension survives for extractor routing.
func sanitize(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)

	switch name {
	case "", ".", "..", "/":
		return fallbackName
	}
	if strings.HasPrefix(name, ".") {
		name = fallbackName + name
	}
	return truncate(name)
}

// truncate shortens name to maxNameBytes on a rune boundary, keeping a short extension.
func truncate(name string) string {
	if len(name) <= maxNameBytes {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > maxExtBytes {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	limit := maxNameBytes - len(ext)
	for limit > 0 && !utf8.RuneStart(stem[limit]) {
		limit--
	}
	return stem[:limit] + ext
}
