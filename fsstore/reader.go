package fsstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-libatlas/store"
)

// Reader implements store.Reader and store.Visitor for a directory.
type Reader struct {
	rootDir string
}

// NewReader creates a new Reader for the given directory (e.g. "/home/user/assets").
func NewReader(rootDir string) (*Reader, error) {
	if err := checkRoot(rootDir); err != nil {
		return nil, err
	}
	return &Reader{rootDir}, nil
}

func (r *Reader) ReadAsset(assetPath string) ([]byte, error) {
	p, err := filePath(r.rootDir, assetPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.NotFound(assetPath)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// VisitAssets walks the directory in lexical order. Temporary files left by
// interrupted writes are skipped.
func (r *Reader) VisitAssets(visitor func(string, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}

		rel, err := filepath.Rel(r.rootDir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return visitor(filepath.ToSlash(rel), data)
	})
}
