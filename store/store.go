// Package store provides common asset storage interfaces and types.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ErrNotFound is returned (wrapped) by readers when an asset does not exist.
// It matches fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("libatlas: asset not found: %w", fs.ErrNotExist)

var ErrInvalidPath = errors.New("libatlas: invalid asset path")

// Reader defines an interface for reading assets from a storage.
type Reader interface {
	// ReadAsset reads a single asset addressed by a slash-separated path
	// relative to the storage root.
	// If the asset does not exist, it returns an error wrapping ErrNotFound.
	ReadAsset(assetPath string) ([]byte, error)
}

// Writer defines an interface for storing assets.
type Writer interface {
	// WriteAsset stores data under assetPath. Concurrent readers observe
	// either the previous content or the complete new content.
	WriteAsset(assetPath string, data []byte) error
}

// Item is one asset of a batch write.
type Item struct {
	Path string
	Data []byte
}

// BatchWriter is implemented by writers that can store several assets as one
// unit: if WriteAssets fails, none of the items are stored.
type BatchWriter interface {
	Writer
	WriteAssets(items ...Item) error
}

type ReadWriter interface {
	Reader
	Writer
}

type Visitor interface {
	// VisitAssets visits all assets in the storage, calling the visitor for each.
	// Assets are visited in lexical path order.
	VisitAssets(visitor func(string, []byte) error) error
}

// CleanPath validates an asset path and returns its canonical form.
// Absolute paths and paths escaping the storage root are rejected.
func CleanPath(assetPath string) (string, error) {
	p := strings.TrimPrefix(path.Clean(strings.ReplaceAll(assetPath, "\\", "/")), "./")
	if assetPath == "" || !fs.ValidPath(p) || p == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, assetPath)
	}
	return p, nil
}

// NotFound wraps ErrNotFound with the asset path.
func NotFound(assetPath string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, assetPath)
}
