package fsstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-libatlas/store"
)

const tempPrefix = ".libatlas-"

type writerOptions struct {
	logger *slog.Logger
}

type WriterOption func(o *writerOptions)

func WithLogger(logger *slog.Logger) WriterOption {
	return func(o *writerOptions) { o.logger = logger }
}

// Writer implements store.Writer for a directory. Every file is written to a
// temporary file in the destination directory, synced and renamed into
// place, so readers never see a partial file.
type Writer struct {
	rootDir string
	logger  *slog.Logger
}

// NewWriter creates a new Writer for the given directory, creating it if
// needed.
func NewWriter(rootDir string, opts ...WriterOption) (*Writer, error) {
	o := writerOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, err
	}
	return &Writer{rootDir: rootDir, logger: o.logger}, nil
}

func (w *Writer) WriteAsset(assetPath string, data []byte) error {
	return w.WriteAssets(store.Item{Path: assetPath, Data: data})
}

type staged struct {
	tmp, dst string
}

// WriteAssets stages every item in a synced temporary file before renaming
// any of them into place. A failure while staging leaves the directory
// unchanged.
func (w *Writer) WriteAssets(items ...store.Item) error {
	files := make([]staged, 0, len(items))
	cleanup := func() {
		for _, f := range files {
			os.Remove(f.tmp)
		}
	}
	for _, item := range items {
		dst, err := filePath(w.rootDir, item.Path)
		if err != nil {
			cleanup()
			return err
		}
		tmp, err := stage(dst, item.Data)
		if err != nil {
			cleanup()
			return fmt.Errorf("libatlas: write %s: %w", item.Path, err)
		}
		files = append(files, staged{tmp: tmp, dst: dst})
	}

	for i, f := range files {
		if err := os.Rename(f.tmp, f.dst); err != nil {
			for _, rest := range files[i:] {
				os.Remove(rest.tmp)
			}
			return err
		}
		if d, err := os.Open(filepath.Dir(f.dst)); err == nil {
			d.Sync()
			d.Close()
		}
	}

	for _, item := range items {
		w.logger.Debug("libatlas: wrote asset file", "path", item.Path, "size", len(item.Data))
	}
	return nil
}

func stage(dst string, data []byte) (string, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if err := writeSync(f, data); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// Finalize is a no-op; every WriteAsset is already durable.
func (w *Writer) Finalize() error {
	return nil
}

func writeSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
