package bundle

import (
	"bufio"
	"cmp"
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/eak1mov/go-libatlas/bundle/spec"
	"github.com/eak1mov/go-libatlas/store"
)

var ErrFinalized = errors.New("libatlas: bundle writer already finalized")

type writerConfig struct {
	Metadata    []byte
	Compression spec.Compression
	Logger      *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata []byte) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

// WithCompression sets the directory compression (default gzip).
func WithCompression(compression spec.Compression) WriterOption {
	return func(c *writerConfig) { c.Compression = compression }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// Writer implements store.BatchWriter. Assets are appended to a temporary file
// next to the destination, which is renamed into place by Finalize. Writing
// the same path twice keeps the last data.
type Writer struct {
	mu       sync.Mutex
	logger   *slog.Logger
	filePath string
	file     *os.File
	header   spec.Header

	dataWriter *bufio.Writer
	dataOffset uint64

	entries   map[string]spec.Entry
	locations map[[32]byte]spec.Entry // content digest -> stored location
}

func NewWriter(filePath string, opts ...WriterOption) (w *Writer, err error) {
	config := writerConfig{
		Compression: spec.CompressionGzip,
		Logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if _, err := spec.Compress(nil, config.Compression); err != nil {
		return nil, err
	}

	file, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(file.Name())
		}
	}()

	header := spec.Header{}
	offset := uint64(spec.HeaderLength)

	_, err = file.Seek(int64(offset), io.SeekStart)
	if err != nil {
		return nil, err
	}

	if config.Metadata != nil {
		_, err := file.Write(config.Metadata)
		if err != nil {
			return nil, err
		}
		header.MetadataOffset = offset
		header.MetadataLength = uint64(len(config.Metadata))
		offset += header.MetadataLength
	}

	header.HeaderMagic = spec.HeaderMagicV1
	header.DirectoryCompression = config.Compression
	header.DataOffset = offset

	return &Writer{
		logger:     config.Logger,
		filePath:   filePath,
		file:       file,
		header:     header,
		dataWriter: bufio.NewWriter(file),
		entries:    make(map[string]spec.Entry),
		locations:  make(map[[32]byte]spec.Entry),
	}, nil
}

func (w *Writer) WriteAsset(assetPath string, data []byte) error {
	return w.WriteAssets(store.Item{Path: assetPath, Data: data})
}

// WriteAssets validates every path before storing anything. Nothing written
// is visible before Finalize.
func (w *Writer) WriteAssets(items ...store.Item) error {
	names := make([]string, len(items))
	for i, item := range items {
		name, err := store.CleanPath(item.Path)
		if err != nil {
			return err
		}
		names[i] = name
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dataWriter == nil {
		return ErrFinalized
	}
	for i, item := range items {
		if err := w.write(names[i], item.Data); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) write(name string, data []byte) error {
	digest := blake3.Sum256(data)
	if stored, exists := w.locations[digest]; exists {
		w.entries[name] = spec.Entry{Name: name, Offset: stored.Offset, Length: stored.Length}
		return nil
	}

	entry := spec.Entry{
		Name:   name,
		Offset: w.dataOffset,
		Length: uint64(len(data)),
	}

	_, err := w.dataWriter.Write(data)
	if err != nil {
		return err
	}

	w.dataOffset += uint64(len(data))

	w.locations[digest] = entry
	w.entries[name] = entry

	return nil
}

func (w *Writer) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dataWriter == nil {
		return ErrFinalized
	}

	w.logger.Debug("libatlas: flush")
	err := w.dataWriter.Flush()
	if err != nil {
		return err
	}
	w.header.DataLength = w.dataOffset
	w.dataWriter = nil

	w.logger.Debug("libatlas: sort")
	entries := slices.SortedFunc(maps.Values(w.entries), func(a, b spec.Entry) int {
		return cmp.Compare(a.Name, b.Name)
	})
	w.header.AssetEntriesCount = uint64(len(entries))
	w.header.AssetContentsCount = uint64(len(w.locations))

	w.logger.Debug("libatlas: write directory", "entries", len(entries))
	dirBytes, err := spec.Compress(spec.SerializeDirectory(entries), w.header.DirectoryCompression)
	if err != nil {
		return err
	}
	w.header.DirectoryOffset = w.header.DataOffset + w.header.DataLength
	w.header.DirectoryLength = uint64(len(dirBytes))
	_, err = w.file.WriteAt(dirBytes, int64(w.header.DirectoryOffset))
	if err != nil {
		return err
	}

	w.logger.Debug("libatlas: write header")
	_, err = w.file.WriteAt(spec.SerializeHeader(&w.header), 0)
	if err != nil {
		return err
	}

	w.logger.Debug("libatlas: sync")
	if err := w.file.Sync(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	tmp := w.file.Name()
	w.file = nil
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, w.filePath); err != nil {
		os.Remove(tmp)
		return err
	}

	w.logger.Debug("libatlas: done!")
	return nil
}

// Close discards the bundle unless Finalize succeeded.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	w.dataWriter = nil
	err := w.file.Close()
	os.Remove(w.file.Name())
	w.file = nil
	return err
}
