package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/bundle"
	"github.com/eak1mov/go-libatlas/dbstore"
	"github.com/eak1mov/go-libatlas/fsstore"
	"github.com/eak1mov/go-libatlas/pipeline"
	"github.com/eak1mov/go-libatlas/store"
)

type inputStorage interface {
	store.Reader
	store.Visitor
}

type outputStorage interface {
	store.Writer
	Finalize() error
}

func deduceStorage(kind, rootPath string) string {
	if kind != "" {
		return kind
	}
	switch {
	case strings.HasSuffix(rootPath, ".db"), strings.HasSuffix(rootPath, ".sqlite"):
		return "sqlite"
	case strings.HasSuffix(rootPath, bundle.FileExt):
		return "bundle"
	}
	return "dir"
}

func openInput(kind, rootPath string) (inputStorage, error) {
	switch deduceStorage(kind, rootPath) {
	case "sqlite":
		return dbstore.NewReader(rootPath)
	case "bundle":
		return bundle.NewFileReader(rootPath)
	case "dir":
		return fsstore.NewReader(rootPath)
	}
	return nil, errors.New("invalid storage kind: " + kind)
}

func openOutput(kind, rootPath string) (outputStorage, error) {
	logger := slog.Default()
	switch deduceStorage(kind, rootPath) {
	case "sqlite":
		return dbstore.NewWriter(rootPath, dbstore.WithLogger(logger))
	case "bundle":
		return bundle.NewWriter(rootPath, bundle.WithLogger(logger))
	case "dir":
		return fsstore.NewWriter(rootPath, fsstore.WithLogger(logger))
	}
	return nil, errors.New("invalid storage kind: " + kind)
}

// checkOutput rejects writing a bundle over the storage being read: a bundle
// writer always creates a new file, which would replace the input.
func checkOutput(inputRoot, outputKind, outputRoot string) error {
	if deduceStorage(outputKind, outputRoot) != "bundle" || !samePath(inputRoot, outputRoot) {
		return nil
	}
	return fmt.Errorf("bundle %s cannot be updated in place, use -out_root", outputRoot)
}

func samePath(a, b string) bool {
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(ai, bi)
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func closeStorage(s any) {
	if closer, ok := s.(io.Closer); ok {
		closer.Close()
	}
}

func newServer(reader store.Reader, opts ...asset.Option) *asset.Server {
	opts = append([]asset.Option{asset.WithLogger(slog.Default())}, opts...)
	s := asset.NewServer(reader, opts...)
	pipeline.Register(s)
	return s
}
