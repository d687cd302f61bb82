package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/eak1mov/go-libatlas/store"
)

// Saver encodes a loaded asset into a processed form that OutputLoader can
// load back using the settings returned by Save.
type Saver interface {
	Name() string
	OutputLoader() string
	Save(ctx context.Context, w *Writer, h *Handle, settings any) (any, error)
}

// Writer buffers the output of a Saver. Nothing reaches storage until Save
// returns successfully.
type Writer struct {
	buf bytes.Buffer
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }
func (w *Writer) Len() int      { return w.buf.Len() }

// Process loads src, saves it with saver and writes the result to dst
// together with a dst.meta sidecar.
func (s *Server) Process(ctx context.Context, src, dst string, saver Saver, settings any) error {
	if s.writer == nil {
		return ErrNoWriter
	}
	h, err := s.Load(ctx, src)
	if err != nil {
		return err
	}
	return s.Save(ctx, h, dst, saver, settings)
}

// Save writes h processed by saver to dst and dst.meta. Writers implementing
// store.BatchWriter store both as one unit. Otherwise the asset is written
// before its sidecar, and when the sidecar write fails the previous content
// of dst, if the server's reader has one, is written back.
func (s *Server) Save(ctx context.Context, h *Handle, dst string, saver Saver, settings any) error {
	if s.writer == nil {
		return ErrNoWriter
	}
	var w Writer
	var out any
	err := protect(func() (err error) {
		out, err = saver.Save(ctx, &w, h, settings)
		return err
	})
	if err != nil {
		return fmt.Errorf("libatlas: save %s with %s: %w", h.Path(), saver.Name(), err)
	}
	meta, err := encodeMeta(saver.OutputLoader(), out)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("libatlas: save %s: %w", dst, err)
	}

	s.logger.Debug("libatlas: writing processed asset", "path", dst, "size", w.Len(), "saver", saver.Name())
	items := []store.Item{
		{Path: dst, Data: w.Bytes()},
		{Path: MetaPath(dst), Data: meta},
	}
	if bw, ok := s.writer.(store.BatchWriter); ok {
		if err := bw.WriteAssets(items...); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIO, dst, err)
		}
		return nil
	}
	return s.writePair(items[0], items[1])
}

func (s *Server) writePair(item, meta store.Item) error {
	previous, readErr := s.reader.ReadAsset(item.Path)
	if err := s.writer.WriteAsset(item.Path, item.Data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, item.Path, err)
	}
	err := s.writer.WriteAsset(meta.Path, meta.Data)
	if err == nil {
		return nil
	}
	err = fmt.Errorf("%w: %s: %w", ErrIO, meta.Path, err)
	if readErr != nil {
		s.logger.Warn("libatlas: processed asset left without sidecar", "path", item.Path, "error", err)
		return err
	}
	if restoreErr := s.writer.WriteAsset(item.Path, previous); restoreErr != nil {
		return errors.Join(err, fmt.Errorf("%w: restore %s: %w", ErrIO, item.Path, restoreErr))
	}
	return err
}
