package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/eak1mov/go-libatlas/store"
)

type Option func(s *Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithWorkers limits the number of loader calls running at once within a
// single Load. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithWriter enables Process and Save.
func WithWriter(w store.Writer) Option {
	return func(s *Server) { s.writer = w }
}

// WithProgress registers a callback invoked once for every settled asset of a
// Load, including nested dependencies. It is called from the goroutine
// driving the load.
func WithProgress(fn func(assetPath string, err error)) Option {
	return func(s *Server) { s.progress = fn }
}

// Server loads assets from storage with registered loaders.
// It is safe for concurrent use; concurrent Load calls share no state other
// than the loader registry.
type Server struct {
	reader   store.Reader
	writer   store.Writer
	logger   *slog.Logger
	workers  int
	progress func(string, error)

	mu      sync.RWMutex
	loaders []Loader
	byName  map[string]Loader
}

func NewServer(reader store.Reader, opts ...Option) *Server {
	s := &Server{
		reader:  reader,
		logger:  slog.New(slog.DiscardHandler),
		workers: runtime.GOMAXPROCS(0),
		byName:  make(map[string]Loader),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds loaders. A loader with an already registered name replaces
// the previous one.
func (s *Server) Register(loaders ...Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range loaders {
		if _, ok := s.byName[l.Name()]; ok {
			s.loaders = slices.DeleteFunc(s.loaders, func(old Loader) bool {
				return old.Name() == l.Name()
			})
		}
		s.byName[l.Name()] = l
		s.loaders = append(s.loaders, l)
	}
}

func (s *Server) LoaderByName(name string) (Loader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byName[name]
	return l, ok
}

// LoaderForPath returns the loader with the longest extension matching
// assetPath. Ties go to the loader registered first.
func (s *Server) LoaderForPath(assetPath string) (Loader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best Loader
	bestLen := 0
	for _, l := range s.loaders {
		for _, ext := range l.Extensions() {
			if len(ext) > bestLen && hasExt(assetPath, ext) {
				best, bestLen = l, len(ext)
			}
		}
	}
	return best, best != nil
}

// Load loads the asset at assetPath together with all of its dependencies.
func (s *Server) Load(ctx context.Context, assetPath string) (*Handle, error) {
	return s.LoadRequest(ctx, Request{Path: assetPath})
}

// LoadRequest is like Load but allows passing settings, an explicit loader or
// inline data.
func (s *Server) LoadRequest(ctx context.Context, req Request) (*Handle, error) {
	r := newRun(s)
	return r.execute(ctx, req)
}

// LoadLabeled loads "path#label" and returns the labeled sub-asset, or the
// asset value itself when no label is given.
func (s *Server) LoadLabeled(ctx context.Context, labeledPath string) (any, error) {
	p := ParsePath(labeledPath)
	h, err := s.Load(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	if p.Label == "" {
		return h.Value(), nil
	}
	v, ok := h.Labeled(p.Label)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingLabel, p)
	}
	return v, nil
}

func (s *Server) read(assetPath string) ([]byte, error) {
	data, err := s.reader.ReadAsset(assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, assetPath, err)
	}
	return data, nil
}

// resolve picks the loader and settings for a request.
func (s *Server) resolve(assetPath string, req Request) (Loader, any, error) {
	if req.Loader != "" {
		l, ok := s.LoaderByName(req.Loader)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s: loader %q", ErrNoLoader, assetPath, req.Loader)
		}
		return l, req.Settings, nil
	}
	if req.Settings == nil {
		m, err := s.readMeta(assetPath)
		if err != nil {
			return nil, nil, err
		}
		if m != nil {
			return s.resolveMeta(assetPath, m)
		}
	}
	l, ok := s.LoaderForPath(assetPath)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoLoader, assetPath)
	}
	return l, req.Settings, nil
}

func (s *Server) readMeta(assetPath string) (*metaFile, error) {
	data, err := s.reader.ReadAsset(MetaPath(assetPath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, MetaPath(assetPath), err)
	}
	return decodeMeta(data)
}

func (s *Server) resolveMeta(assetPath string, m *metaFile) (Loader, any, error) {
	l, ok := s.LoaderByName(m.Loader)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s: loader %q", ErrNoLoader, assetPath, m.Loader)
	}
	d, ok := l.(SettingsDecoder)
	if !ok || !m.hasSettings() {
		return l, nil, nil
	}
	settings, err := d.DecodeSettings(m.Settings.Decode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrConfigParse, MetaPath(assetPath), err)
	}
	return l, settings, nil
}
