package asset

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
)

// Loader turns raw asset bytes into an asset value.
//
// Loading happens in two phases. Plan parses the input and declares nested
// dependencies with LoadContext.Load. Load runs after every declared
// dependency has settled and reads them with LoadContext.Dependency.
// A Loader must be safe for concurrent use.
type Loader interface {
	// Name identifies the loader in .meta sidecars.
	Name() string

	// Extensions lists the path suffixes handled by the loader, without the
	// leading dot (e.g. "png", "atlas.hcl"). The longest match wins.
	Extensions() []string

	Plan(ctx context.Context, lc *LoadContext) error
	Load(ctx context.Context, lc *LoadContext) (any, error)
}

// SettingsDecoder is implemented by loaders that accept settings from a
// .meta sidecar. decode unmarshals the sidecar's settings into its argument.
type SettingsDecoder interface {
	DecodeSettings(decode func(any) error) (any, error)
}

// Request describes a nested asset load.
type Request struct {
	// Path of the asset. Its extension selects the loader.
	Path string

	// Loader, when set, selects the loader by name instead of by extension.
	Loader string

	// Settings passed to the loader. When nil, settings are taken from the
	// asset's .meta sidecar, if any.
	Settings any

	// Data, when non-nil, is used as the asset content instead of reading
	// Path from storage.
	Data []byte
}

func (r Request) plain() bool {
	return r.Loader == "" && r.Settings == nil && r.Data == nil
}

// LoadContext carries the state of a single asset load across both phases.
type LoadContext struct {
	path     string
	data     []byte
	settings any
	logger   *slog.Logger

	planning bool
	requests []Request
	deps     []*task
	labeled  map[string]any
	state    any
}

func newLoadContext(assetPath string, data []byte, settings any, logger *slog.Logger) *LoadContext {
	return &LoadContext{
		path:     assetPath,
		data:     data,
		settings: settings,
		logger:   logger,
		labeled:  make(map[string]any),
	}
}

func (lc *LoadContext) Path() string         { return lc.path }
func (lc *LoadContext) Data() []byte         { return lc.data }
func (lc *LoadContext) Settings() any        { return lc.settings }
func (lc *LoadContext) Logger() *slog.Logger { return lc.logger }

// Load declares a dependency and returns its index for Dependency.
// It may only be called from Loader.Plan.
func (lc *LoadContext) Load(req Request) int {
	if !lc.planning {
		panic("libatlas: LoadContext.Load called outside of Plan")
	}
	lc.requests = append(lc.requests, req)
	return len(lc.requests) - 1
}

// NumDependencies returns the number of dependencies declared during Plan.
func (lc *LoadContext) NumDependencies() int {
	return len(lc.requests)
}

// Dependency returns the settled dependency with index i. If it failed, the
// error wraps ErrDependencyLoad and the cause.
func (lc *LoadContext) Dependency(i int) (*Handle, error) {
	if i < 0 || i >= len(lc.deps) {
		return nil, fmt.Errorf("libatlas: dependency index %d out of range [0, %d)", i, len(lc.deps))
	}
	t := lc.deps[i]
	if t.err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDependencyLoad, lc.requests[i].Path, t.err)
	}
	return t.handle(), nil
}

// AddLabeled registers a labeled sub-asset produced by this load.
func (lc *LoadContext) AddLabeled(label string, value any) {
	lc.labeled[label] = value
}

// SetState stores loader-private state between Plan and Load.
func (lc *LoadContext) SetState(state any) { lc.state = state }
func (lc *LoadContext) State() any         { return lc.state }

func (lc *LoadContext) labeledCopy() map[string]any {
	return maps.Clone(lc.labeled)
}
