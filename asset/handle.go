package asset

import (
	"maps"
	"slices"
)

// Handle is a fully loaded asset together with its labeled sub-assets.
// Handles are immutable.
type Handle struct {
	path    string
	value   any
	labeled map[string]any
}

// NewHandle creates a handle outside of a Server, e.g. for saving an asset
// that was built in memory.
func NewHandle(assetPath string, value any, labeled map[string]any) *Handle {
	return &Handle{path: assetPath, value: value, labeled: maps.Clone(labeled)}
}

func (h *Handle) Path() string { return h.path }
func (h *Handle) Value() any   { return h.value }

func (h *Handle) Labeled(label string) (any, bool) {
	v, ok := h.labeled[label]
	return v, ok
}

func (h *Handle) Labels() []string {
	return slices.Sorted(maps.Keys(h.labeled))
}

// Get returns the handle's value as T.
func Get[T any](h *Handle) (T, bool) {
	v, ok := h.value.(T)
	return v, ok
}

// GetLabeled returns the labeled sub-asset as T.
func GetLabeled[T any](h *Handle, label string) (T, bool) {
	var zero T
	v, ok := h.labeled[label]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
