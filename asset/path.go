// Package asset implements a small asynchronous asset host: loaders keyed by
// file extension, nested dependency loads, labeled sub-assets, savers and
// processed-asset sidecars.
//
// Dependencies are resolved by an explicit work queue driven by a single
// coordinator goroutine per Load call, so dependency depth never grows the
// call stack.
package asset

import (
	"path"
	"strings"
)

// LabelSeparator separates an asset path from a label, e.g. "hero.atlas.hcl#layout".
const LabelSeparator = "#"

// Path is an asset path with an optional label addressing a sub-asset.
type Path struct {
	Path  string
	Label string
}

func ParsePath(s string) Path {
	p, label, _ := strings.Cut(s, LabelSeparator)
	return Path{Path: p, Label: label}
}

func (p Path) String() string {
	if p.Label == "" {
		return p.Path
	}
	return p.Path + LabelSeparator + p.Label
}

// ReplaceExt replaces the last extension of assetPath with ext (given without
// a leading dot). An empty ext strips the extension.
func ReplaceExt(assetPath, ext string) string {
	base := strings.TrimSuffix(assetPath, path.Ext(assetPath))
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// hasExt reports whether assetPath ends with "."+ext, ignoring case.
func hasExt(assetPath, ext string) bool {
	suffix := "." + strings.ToLower(ext)
	return strings.HasSuffix(strings.ToLower(assetPath), suffix)
}
