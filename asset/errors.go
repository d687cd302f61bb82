package asset

import "errors"

var (
	// ErrIO is returned when an asset cannot be read from or written to storage.
	ErrIO = errors.New("libatlas: io error")

	// ErrDependencyLoad is returned when a nested asset load failed.
	// The cause is wrapped alongside.
	ErrDependencyLoad = errors.New("libatlas: dependency load failed")

	// ErrConfigParse is returned for malformed descriptors, settings and
	// .meta sidecars.
	ErrConfigParse = errors.New("libatlas: config parse error")

	ErrNoLoader     = errors.New("libatlas: no loader for asset")
	ErrMissingLabel = errors.New("libatlas: labeled asset not found")
	ErrCycle        = errors.New("libatlas: dependency cycle")
	ErrNoWriter     = errors.New("libatlas: server has no writer")
)
