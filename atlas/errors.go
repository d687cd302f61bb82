package atlas

import (
	"errors"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/imagefmt"
)

var (
	ErrIO             = asset.ErrIO
	ErrDependencyLoad = asset.ErrDependencyLoad
	ErrConfigParse    = asset.ErrConfigParse
	ErrFormat         = imagefmt.ErrFormat

	// ErrPacking is returned when the sub-images cannot be placed: the input
	// is empty, an image is empty or too large, or no canvas fits them all.
	ErrPacking = errors.New("libatlas: packing failed")

	// ErrMissingSubAsset is returned by the saver when an atlas handle lacks
	// its layout or texture. It indicates a broken loader, not bad input.
	ErrMissingSubAsset = errors.New("libatlas: missing atlas sub-asset")

	ErrInvalidAsset = errors.New("libatlas: invalid atlas")
)
