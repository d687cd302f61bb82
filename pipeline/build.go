// Package pipeline implements the atlas loaders and saver for an asset.Server:
//
//   - BuildLoader packs the textures listed in a descriptor into a new atlas,
//   - DirectLoader restores an already packed atlas from its texture and
//     settings without packing,
//   - Saver encodes an atlas texture and emits the settings DirectLoader
//     needs to load it back.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"maps"
	"slices"

	"golang.org/x/image/draw"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/atlas"
	"github.com/eak1mov/go-libatlas/descriptor"
	"github.com/eak1mov/go-libatlas/imagefmt"
	"github.com/eak1mov/go-libatlas/pack"
)

const BuildLoaderName = "atlas_builder"

// BuildLoader loads atlas descriptors (*.atlas.hcl, *.atlas.yaml, ...).
// Texture paths are relative to the storage root.
type BuildLoader struct{}

func (BuildLoader) Name() string { return BuildLoaderName }

func (BuildLoader) Extensions() []string {
	return slices.Sorted(maps.Keys(descriptor.Extensions))
}

func (BuildLoader) Plan(ctx context.Context, lc *asset.LoadContext) error {
	d, err := descriptor.Parse(lc.Path(), lc.Data())
	if err != nil {
		return err
	}
	for _, p := range d.Textures {
		lc.Load(asset.Request{Path: p})
	}
	lc.SetState(d)
	return nil
}

func (BuildLoader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	d := lc.State().(*descriptor.Descriptor)

	images := make([]*image.NRGBA, lc.NumDependencies())
	sizes := make([]atlas.Size, len(images))
	var paths atlas.PathIndex
	for i := range images {
		h, err := lc.Dependency(i)
		if err != nil {
			return nil, err
		}
		img, ok := asset.Get[*image.NRGBA](h)
		if !ok {
			return nil, fmt.Errorf("%w: %s: not an image (%T)", atlas.ErrDependencyLoad, h.Path(), h.Value())
		}
		images[i] = img
		b := img.Bounds()
		sizes[i] = atlas.Size{Width: uint32(b.Dx()), Height: uint32(b.Dy())}
		p := h.Path()
		paths.Add(&p)
	}

	layout, err := pack.Pack(sizes,
		pack.WithPadding(d.Padding),
		pack.WithMaxSize(d.MaxSize),
		pack.WithLogger(lc.Logger()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lc.Path(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texture := image.NewNRGBA(image.Rect(0, 0, int(layout.Size.Width), int(layout.Size.Height)))
	for i, img := range images {
		draw.Draw(texture, layout.Rects[i].Image(), img, img.Bounds().Min, draw.Src)
	}

	a, err := atlas.NewAsset(layout, texture, paths)
	if err != nil {
		return nil, err
	}
	lc.AddLabeled(atlas.LabelLayout, a.Layout)
	lc.AddLabeled(atlas.LabelTexture, a.Texture)
	lc.Logger().Debug("libatlas: built atlas", "path", lc.Path(), "count", a.Len(), "size", layout.Size)
	return a, nil
}

// Register adds the image loader and the atlas loaders to s.
func Register(s *asset.Server) {
	s.Register(imagefmt.Loader{}, BuildLoader{}, DirectLoader{})
}
