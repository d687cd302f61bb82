package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/atlas"
	"github.com/eak1mov/go-libatlas/imagefmt"
)

const DirectLoaderName = "atlas"

// DirectLoader loads a packed atlas texture using *atlas.Settings, usually
// from the .meta sidecar written by Saver. It has no file extensions.
type DirectLoader struct{}

func (DirectLoader) Name() string         { return DirectLoaderName }
func (DirectLoader) Extensions() []string { return nil }

func (DirectLoader) DecodeSettings(decode func(any) error) (any, error) {
	var s atlas.Settings
	if err := decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func directSettings(lc *asset.LoadContext) (*atlas.Settings, error) {
	switch s := lc.Settings().(type) {
	case *atlas.Settings:
		if s != nil {
			return s, nil
		}
	case atlas.Settings:
		return &s, nil
	}
	return nil, fmt.Errorf("%w: %s: missing atlas settings", atlas.ErrConfigParse, lc.Path())
}

// Plan requests the texture decoded from the atlas's own bytes. An explicit
// format overrides detection from the file extension.
func (DirectLoader) Plan(ctx context.Context, lc *asset.LoadContext) error {
	s, err := directSettings(lc)
	if err != nil {
		return err
	}
	imagePath := lc.Path()
	var settings imagefmt.Settings
	if s.Format != nil {
		imagePath = asset.ReplaceExt(imagePath, s.Format.Extension())
		settings.Format = *s.Format
	}
	lc.Load(asset.Request{
		Path:     imagePath,
		Loader:   imagefmt.LoaderName,
		Settings: &settings,
		Data:     lc.Data(),
	})
	lc.SetState(s)
	return nil
}

func (DirectLoader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	s := lc.State().(*atlas.Settings)
	h, err := lc.Dependency(0)
	if err != nil {
		return nil, err
	}
	texture, ok := asset.Get[*image.NRGBA](h)
	if !ok {
		return nil, fmt.Errorf("%w: %s: not an image (%T)", atlas.ErrDependencyLoad, h.Path(), h.Value())
	}

	b := texture.Bounds()
	layout := &atlas.Layout{
		Size:  atlas.Size{Width: uint32(b.Dx()), Height: uint32(b.Dy())},
		Rects: s.Rects(),
	}
	a, err := atlas.NewAsset(layout, texture, s.PathIndex())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", atlas.ErrConfigParse, lc.Path(), err)
	}
	lc.AddLabeled(atlas.LabelLayout, a.Layout)
	lc.AddLabeled(atlas.LabelTexture, a.Texture)
	return a, nil
}
