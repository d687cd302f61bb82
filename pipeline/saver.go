package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/atlas"
	"github.com/eak1mov/go-libatlas/imagefmt"
)

const SaverName = "atlas_saver"

// SaverSettings select the texture encoding. Auto means PNG.
type SaverSettings struct {
	Format imagefmt.Format `yaml:"format,omitempty"`
}

// Saver encodes the texture of an atlas and returns *atlas.Settings for
// DirectLoader.
type Saver struct{}

func (Saver) Name() string         { return SaverName }
func (Saver) OutputLoader() string { return DirectLoaderName }

func (Saver) Save(ctx context.Context, w *asset.Writer, h *asset.Handle, settings any) (any, error) {
	format := imagefmt.PNG
	switch s := settings.(type) {
	case *SaverSettings:
		if s != nil && s.Format != imagefmt.Auto {
			format = s.Format
		}
	case SaverSettings:
		if s.Format != imagefmt.Auto {
			format = s.Format
		}
	}

	layout, ok := asset.GetLabeled[*atlas.Layout](h, atlas.LabelLayout)
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s", atlas.ErrMissingSubAsset, h.Path(), atlas.LabelLayout)
	}
	texture, ok := asset.GetLabeled[*image.NRGBA](h, atlas.LabelTexture)
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s", atlas.ErrMissingSubAsset, h.Path(), atlas.LabelTexture)
	}
	var paths atlas.PathIndex
	if a, ok := asset.Get[*atlas.Asset](h); ok {
		paths = a.Paths
	} else {
		paths = atlas.NewPathIndex(make([]*string, layout.Len())...)
	}
	a, err := atlas.NewAsset(layout, texture, paths)
	if err != nil {
		return nil, err
	}

	if !format.CanEncode() {
		return nil, fmt.Errorf("%w: cannot encode %v", atlas.ErrFormat, format)
	}
	if err := imagefmt.Encode(w, a.Texture, format); err != nil {
		return nil, err
	}
	return atlas.SettingsFromAsset(a, format), nil
}
