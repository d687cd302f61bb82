package imagefmt

import (
	"context"
	"fmt"

	"github.com/eak1mov/go-libatlas/asset"
)

// LoaderName is the name of the raw image loader.
const LoaderName = "image"

// Settings of the raw image loader.
type Settings struct {
	// Format overrides extension based detection when not Auto.
	Format Format `yaml:"format,omitempty"`
}

// Loader decodes raw images into *image.NRGBA.
type Loader struct{}

func (Loader) Name() string { return LoaderName }

func (Loader) Extensions() []string {
	var exts []string
	for _, f := range Formats() {
		exts = append(exts, f.Extensions()...)
	}
	return exts
}

func (Loader) DecodeSettings(decode func(any) error) (any, error) {
	var s Settings
	if err := decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (Loader) Plan(ctx context.Context, lc *asset.LoadContext) error {
	return nil
}

func (Loader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	f := Auto
	switch s := lc.Settings().(type) {
	case *Settings:
		if s != nil {
			f = s.Format
		}
	case Settings:
		f = s.Format
	}
	if f == Auto {
		var err error
		if f, err = FromExtension(lc.Path()); err != nil {
			return nil, err
		}
	}
	img, err := Decode(lc.Data(), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lc.Path(), err)
	}
	lc.Logger().Debug("libatlas: decoded image", "path", lc.Path(), "format", f, "bounds", img.Bounds())
	return ToNRGBA(img), nil
}
