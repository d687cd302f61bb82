package atlas

import (
	"fmt"
	"image"
)

// PathIndex maps sub-image positions to optional source paths. A nil entry
// is a sub-image without a durable source.
type PathIndex struct {
	paths []*string
}

func NewPathIndex(paths ...*string) PathIndex {
	return PathIndex{paths: append([]*string(nil), paths...)}
}

// Add appends path and returns its position.
func (p *PathIndex) Add(path *string) int {
	if path != nil {
		s := *path
		path = &s
	}
	p.paths = append(p.paths, path)
	return len(p.paths) - 1
}

func (p *PathIndex) Len() int {
	return len(p.paths)
}

func (p *PathIndex) Get(i int) (string, bool) {
	if i < 0 || i >= len(p.paths) || p.paths[i] == nil {
		return "", false
	}
	return *p.paths[i], true
}

// Index returns the first position of path.
func (p *PathIndex) Index(path string) (int, bool) {
	for i, s := range p.paths {
		if s != nil && *s == path {
			return i, true
		}
	}
	return -1, false
}

// Paths returns a copy of the entries.
func (p *PathIndex) Paths() []*string {
	out := make([]*string, len(p.paths))
	for i, s := range p.paths {
		if s != nil {
			v := *s
			out[i] = &v
		}
	}
	return out
}

// Asset is a loaded atlas. It is immutable once created.
type Asset struct {
	Layout  *Layout
	Texture *image.NRGBA
	Paths   PathIndex
}

// NewAsset checks that the parts agree with each other: the texture covers
// exactly the canvas, the layout is valid and there is one path per rect.
func NewAsset(layout *Layout, texture *image.NRGBA, paths PathIndex) (*Asset, error) {
	if layout == nil || texture == nil {
		return nil, fmt.Errorf("%w: nil layout or texture", ErrInvalidAsset)
	}
	b := texture.Bounds()
	if b.Min != (image.Point{}) || b.Dx() != int(layout.Size.Width) || b.Dy() != int(layout.Size.Height) {
		return nil, fmt.Errorf("%w: texture bounds %v do not match canvas %v", ErrInvalidAsset, b, layout.Size)
	}
	if paths.Len() != layout.Len() {
		return nil, fmt.Errorf("%w: %d paths for %d rects", ErrInvalidAsset, paths.Len(), layout.Len())
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	return &Asset{Layout: layout, Texture: texture, Paths: paths}, nil
}

func (a *Asset) Len() int {
	return a.Layout.Len()
}

// Labeled returns the named sub-assets LabelLayout and LabelTexture.
func (a *Asset) Labeled(label string) (any, bool) {
	switch label {
	case LabelLayout:
		return a.Layout, true
	case LabelTexture:
		return a.Texture, true
	}
	return nil, false
}

// SubImage returns the pixels of sub-image i.
func (a *Asset) SubImage(i int) *image.NRGBA {
	return a.Texture.SubImage(a.Layout.Rects[i].Image()).(*image.NRGBA)
}
