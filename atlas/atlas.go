// Package atlas defines texture atlas assets: a packed texture, the layout of
// sub-images inside it and the path index mapping each sub-image back to its
// source.
package atlas

import (
	"cmp"
	"fmt"
	"image"
	"slices"
)

// Labels of the sub-assets exposed by an atlas.
const (
	LabelLayout  = "layout"
	LabelTexture = "texture"
)

// Rect is an axis-aligned region in pixels.
type Rect struct {
	X      uint32 `yaml:"x"`
	Y      uint32 `yaml:"y"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

// Max returns the exclusive bottom-right corner, widened to avoid overflow.
func (r Rect) Max() (x, y uint64) {
	return uint64(r.X) + uint64(r.Width), uint64(r.Y) + uint64(r.Height)
}

func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Overlaps reports whether r and s share at least one pixel.
func (r Rect) Overlaps(s Rect) bool {
	if r.Empty() || s.Empty() {
		return false
	}
	rx, ry := r.Max()
	sx, sy := s.Max()
	return uint64(r.X) < sx && uint64(s.X) < rx && uint64(r.Y) < sy && uint64(s.Y) < ry
}

// Contains reports whether s lies entirely inside r.
func (r Rect) Contains(s Rect) bool {
	rx, ry := r.Max()
	sx, sy := s.Max()
	return s.X >= r.X && s.Y >= r.Y && sx <= rx && sy <= ry
}

func (r Rect) Image() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Size is a canvas size in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) Rect() Rect {
	return Rect{Width: s.Width, Height: s.Height}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Layout is a canvas size and the ordered rects of the sub-images. The
// position of a rect is the sub-image index used everywhere else.
type Layout struct {
	Size  Size
	Rects []Rect
}

func (l *Layout) Len() int {
	return len(l.Rects)
}

// Validate checks that every rect lies inside the canvas and no two rects
// overlap.
func (l *Layout) Validate() error {
	canvas := l.Size.Rect()
	for i, r := range l.Rects {
		if !canvas.Contains(r) {
			return fmt.Errorf("rect %d (%v) outside of canvas %v", i, r, l.Size)
		}
	}
	// Sweep along x: only rects whose x ranges intersect are compared.
	order := make([]int, len(l.Rects))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(l.Rects[a].X, l.Rects[b].X)
	})
	for a := range order {
		ra := l.Rects[order[a]]
		ax, _ := ra.Max()
		for b := a + 1; b < len(order); b++ {
			rb := l.Rects[order[b]]
			if uint64(rb.X) >= ax {
				break
			}
			if ra.Overlaps(rb) {
				return fmt.Errorf("rects %d (%v) and %d (%v) overlap", order[a], ra, order[b], rb)
			}
		}
	}
	return nil
}
