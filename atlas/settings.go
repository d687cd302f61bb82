package atlas

import (
	"github.com/eak1mov/go-libatlas/imagefmt"
)

// Settings describe an already packed atlas: the texture format and the
// rect of every sub-image, in index order.
type Settings struct {
	// Format of the texture. Nil means detect from the file extension.
	Format   *imagefmt.Format `yaml:"format,omitempty"`
	Textures []Entry          `yaml:"textures"`
}

type Entry struct {
	Path *string `yaml:"path,omitempty"`
	Rect Rect    `yaml:"rect"`
}

// SettingsFromLayout returns settings with the rects of l and no source
// paths or format.
func SettingsFromLayout(l *Layout) *Settings {
	s := &Settings{Textures: make([]Entry, len(l.Rects))}
	for i, r := range l.Rects {
		s.Textures[i] = Entry{Rect: r}
	}
	return s
}

// SettingsFromAsset zips the path index of a with its rects.
func SettingsFromAsset(a *Asset, format imagefmt.Format) *Settings {
	s := SettingsFromLayout(a.Layout)
	paths := a.Paths.Paths()
	for i := range s.Textures {
		s.Textures[i].Path = paths[i]
	}
	return s.WithFormat(format)
}

// WithFormat returns a copy of s with the given format; Auto clears it.
func (s *Settings) WithFormat(f imagefmt.Format) *Settings {
	c := *s
	if f == imagefmt.Auto {
		c.Format = nil
	} else {
		c.Format = &f
	}
	return &c
}

// Rects returns the rects in entry order.
func (s *Settings) Rects() []Rect {
	rects := make([]Rect, len(s.Textures))
	for i, e := range s.Textures {
		rects[i] = e.Rect
	}
	return rects
}

// PathIndex returns the entry paths in order.
func (s *Settings) PathIndex() PathIndex {
	var p PathIndex
	for _, e := range s.Textures {
		p.Add(e.Path)
	}
	return p
}
