// Package pack computes deterministic atlas layouts.
//
// Canvas sizes are powers of two. Candidate canvases are tried from the
// smallest area up, squarer shapes first and wider before taller on ties;
// the first canvas that holds every item wins. Items are placed tallest
// first (then widest, then by input index) with a ShelfAllocator, and the
// resulting rects are returned in input order.
package pack

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/bits"
	"slices"

	"github.com/eak1mov/go-libatlas/atlas"
)

const DefaultMaxSize = 4096

type options struct {
	padding uint32
	maxSize uint32
	logger  *slog.Logger
}

type Option func(o *options)

// WithPadding leaves n transparent pixels to the right of and below every
// item.
func WithPadding(n uint32) Option {
	return func(o *options) { o.padding = n }
}

// WithMaxSize limits the canvas width and height. Zero keeps the default.
func WithMaxSize(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type candidate struct {
	w, h int
}

// Pack places items of the given sizes on the smallest power-of-two canvas
// that fits them. Rects[i] of the result belongs to sizes[i].
func Pack(sizes []atlas.Size, opts ...Option) (*atlas.Layout, error) {
	o := options{
		maxSize: DefaultMaxSize,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no images", atlas.ErrPacking)
	}

	padding := int(o.padding)
	maxSize := int(o.maxSize)
	maxEdge := 0
	var area uint64
	for i, s := range sizes {
		if s.Width == 0 || s.Height == 0 {
			return nil, fmt.Errorf("%w: image %d is empty (%v)", atlas.ErrPacking, i, s)
		}
		w, h := int(s.Width)+padding, int(s.Height)+padding
		if w > maxSize || h > maxSize {
			return nil, fmt.Errorf("%w: image %d (%v) exceeds max size %d", atlas.ErrPacking, i, s, maxSize)
		}
		maxEdge = max(maxEdge, w, h)
		area += uint64(w) * uint64(h)
	}

	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Or(
			cmp.Compare(sizes[b].Height, sizes[a].Height),
			cmp.Compare(sizes[b].Width, sizes[a].Width),
			cmp.Compare(a, b),
		)
	})

	rects := make([]atlas.Rect, len(sizes))
	alloc := NewShelfAllocator(0, 0, padding)
	for _, c := range candidates(nextPow2(maxEdge), maxSize) {
		if uint64(c.w)*uint64(c.h) < area {
			continue
		}
		alloc.Reset(c.w, c.h)
		if !place(alloc, sizes, order, rects) {
			continue
		}
		o.logger.Debug("libatlas: packed atlas",
			"count", len(sizes), "width", c.w, "height", c.h, "utilization", alloc.Utilization())
		return &atlas.Layout{
			Size:  atlas.Size{Width: uint32(c.w), Height: uint32(c.h)},
			Rects: rects,
		}, nil
	}
	return nil, fmt.Errorf("%w: %d images do not fit into %dx%d", atlas.ErrPacking, len(sizes), maxSize, maxSize)
}

func place(alloc *ShelfAllocator, sizes []atlas.Size, order []int, rects []atlas.Rect) bool {
	for _, i := range order {
		s := sizes[i]
		x, y, ok := alloc.Allocate(int(s.Width), int(s.Height))
		if !ok {
			return false
		}
		rects[i] = atlas.Rect{X: uint32(x), Y: uint32(y), Width: s.Width, Height: s.Height}
	}
	return true
}

// candidates lists power-of-two canvases with edges in [minEdge, maxSize],
// ordered by area, then squareness, then wider first.
func candidates(minEdge, maxSize int) []candidate {
	var cs []candidate
	for w := minEdge; w <= maxSize; w *= 2 {
		for h := minEdge; h <= maxSize; h *= 2 {
			cs = append(cs, candidate{w: w, h: h})
		}
	}
	slices.SortFunc(cs, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.w*a.h, b.w*b.h),
			cmp.Compare(skew(a), skew(b)),
			cmp.Compare(b.w, a.w),
		)
	})
	return cs
}

func skew(c candidate) int {
	d := bits.Len(uint(c.w)) - bits.Len(uint(c.h))
	if d < 0 {
		return -d
	}
	return d
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
