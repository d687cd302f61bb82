package pack

// ShelfAllocator places rectangles on horizontal shelves. Each shelf is as
// tall as the tallest item placed on it; items go left to right until the
// shelf is full, then a new shelf is started below.
//
// Items should be allocated in decreasing height order for tight results.
type ShelfAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf

	usedArea int
}

type shelf struct {
	y      int
	height int
	x      int // next free position
}

func NewShelfAllocator(width, height, padding int) *ShelfAllocator {
	return &ShelfAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// Allocate finds space for a w×h rectangle followed by padding on the right
// and below. It returns false when the rectangle does not fit.
func (a *ShelfAllocator) Allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + a.padding
	paddedH := h + a.padding

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+paddedW > a.width {
			continue
		}
		if h > s.height {
			// Only the last shelf can grow.
			if i != len(a.shelves)-1 || s.y+paddedH > a.height {
				continue
			}
			s.height = h
		}
		x, y = s.x, s.y
		s.x += paddedW
		a.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height + a.padding
	}
	if newY+paddedH > a.height || paddedW > a.width {
		return -1, -1, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: paddedW})
	a.usedArea += w * h
	return 0, newY, true
}

// Reset clears all allocations and resizes the area to width×height.
func (a *ShelfAllocator) Reset(width, height int) {
	a.width, a.height = width, height
	a.shelves = a.shelves[:0]
	a.usedArea = 0
}

// Utilization returns the fraction of the area covered by allocations.
func (a *ShelfAllocator) Utilization() float64 {
	if a.width <= 0 || a.height <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(a.width*a.height)
}

func (a *ShelfAllocator) ShelfCount() int {
	return len(a.shelves)
}
