// Package index provides a portable binary form of an atlas layout.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/eak1mov/go-libatlas/atlas"
)

// Item represents a single record in the index, mapping a sub-image index to
// its rectangle in the atlas texture. Records are fixed-size little-endian
// structs, so the file is easy to read from other languages and utilities.
// The first record holds the canvas size, with Index set to HeaderIndex.
type Item struct {
	Index  uint32
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

const HeaderIndex = ^uint32(0)

func (i Item) Rect() atlas.Rect {
	return atlas.Rect{X: i.X, Y: i.Y, Width: i.Width, Height: i.Height}
}

func FromLayout(layout *atlas.Layout) []Item {
	items := make([]Item, 0, layout.Len()+1)
	items = append(items, Item{
		Index:  HeaderIndex,
		Width:  layout.Size.Width,
		Height: layout.Size.Height,
	})
	for i, r := range layout.Rects {
		items = append(items, Item{Index: uint32(i), X: r.X, Y: r.Y, Width: r.Width, Height: r.Height})
	}
	return items
}

// ToLayout restores a layout; items may come in any order after the header.
func ToLayout(items []Item) (*atlas.Layout, error) {
	if len(items) == 0 || items[0].Index != HeaderIndex {
		return nil, fmt.Errorf("%w: index has no header", atlas.ErrInvalidAsset)
	}
	layout := &atlas.Layout{
		Size:  atlas.Size{Width: items[0].Width, Height: items[0].Height},
		Rects: make([]atlas.Rect, len(items)-1),
	}
	seen := make([]bool, len(layout.Rects))
	for _, item := range items[1:] {
		if item.Index >= uint32(len(layout.Rects)) || seen[item.Index] {
			return nil, fmt.Errorf("%w: bad index item %d", atlas.ErrInvalidAsset, item.Index)
		}
		seen[item.Index] = true
		layout.Rects[item.Index] = item.Rect()
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", atlas.ErrInvalidAsset, err)
	}
	return layout, nil
}

func WriteAll(items []Item, writer io.Writer) error {
	return binary.Write(writer, binary.LittleEndian, items)
}

func ReadAll(indexData []byte) ([]Item, error) {
	if len(indexData)%binary.Size(Item{}) != 0 {
		return nil, fmt.Errorf("%w: index size %d", atlas.ErrInvalidAsset, len(indexData))
	}
	count := len(indexData) / binary.Size(Item{})
	items := make([]Item, count)

	err := binary.Read(bytes.NewReader(indexData), binary.LittleEndian, items)
	if err != nil {
		return nil, err
	}

	return items, nil
}
