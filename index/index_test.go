package index_test

import (
	"bytes"
	"testing"

	"github.com/eak1mov/go-libatlas/atlas"
	"github.com/eak1mov/go-libatlas/index"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testLayout = &atlas.Layout{
	Size: atlas.Size{Width: 64, Height: 32},
	Rects: []atlas.Rect{
		{X: 48, Y: 0, Width: 16, Height: 16},
		{X: 16, Y: 0, Width: 32, Height: 16},
		{X: 0, Y: 0, Width: 16, Height: 32},
	},
}

func TestWriteReadAll(t *testing.T) {
	items := index.FromLayout(testLayout)
	require.Len(t, items, 4)

	var buf bytes.Buffer
	require.NoError(t, index.WriteAll(items, &buf))
	require.Equal(t, 4*20, buf.Len())
	// little-endian header record
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0, 0, 0, 0, 0, 64, 0, 0, 0, 32, 0, 0, 0}, buf.Bytes()[:20])

	got, err := index.ReadAll(buf.Bytes())
	require.NoError(t, err)
	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("ReadAll mismatch (-want+got):\n%v", diff)
	}

	layout, err := index.ToLayout(got)
	require.NoError(t, err)
	if diff := cmp.Diff(testLayout, layout); diff != "" {
		t.Errorf("ToLayout mismatch (-want+got):\n%v", diff)
	}
}

func TestToLayoutShuffled(t *testing.T) {
	items := index.FromLayout(testLayout)
	items[1], items[3] = items[3], items[1]
	layout, err := index.ToLayout(items)
	require.NoError(t, err)
	if diff := cmp.Diff(testLayout, layout); diff != "" {
		t.Errorf("ToLayout mismatch (-want+got):\n%v", diff)
	}
}

func TestErrors(t *testing.T) {
	_, err := index.ReadAll(make([]byte, 21))
	require.ErrorIs(t, err, atlas.ErrInvalidAsset)

	for name, items := range map[string][]index.Item{
		"empty":     nil,
		"no_header": {{Index: 0, Width: 1, Height: 1}},
		"duplicate": {{Index: index.HeaderIndex, Width: 4, Height: 4}, {Index: 0, Width: 1, Height: 1}, {Index: 0, Width: 1, Height: 1}},
		"range":     {{Index: index.HeaderIndex, Width: 4, Height: 4}, {Index: 5, Width: 1, Height: 1}},
		"overlap":   {{Index: index.HeaderIndex, Width: 4, Height: 4}, {Index: 0, Width: 2, Height: 2}, {Index: 1, X: 1, Y: 1, Width: 2, Height: 2}},
		"outside":   {{Index: index.HeaderIndex, Width: 4, Height: 4}, {Index: 0, X: 3, Width: 2, Height: 2}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := index.ToLayout(items)
			require.ErrorIs(t, err, atlas.ErrInvalidAsset)
		})
	}
}
