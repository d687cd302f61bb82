package internal

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"iter"
	"testing"
)

// Size is a test image size in pixels.
type Size struct {
	Width, Height int
}

// Pattern returns a deterministic image whose pixels depend on seed and
// position, so misplaced copies are detected.
func Pattern(width, height int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, color.NRGBA{
				R: seed,
				G: uint8(x * 7),
				B: uint8(y * 13),
				A: 255 - uint8((x+y)%4),
			})
		}
	}
	return img
}

func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// PNGs yields "<prefix><i>.png" names and encoded Pattern images, one per size.
func PNGs(t testing.TB, prefix string, sizes []Size) iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		t.Helper()
		for i, s := range sizes {
			name := fmt.Sprintf("%s%d.png", prefix, i)
			if !yield(name, EncodePNG(t, Pattern(s.Width, s.Height, uint8(i+1)))) {
				return
			}
		}
	}
}
