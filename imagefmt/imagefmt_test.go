package imagefmt_test

import (
	"bytes"
	"image"
	"testing"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/imagefmt"
	"github.com/eak1mov/go-libatlas/internal"
	"github.com/eak1mov/go-libatlas/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  imagefmt.Format
	}{
		{"png", imagefmt.PNG},
		{"PNG", imagefmt.PNG},
		{".jpg", imagefmt.JPEG},
		{"jpeg", imagefmt.JPEG},
		{"tif", imagefmt.TIFF},
		{"webp", imagefmt.WebP},
		{"", imagefmt.Auto},
	} {
		got, err := imagefmt.ParseFormat(tc.input)
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", tc.input, err)
		} else if got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, want = %v", tc.input, got, tc.want)
		}
	}

	_, err := imagefmt.ParseFormat("ktx2")
	require.ErrorIs(t, err, imagefmt.ErrFormat)

	_, err = imagefmt.FromExtension("sprites/noext")
	require.ErrorIs(t, err, imagefmt.ErrFormat)

	f, err := imagefmt.FromExtension("sprites/A.JPEG")
	require.NoError(t, err)
	require.Equal(t, imagefmt.JPEG, f)
}

func TestFormatYAML(t *testing.T) {
	type doc struct {
		Format  imagefmt.Format  `yaml:"format"`
		Pointer *imagefmt.Format `yaml:"pointer,omitempty"`
	}
	f := imagefmt.TIFF
	data, err := yaml.Marshal(doc{Format: imagefmt.BMP, Pointer: &f})
	require.NoError(t, err)
	if diff := cmp.Diff("format: bmp\npointer: tiff\n", string(data)); diff != "" {
		t.Errorf("yaml mismatch (-want+got):\n%v", diff)
	}

	var got doc
	require.NoError(t, yaml.Unmarshal([]byte("format: jpg\npointer: webp\n"), &got))
	require.Equal(t, imagefmt.JPEG, got.Format)
	require.Equal(t, imagefmt.WebP, *got.Pointer)

	require.ErrorIs(t, yaml.Unmarshal([]byte("format: psd\n"), &got), imagefmt.ErrFormat)
}

func opaque(img *image.NRGBA) *image.NRGBA {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func TestCodecRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		f    imagefmt.Format
		want *image.NRGBA
	}{
		{imagefmt.PNG, internal.Pattern(7, 5, 3)},
		{imagefmt.TIFF, internal.Pattern(7, 5, 3)},
		// BMP stores no alpha.
		{imagefmt.BMP, opaque(internal.Pattern(7, 5, 3))},
	} {
		f, want := tc.f, tc.want
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, imagefmt.Encode(&buf, want, f))
			img, err := imagefmt.Decode(buf.Bytes(), f)
			require.NoError(t, err)
			got := imagefmt.ToNRGBA(img)
			if diff := cmp.Diff(want.Pix, got.Pix); diff != "" {
				t.Errorf("pixels mismatch (-want+got):\n%v", diff)
			}
		})
	}
}

func TestCodecErrors(t *testing.T) {
	img := internal.Pattern(2, 2, 1)
	var buf bytes.Buffer
	require.ErrorIs(t, imagefmt.Encode(&buf, img, imagefmt.WebP), imagefmt.ErrFormat)
	require.ErrorIs(t, imagefmt.Encode(&buf, img, imagefmt.Auto), imagefmt.ErrFormat)
	require.False(t, imagefmt.WebP.CanEncode())

	_, err := imagefmt.Decode(internal.EncodePNG(t, img), imagefmt.JPEG)
	require.ErrorIs(t, err, imagefmt.ErrFormat)
	_, err = imagefmt.Decode([]byte("junk"), imagefmt.Auto)
	require.ErrorIs(t, err, imagefmt.ErrFormat)
}

func TestToNRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(3, 4, 6, 6))
	got := imagefmt.ToNRGBA(src)
	require.Equal(t, image.Rect(0, 0, 3, 2), got.Bounds())

	n := internal.Pattern(2, 2, 1)
	require.Same(t, n, imagefmt.ToNRGBA(n))
}

func TestLoader(t *testing.T) {
	m := store.NewMemory()
	want := internal.Pattern(4, 3, 9)
	pngData := internal.EncodePNG(t, want)
	require.NoError(t, m.WriteAsset("a.png", pngData))
	require.NoError(t, m.WriteAsset("b.jpg", pngData))

	s := asset.NewServer(m)
	s.Register(imagefmt.Loader{})

	h, err := s.Load(t.Context(), "a.png")
	require.NoError(t, err)
	got, ok := asset.Get[*image.NRGBA](h)
	require.True(t, ok)
	if diff := cmp.Diff(want.Pix, got.Pix); diff != "" {
		t.Errorf("pixels mismatch (-want+got):\n%v", diff)
	}

	_, err = s.Load(t.Context(), "b.jpg")
	require.ErrorIs(t, err, imagefmt.ErrFormat)

	h, err = s.LoadRequest(t.Context(), asset.Request{
		Path:     "b.jpg",
		Settings: &imagefmt.Settings{Format: imagefmt.PNG},
	})
	require.NoError(t, err)
	got, _ = asset.Get[*image.NRGBA](h)
	require.Equal(t, want.Bounds(), got.Bounds())
}
