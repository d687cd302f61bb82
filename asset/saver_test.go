package asset_test

import (
	"context"
	"errors"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// reverseSaver writes the reversed text and asks the text loader to upper
// case it on load.
type reverseSaver struct {
	fail bool
}

func (reverseSaver) Name() string         { return "reverse" }
func (reverseSaver) OutputLoader() string { return "text" }

func (s reverseSaver) Save(ctx context.Context, w *asset.Writer, h *asset.Handle, settings any) (any, error) {
	v, ok := asset.Get[string](h)
	if !ok {
		return nil, errors.New("not a string")
	}
	r := []rune(v)
	slices.Reverse(r)
	if _, err := w.Write([]byte(string(r))); err != nil {
		return nil, err
	}
	if s.fail {
		return nil, errors.New("save failed")
	}
	return &textSettings{Upper: true}, nil
}

func TestProcess(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.WriteAsset("src.txt", []byte("hello")))
	s := asset.NewServer(m, asset.WithWriter(m))
	s.Register(&textLoader{})

	require.NoError(t, s.Process(t.Context(), "src.txt", "out/dst.bin", reverseSaver{}, nil))

	data, err := m.ReadAsset("out/dst.bin")
	require.NoError(t, err)
	require.Equal(t, "olleh", string(data))

	meta, err := m.ReadAsset("out/dst.bin.meta")
	require.NoError(t, err)
	if diff := cmp.Diff("loader: text\nsettings:\n    upper: true\n", string(meta)); diff != "" {
		t.Errorf("meta mismatch (-want+got):\n%v", diff)
	}

	h, err := s.Load(t.Context(), "out/dst.bin")
	require.NoError(t, err)
	require.Equal(t, "OLLEH", h.Value())
}

func TestProcessFailureWritesNothing(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.WriteAsset("src.txt", []byte("hello")))
	s := asset.NewServer(m, asset.WithWriter(m))
	s.Register(&textLoader{})

	err := s.Process(t.Context(), "src.txt", "dst.bin", reverseSaver{fail: true}, nil)
	require.ErrorContains(t, err, "save failed")

	err = s.Process(t.Context(), "missing.txt", "dst.bin", reverseSaver{}, nil)
	require.ErrorIs(t, err, fs.ErrNotExist)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err = s.Process(ctx, "src.txt", "dst.bin", reverseSaver{}, nil)
	require.ErrorIs(t, err, context.Canceled)

	got := slices.Sorted(maps.Keys(maps.Collect(store.IterAssets(m))))
	if diff := cmp.Diff([]string{"src.txt"}, got); diff != "" {
		t.Errorf("stored assets mismatch (-want+got):\n%v", diff)
	}
}

func TestProcessWithoutWriter(t *testing.T) {
	s := asset.NewServer(store.NewMemory())
	err := s.Save(t.Context(), asset.NewHandle("a.txt", "a", nil), "b.txt", reverseSaver{}, nil)
	require.ErrorIs(t, err, asset.ErrNoWriter)
}

func TestHandle(t *testing.T) {
	h := asset.NewHandle("a.txt", 42, map[string]any{"b": "bee", "a": 1})
	if diff := cmp.Diff([]string{"a", "b"}, h.Labels()); diff != "" {
		t.Errorf("Labels() mismatch (-want+got):\n%v", diff)
	}
	if v, ok := asset.Get[int](h); !ok || v != 42 {
		t.Errorf("Get[int] = %v, %v", v, ok)
	}
	if _, ok := asset.Get[string](h); ok {
		t.Errorf("Get[string] succeeded on int value")
	}
	if v, ok := asset.GetLabeled[string](h, "b"); !ok || v != "bee" {
		t.Errorf("GetLabeled(b) = %v, %v", v, ok)
	}
	if _, ok := asset.GetLabeled[string](h, "a"); ok {
		t.Errorf("GetLabeled[string](a) succeeded on int value")
	}
	if _, ok := h.Labeled("c"); ok {
		t.Errorf("Labeled(c) succeeded")
	}
}

func TestParsePath(t *testing.T) {
	for _, s := range []string{"a.png", "hero.atlas.hcl#layout", "x#"} {
		p := asset.ParsePath(s)
		if got := p.String(); got != strings.TrimSuffix(s, "#") {
			t.Errorf("ParsePath(%q).String() = %q", s, got)
		}
	}
	if got, want := asset.ParsePath("hero.atlas.hcl#texture"), (asset.Path{Path: "hero.atlas.hcl", Label: "texture"}); got != want {
		t.Errorf("ParsePath = %+v, want = %+v", got, want)
	}
	for _, tc := range []struct{ path, ext, want string }{
		{"a/b.atlas", "png", "a/b.png"},
		{"a/b.atlas", "", "a/b"},
		{"noext", "jpg", "noext.jpg"},
	} {
		if got := asset.ReplaceExt(tc.path, tc.ext); got != tc.want {
			t.Errorf("ReplaceExt(%q, %q) = %q, want = %q", tc.path, tc.ext, got, tc.want)
		}
	}
}

// sidecarFailWriter stores through m but rejects every .meta write. It only
// implements store.Writer.
type sidecarFailWriter struct {
	m *store.Memory
}

func (w sidecarFailWriter) WriteAsset(assetPath string, data []byte) error {
	if strings.HasSuffix(assetPath, asset.MetaExt) {
		return errors.New("disk full")
	}
	return w.m.WriteAsset(assetPath, data)
}

// batchFailWriter rejects every batch.
type batchFailWriter struct {
	sidecarFailWriter
}

func (w batchFailWriter) WriteAssets(items ...store.Item) error {
	return errors.New("disk full")
}

func TestSaveSidecarFailure(t *testing.T) {
	for _, tc := range []struct {
		name   string
		writer func(m *store.Memory) store.Writer
	}{
		{"sequential", func(m *store.Memory) store.Writer { return sidecarFailWriter{m} }},
		{"batch", func(m *store.Memory) store.Writer { return batchFailWriter{sidecarFailWriter{m}} }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := store.NewMemory()
			require.NoError(t, m.WriteAsset("src.txt", []byte("new")))
			require.NoError(t, m.WriteAsset("out.txt", []byte("OLD")))
			require.NoError(t, m.WriteAsset("out.txt.meta", []byte("loader: text\n")))
			before := maps.Collect(store.IterAssets(m))

			s := asset.NewServer(m, asset.WithWriter(tc.writer(m)))
			s.Register(&textLoader{})

			err := s.Process(t.Context(), "src.txt", "out.txt", reverseSaver{}, nil)
			require.ErrorIs(t, err, asset.ErrIO)
			require.ErrorContains(t, err, "disk full")

			if diff := cmp.Diff(before, maps.Collect(store.IterAssets(m))); diff != "" {
				t.Errorf("storage changed after failed save (-want+got):\n%v", diff)
			}
		})
	}
}
