package asset_test

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type textSettings struct {
	Upper bool `yaml:"upper"`
}

// textLoader loads *.txt files as strings.
type textLoader struct {
	loads atomic.Int32
	delay bool
}

func (l *textLoader) Name() string         { return "text" }
func (l *textLoader) Extensions() []string { return []string{"txt"} }

func (l *textLoader) DecodeSettings(decode func(any) error) (any, error) {
	var s textSettings
	if err := decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (l *textLoader) Plan(ctx context.Context, lc *asset.LoadContext) error {
	return nil
}

func (l *textLoader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	l.loads.Add(1)
	if l.delay {
		time.Sleep(time.Duration(rand.IntN(2000)) * time.Microsecond)
	}
	s := string(lc.Data())
	if settings, ok := lc.Settings().(*textSettings); ok && settings.Upper {
		s = strings.ToUpper(s)
	}
	return s, nil
}

// listLoader loads *.list files: whitespace separated paths whose values are
// joined with commas. Every dependency is also exposed under its index.
type listLoader struct{}

func (listLoader) Name() string         { return "list" }
func (listLoader) Extensions() []string { return []string{"list"} }

func (listLoader) Plan(ctx context.Context, lc *asset.LoadContext) error {
	for _, p := range strings.Fields(string(lc.Data())) {
		lc.Load(asset.Request{Path: p})
	}
	return nil
}

func (listLoader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	var parts []string
	for i := range lc.NumDependencies() {
		h, err := lc.Dependency(i)
		if err != nil {
			return nil, err
		}
		v, _ := asset.Get[string](h)
		parts = append(parts, v)
		lc.AddLabeled(strconv.Itoa(i), v)
	}
	return strings.Join(parts, ","), nil
}

type blockingLoader struct {
	started chan struct{}
}

func (blockingLoader) Name() string         { return "block" }
func (blockingLoader) Extensions() []string { return []string{"block"} }

func (l blockingLoader) Plan(ctx context.Context, lc *asset.LoadContext) error {
	close(l.started)
	<-ctx.Done()
	return ctx.Err()
}

func (blockingLoader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	return nil, nil
}

type panicLoader struct{}

func (panicLoader) Name() string         { return "panic" }
func (panicLoader) Extensions() []string { return []string{"panic"} }

func (panicLoader) Plan(ctx context.Context, lc *asset.LoadContext) error { return nil }

func (panicLoader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	panic("boom")
}

func newServer(t *testing.T, files map[string]string, opts ...asset.Option) (*asset.Server, *textLoader) {
	t.Helper()
	m := store.NewMemory()
	for p, data := range files {
		require.NoError(t, m.WriteAsset(p, []byte(data)))
	}
	text := &textLoader{}
	s := asset.NewServer(m, opts...)
	s.Register(text, listLoader{}, panicLoader{})
	return s, text
}

func TestLoadPreservesOrder(t *testing.T) {
	files := map[string]string{}
	var want, names []string
	for i := range 50 {
		name := fmt.Sprintf("t%02d.txt", i)
		files[name] = strconv.Itoa(i)
		names = append(names, name)
		want = append(want, strconv.Itoa(i))
	}
	files["all.list"] = strings.Join(names, "\n")

	s, text := newServer(t, files, asset.WithWorkers(8))
	text.delay = true

	h, err := s.Load(t.Context(), "all.list")
	require.NoError(t, err)
	got, ok := asset.Get[string](h)
	require.True(t, ok)
	if diff := cmp.Diff(strings.Join(want, ","), got); diff != "" {
		t.Errorf("value mismatch (-want+got):\n%v", diff)
	}
	if diff := cmp.Diff(50, len(h.Labels())); diff != "" {
		t.Errorf("labels mismatch (-want+got):\n%v", diff)
	}
}

func TestLoadDeduplicatesPlainRequests(t *testing.T) {
	s, text := newServer(t, map[string]string{
		"a.txt":     "a",
		"one.list":  "a.txt",
		"two.list":  "a.txt ./a.txt",
		"both.list": "one.list two.list a.txt",
	})

	h, err := s.Load(t.Context(), "both.list")
	require.NoError(t, err)
	if got, want := h.Value(), "a,a,a,a"; got != want {
		t.Errorf("Value() = %v, want = %v", got, want)
	}
	if got := text.loads.Load(); got != 1 {
		t.Errorf("text loads = %d, want = 1", got)
	}
}

func TestLoadDetectsCycles(t *testing.T) {
	for _, tc := range []struct {
		name  string
		files map[string]string
	}{
		{name: "self", files: map[string]string{"a.list": "a.list"}},
		{name: "pair", files: map[string]string{"a.list": "b.list", "b.list": "a.list"}},
		{name: "long", files: map[string]string{"a.list": "b.list", "b.list": "c.list", "c.list": "a.list"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newServer(t, tc.files)
			_, err := s.Load(t.Context(), "a.list")
			require.ErrorIs(t, err, asset.ErrCycle)
			require.ErrorIs(t, err, asset.ErrDependencyLoad)
		})
	}
}

func TestLoadDependencyFailure(t *testing.T) {
	s, _ := newServer(t, map[string]string{
		"a.txt":    "a",
		"bad.list": "a.txt missing.txt",
	})

	_, err := s.Load(t.Context(), "bad.list")
	require.ErrorIs(t, err, asset.ErrDependencyLoad)
	require.ErrorIs(t, err, asset.ErrIO)
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.ErrorContains(t, err, "missing.txt")

	_, err = s.Load(t.Context(), "missing.list")
	require.ErrorIs(t, err, asset.ErrIO)
	require.NotErrorIs(t, err, asset.ErrDependencyLoad)

	_, err = s.Load(t.Context(), "a.unknown")
	require.ErrorIs(t, err, asset.ErrNoLoader)

	_, err = s.Load(t.Context(), "../outside.txt")
	require.ErrorIs(t, err, store.ErrInvalidPath)
}

func TestLoadDeepChain(t *testing.T) {
	const depth = 20000
	m := store.NewMemory()
	for i := range depth {
		require.NoError(t, m.WriteAsset(fmt.Sprintf("n%d.list", i), fmt.Appendf(nil, "n%d.list", i+1)))
	}
	require.NoError(t, m.WriteAsset(fmt.Sprintf("n%d.list", depth), []byte("leaf.txt")))
	require.NoError(t, m.WriteAsset("leaf.txt", []byte("leaf")))

	settled := 0
	s := asset.NewServer(m, asset.WithWorkers(2), asset.WithProgress(func(string, error) { settled++ }))
	s.Register(&textLoader{}, listLoader{})

	h, err := s.Load(t.Context(), "n0.list")
	require.NoError(t, err)
	if got, want := h.Value(), "leaf"; got != want {
		t.Errorf("Value() = %v, want = %v", got, want)
	}
	if got, want := settled, depth+2; got != want {
		t.Errorf("settled = %d, want = %d", got, want)
	}
}

func TestLoadCancel(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.WriteAsset("x.block", nil))
	started := make(chan struct{})
	s := asset.NewServer(m)
	s.Register(blockingLoader{started: started})

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		<-started
		cancel()
	}()
	h, err := s.Load(ctx, "x.block")
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, h)
}

func TestLoadRecoversPanics(t *testing.T) {
	s, _ := newServer(t, map[string]string{"x.panic": ""})
	_, err := s.Load(t.Context(), "x.panic")
	require.ErrorContains(t, err, "boom")
}

func TestLoadLabeled(t *testing.T) {
	s, _ := newServer(t, map[string]string{
		"a.txt":  "a",
		"b.txt":  "b",
		"l.list": "a.txt b.txt",
	})

	v, err := s.LoadLabeled(t.Context(), "l.list#1")
	require.NoError(t, err)
	require.Equal(t, "b", v)

	v, err = s.LoadLabeled(t.Context(), "l.list")
	require.NoError(t, err)
	require.Equal(t, "a,b", v)

	_, err = s.LoadLabeled(t.Context(), "l.list#2")
	require.ErrorIs(t, err, asset.ErrMissingLabel)
}

func TestLoadMeta(t *testing.T) {
	s, _ := newServer(t, map[string]string{
		"a.dat":      "hello",
		"a.dat.meta": "loader: text\nsettings:\n  upper: true\n",
		"b.txt":      "plain",
		"b.txt.meta": "loader: text\n",
		"c.txt":      "c",
		"c.txt.meta": "loader: nope\n",
		"d.txt":      "d",
		"d.txt.meta": "settings: [",
	})

	h, err := s.Load(t.Context(), "a.dat")
	require.NoError(t, err)
	require.Equal(t, "HELLO", h.Value())

	h, err = s.Load(t.Context(), "b.txt")
	require.NoError(t, err)
	require.Equal(t, "plain", h.Value())

	_, err = s.Load(t.Context(), "c.txt")
	require.ErrorIs(t, err, asset.ErrNoLoader)

	_, err = s.Load(t.Context(), "d.txt")
	require.ErrorIs(t, err, asset.ErrConfigParse)

	h, err = s.LoadRequest(t.Context(), asset.Request{Path: "a.dat", Loader: "text"})
	require.NoError(t, err)
	require.Equal(t, "hello", h.Value())

	h, err = s.LoadRequest(t.Context(), asset.Request{Path: "inline.txt", Data: []byte("inline"), Settings: &textSettings{Upper: true}})
	require.NoError(t, err)
	require.Equal(t, "INLINE", h.Value())
}

func TestLoaderForPath(t *testing.T) {
	s := asset.NewServer(store.NewMemory())
	s.Register(&textLoader{}, listLoader{})

	for _, tc := range []struct {
		path string
		want string
	}{
		{path: "a.txt", want: "text"},
		{path: "A.TXT", want: "text"},
		{path: "dir/x.list", want: "list"},
		{path: "x.txt.list", want: "list"},
		{path: "x.png", want: ""},
	} {
		l, ok := s.LoaderForPath(tc.path)
		got := ""
		if ok {
			got = l.Name()
		}
		if got != tc.want {
			t.Errorf("LoaderForPath(%q) = %q, want = %q", tc.path, got, tc.want)
		}
	}
}

// busyLoader records how many Load calls run at the same time.
type busyLoader struct {
	running, peak atomic.Int32
}

func (l *busyLoader) Name() string         { return "busy" }
func (l *busyLoader) Extensions() []string { return []string{"busy"} }

func (l *busyLoader) Plan(ctx context.Context, lc *asset.LoadContext) error { return nil }

func (l *busyLoader) Load(ctx context.Context, lc *asset.LoadContext) (any, error) {
	n := l.running.Add(1)
	defer l.running.Add(-1)
	for {
		peak := l.peak.Load()
		if n <= peak || l.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return string(lc.Data()), nil
}

func TestLoadRespectsWorkerLimit(t *testing.T) {
	files := map[string]string{}
	var paths []string
	for i := range 40 {
		p := "b" + strconv.Itoa(i) + ".busy"
		files[p] = p
		paths = append(paths, p)
	}
	files["all.list"] = strings.Join(paths, " ")

	for _, workers := range []int{1, 3} {
		t.Run(strconv.Itoa(workers), func(t *testing.T) {
			s, _ := newServer(t, files, asset.WithWorkers(workers))
			busy := &busyLoader{}
			s.Register(busy)

			h, err := s.Load(t.Context(), "all.list")
			require.NoError(t, err)
			require.Equal(t, strings.Join(paths, ","), h.Value())
			require.LessOrEqual(t, busy.peak.Load(), int32(workers))
			require.GreaterOrEqual(t, busy.peak.Load(), int32(1))
		})
	}
}
