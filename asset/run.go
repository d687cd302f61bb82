package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eak1mov/go-libatlas/store"
)

type phase int

const (
	phasePlan phase = iota
	phaseLoad
)

type task struct {
	path string
	req  Request

	phase  phase
	loader Loader
	lc     *LoadContext

	waiting    int
	dependents []*task

	settled bool
	value   any
	labeled map[string]any
	err     error
}

func (t *task) handle() *Handle {
	return &Handle{path: t.path, value: t.value, labeled: t.labeled}
}

type result struct {
	t   *task
	err error
}

// run is the state of a single Load call. All fields except the channels are
// owned by the coordinator goroutine; a task is handed to a worker together
// with exclusive access to its loader state and returned through done.
type run struct {
	s      *Server
	logger *slog.Logger

	queue    []*task
	plain    map[string]*task
	inflight int
	done     chan result
}

func newRun(s *Server) *run {
	return &run{
		s:      s,
		logger: s.logger,
		plain:  make(map[string]*task),
		done:   make(chan result, s.workers),
	}
}

func (r *run) execute(ctx context.Context, req Request) (*Handle, error) {
	root := r.newTask(req)
	if root.settled {
		return nil, root.err
	}
	if req.plain() {
		r.plain[root.path] = root
	}

	var g errgroup.Group
	g.SetLimit(r.s.workers)
	err := r.loop(ctx, &g, root)
	_ = g.Wait()
	if err != nil {
		return nil, err
	}
	if root.err != nil {
		return nil, fmt.Errorf("libatlas: load %s: %w", root.path, root.err)
	}
	return root.handle(), nil
}

// loop dispatches ready tasks to the group and processes their results until
// the root task settles. The group limit bounds live goroutines; inflight
// counts results not yet received, so the coordinator only calls g.Go when a
// slot is free or about to be (its result is already buffered in done).
// Step errors are task results, not group failures, so goroutines return nil.
func (r *run) loop(ctx context.Context, g *errgroup.Group, root *task) error {
	for {
		for len(r.queue) > 0 && r.inflight < r.s.workers && ctx.Err() == nil {
			t := r.queue[0]
			r.queue[0] = nil
			r.queue = r.queue[1:]
			r.inflight++
			g.Go(func() error {
				r.done <- result{t: t, err: r.step(ctx, t)}
				return nil
			})
		}

		if root.settled {
			return nil
		}
		if err := ctx.Err(); err != nil {
			r.drain()
			return fmt.Errorf("libatlas: load %s: %w", root.path, err)
		}
		if r.inflight == 0 {
			return fmt.Errorf("%w: %s: %d queued tasks", errStalled, root.path, len(r.queue))
		}

		select {
		case res := <-r.done:
			r.inflight--
			r.complete(res)
		case <-ctx.Done():
		}
	}
}

func (r *run) drain() {
	for ; r.inflight > 0; r.inflight-- {
		<-r.done
	}
}

// newTask creates a task for req, settling it immediately when the request
// is invalid.
func (r *run) newTask(req Request) *task {
	t := &task{req: req}
	p, err := store.CleanPath(req.Path)
	if err != nil {
		t.path = req.Path
		r.settle(t, nil, err)
		return t
	}
	t.path = p
	r.queue = append(r.queue, t)
	return t
}

// step runs one phase of t on a worker goroutine.
func (r *run) step(ctx context.Context, t *task) error {
	switch t.phase {
	case phasePlan:
		return r.plan(ctx, t)
	case phaseLoad:
		return r.load(ctx, t)
	}
	return fmt.Errorf("libatlas: unknown task phase %d", t.phase)
}

func (r *run) plan(ctx context.Context, t *task) error {
	loader, settings, err := r.s.resolve(t.path, t.req)
	if err != nil {
		return err
	}
	data := t.req.Data
	if data == nil {
		if data, err = r.s.read(t.path); err != nil {
			return err
		}
	}

	r.logger.Debug("libatlas: planning asset", "path", t.path, "loader", loader.Name())
	t.loader = loader
	t.lc = newLoadContext(t.path, data, settings, r.logger)
	t.lc.planning = true
	err = protect(func() error { return loader.Plan(ctx, t.lc) })
	t.lc.planning = false
	return err
}

func (r *run) load(ctx context.Context, t *task) error {
	r.logger.Debug("libatlas: loading asset", "path", t.path, "loader", t.loader.Name())
	return protect(func() error {
		value, err := t.loader.Load(ctx, t.lc)
		if err != nil {
			return err
		}
		t.value = value
		t.labeled = t.lc.labeledCopy()
		return nil
	})
}

// complete handles a finished step on the coordinator.
func (r *run) complete(res result) {
	t := res.t
	if res.err != nil {
		r.settle(t, nil, res.err)
		return
	}
	if t.phase == phaseLoad {
		r.settle(t, t.value, nil)
		return
	}

	t.phase = phaseLoad
	t.lc.deps = make([]*task, len(t.lc.requests))
	for i, req := range t.lc.requests {
		dep := r.dependency(t, req)
		t.lc.deps[i] = dep
		if !dep.settled {
			t.waiting++
			dep.dependents = append(dep.dependents, t)
		}
	}
	if t.waiting == 0 {
		r.queue = append(r.queue, t)
	}
}

// dependency returns the task serving req on behalf of parent. Plain
// requests for the same path share one task.
func (r *run) dependency(parent *task, req Request) *task {
	if !req.plain() {
		return r.newTask(req)
	}
	p, err := store.CleanPath(req.Path)
	if err != nil {
		return r.newTask(req)
	}
	if existing, ok := r.plain[p]; ok {
		if r.waitsOn(existing, parent) {
			t := &task{path: p, req: req}
			r.settle(t, nil, fmt.Errorf("%w: %s requested by %s", ErrCycle, p, parent.path))
			return t
		}
		return existing
	}
	t := r.newTask(req)
	r.plain[p] = t
	return t
}

// waitsOn reports whether a transitively depends on b, walking the
// dependents of b breadth first.
func (r *run) waitsOn(a, b *task) bool {
	seen := map[*task]bool{b: true}
	queue := []*task{b}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if t == a {
			return true
		}
		for _, d := range t.dependents {
			if !seen[d] {
				seen[d] = true
				queue = append(queue, d)
			}
		}
	}
	return false
}

func (r *run) settle(t *task, value any, err error) {
	t.settled = true
	t.value = value
	t.err = err
	if err != nil {
		t.labeled = nil
		r.logger.Debug("libatlas: asset failed", "path", t.path, "error", err)
	}
	if r.s.progress != nil {
		r.s.progress(t.path, err)
	}
	for _, d := range t.dependents {
		d.waiting--
		if d.waiting == 0 {
			r.queue = append(r.queue, d)
		}
	}
	t.dependents = nil
}

func protect(f func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("libatlas: loader panic: %v", p)
		}
	}()
	return f()
}

var errStalled = errors.New("libatlas: load stalled")
