package parallel

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TaskGroup runs related tasks with bounded concurrency and notifies
// completion callbacks once all of them have returned.
//
// The group context is cancelled by the first failing task. TaskGroup is
// a thin layer over errgroup.Group.
type TaskGroup struct {
	eg  *errgroup.Group
	ctx context.Context

	mu        sync.Mutex
	callbacks []func(error)
	waited    bool
	err       error
}

// NewTaskGroup returns a group derived from ctx. A positive limit caps the
// number of tasks running at once.
func NewTaskGroup(ctx context.Context, limit int) *TaskGroup {
	eg, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	return &TaskGroup{eg: eg, ctx: gctx}
}

// Context returns the group context.
func (g *TaskGroup) Context() context.Context {
	return g.ctx
}

// Go starts fn in the group. Tasks started after the group context is
// cancelled return without calling fn.
func (g *TaskGroup) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if err := g.ctx.Err(); err != nil {
			return err
		}
		return fn(g.ctx)
	})
}

// RunOnCompletion registers cb to be called with the group result when
// Wait returns. Callbacks run in registration order. Registering after
// Wait has returned calls cb immediately.
func (g *TaskGroup) RunOnCompletion(cb func(err error)) {
	g.mu.Lock()
	if g.waited {
		err := g.err
		g.mu.Unlock()
		cb(err)
		return
	}
	g.callbacks = append(g.callbacks, cb)
	g.mu.Unlock()
}

// Wait blocks until every task has returned, runs the completion callbacks
// and returns the first task error.
func (g *TaskGroup) Wait() error {
	err := g.eg.Wait()

	g.mu.Lock()
	if g.waited {
		err = g.err
		g.mu.Unlock()
		return err
	}
	g.waited, g.err = true, err
	callbacks := g.callbacks
	g.callbacks = nil
	g.mu.Unlock()

	for _, cb := range callbacks {
		cb(err)
	}
	return err
}
