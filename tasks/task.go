// Package tasks is a minimal deferred-computation substrate: pure
// functions composed into a dependency graph, executed on demand with
// bounded parallelism. Graph construction is cheap and synchronous,
// nothing runs until Run (or Task.Result) is called.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Fn is the unit of deferred work. inputs holds the results of the
// task's dependencies, in declaration order.
type Fn func(ctx context.Context, inputs []any) (any, error)

// Task is one node of a deferred computation graph. A task runs its
// function at most once; every consumer of its result shares the same
// promise.
type Task struct {
	id   uuid.UUID
	deps []*Task
	fn   Fn
	p    *Promise[any]
	once sync.Once
}

// Defer composes fn over the results of deps without running anything.
func Defer(fn Fn, deps ...*Task) *Task {
	return &Task{
		id:   uuid.New(),
		deps: deps,
		fn:   fn,
		p:    NewPromise[any](),
	}
}

// Value wraps an already materialized value as a graph leaf.
func Value(v any) *Task {
	return &Task{
		id: uuid.New(),
		p:  Fulfilled(nil, v),
	}
}

func (t *Task) ID() string { return t.id.String() }

func (t *Task) Deps() []*Task { return t.deps }

// Result runs the task (and transitively its dependencies) if needed
// and returns the memoized result. sem bounds how many task functions
// run at once; nil means unbounded.
func (t *Task) Result(ctx context.Context, sem *semaphore.Weighted) (any, error) {
	t.once.Do(func() {
		if t.fn == nil {
			// Value leaf, promise already fulfilled.
			return
		}
		inputs := make([]any, len(t.deps))
		g, gctx := errgroup.WithContext(ctx)
		for i, d := range t.deps {
			g.Go(func() error {
				v, err := d.Result(gctx, sem)
				inputs[i] = v
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.p.Done(nil, err)
			return
		}
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				t.p.Done(nil, err)
				return
			}
			defer sem.Release(1)
		}
		res, err := t.fn(ctx, inputs)
		t.p.Done(res, err)
	})
	return t.p.Get()
}

// Run executes the given tasks with at most parallelism functions in
// flight and returns their results in order. The first failure cancels
// the rest; no partial results are returned.
func Run(ctx context.Context, parallelism int64, ts ...*Task) ([]any, error) {
	if parallelism <= 0 {
		return nil, fmt.Errorf("parallelism must be positive, got %d", parallelism)
	}
	sem := semaphore.NewWeighted(parallelism)
	res := make([]any, len(ts))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range ts {
		g.Go(func() error {
			v, err := t.Result(gctx, sem)
			res[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
