package df

import (
	"context"
	"fmt"

	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/tasks"
)

// ApplyFn transforms one group's rows into an output chunk. It must be
// pure and must tolerate a zero-row input: the output schema is
// inferred by running it on an empty sample.
type ApplyFn func(*frame.Chunk) (*frame.Chunk, error)

// GroupedFn transforms one partition's grouped view in a single call.
type GroupedFn func(*frame.Grouped) (*frame.Chunk, error)

// groupedParts builds (once) the per-partition grouped views used by
// Apply and ApplyGrouped: each partition is sorted by the first key
// for locality and then grouped by the full key set. The result is
// memoized for the lifetime of the GroupBy; repeated Apply calls reuse
// it. First access is assumed single-writer; sync.Once makes the
// initialization exact even when it is not.
func (g *GroupBy) groupedParts() []*tasks.Task {
	g.groupedOnce.Do(func() {
		g.grouped = make([]*tasks.Task, len(g.table.parts))
		for i, part := range g.table.parts {
			g.grouped[i] = tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
				chunk := inputs[0].(*frame.Chunk)
				sorted, err := g.kern.SortValues(chunk, g.keys[:1])
				if err != nil {
					return nil, err
				}
				return g.kern.GroupBy(sorted, g.keys, g.method)
			}, part)
		}
	})
	return g.grouped
}

// Apply runs fn once per group and concatenates the outputs. Groups
// never cross partitions: a key that is split across partitions is
// transformed as two separate groups. That is a documented semantic
// limit of this path, not a bug.
func (g *GroupBy) Apply(fn ApplyFn) (*Table, error) {
	meta, err := g.applyMeta(fn)
	if err != nil {
		return nil, err
	}
	parts := make([]*tasks.Task, 0, len(g.table.parts))
	for _, gp := range g.groupedParts() {
		parts = append(parts, tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
			grouped := inputs[0].(*frame.Grouped)
			if grouped.NumGroups() == 0 {
				return fn(grouped.Chunk.Empty())
			}
			outs := make([]*frame.Chunk, grouped.NumGroups())
			for i := range outs {
				out, err := fn(grouped.GroupChunk(i))
				if err != nil {
					return nil, err
				}
				outs[i] = out
			}
			return frame.Concat(outs...)
		}, gp))
	}
	return New(meta, parts...), nil
}

// ApplyGrouped hands fn the whole grouped partition at once, for
// transforms that want group boundaries rather than one group at a
// time. Same per-partition semantics as Apply.
func (g *GroupBy) ApplyGrouped(fn GroupedFn) (*Table, error) {
	sample, err := g.sampleGrouped()
	if err != nil {
		return nil, err
	}
	out, err := fn(sample)
	if err != nil {
		return nil, fmt.Errorf("inferring apply_grouped schema: %w", err)
	}
	meta := out.Schema()
	parts := make([]*tasks.Task, 0, len(g.table.parts))
	for _, gp := range g.groupedParts() {
		parts = append(parts, tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
			return fn(inputs[0].(*frame.Grouped))
		}, gp))
	}
	return New(meta, parts...), nil
}

func (g *GroupBy) applyMeta(fn ApplyFn) (*frame.Schema, error) {
	sample, err := g.table.meta.EmptyChunk()
	if err != nil {
		return nil, err
	}
	out, err := fn(sample)
	if err != nil {
		return nil, fmt.Errorf("inferring apply schema: %w", err)
	}
	return out.Schema(), nil
}

func (g *GroupBy) sampleGrouped() (*frame.Grouped, error) {
	sample, err := g.table.meta.EmptyChunk()
	if err != nil {
		return nil, err
	}
	return g.kern.GroupBy(sample, g.keys, g.method)
}
