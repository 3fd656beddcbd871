// Package df implements lazy, partitioned group-by aggregation. A
// Table is a declared schema plus a sequence of deferred partitions;
// GroupBy composes a pipeline of pure transforms over them: local
// aggregation per partition, a bounded-fan-in combine tree and a
// final renaming pass. Nothing executes at composition time; execution happens
// when a result partition is actually demanded.
package df

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/kernel"
	"github.com/gigapi/gigagroup/tasks"
)

// Table is a logical table: an ordered sequence of partition tasks,
// each producing a *frame.Chunk conforming to the declared schema.
type Table struct {
	meta  *frame.Schema
	parts []*tasks.Task
}

// New builds a table from a schema and partition tasks. Every task
// must yield a *frame.Chunk matching meta; this is not re-validated
// at execution time.
func New(meta *frame.Schema, parts ...*tasks.Task) *Table {
	return &Table{meta: meta, parts: parts}
}

// FromChunks wraps already materialized chunks as a table, one
// partition per chunk. The schema is taken from the first chunk.
func FromChunks(chunks ...*frame.Chunk) (*Table, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("at least one chunk required")
	}
	meta := chunks[0].Schema()
	parts := make([]*tasks.Task, len(chunks))
	for i, c := range chunks {
		if !c.Schema().Equal(meta) {
			return nil, fmt.Errorf("%w: partition %d does not conform to the table schema", ErrSchemaMismatch, i)
		}
		parts[i] = tasks.Value(c)
	}
	return &Table{meta: meta, parts: parts}, nil
}

// Meta returns the declared schema, available without executing.
func (t *Table) Meta() *frame.Schema { return t.meta }

func (t *Table) NumPartitions() int { return len(t.parts) }

// Partitions exposes the underlying partition tasks for composition.
func (t *Table) Partitions() []*tasks.Task { return t.parts }

// Collect executes every partition and concatenates the results. This
// is the execution trigger: everything upstream runs here, failures
// abort the whole collection with no partial output.
func (t *Table) Collect(ctx context.Context) (*frame.Chunk, error) {
	return t.CollectParallel(ctx, int64(runtime.GOMAXPROCS(0)))
}

// CollectParallel is Collect with an explicit bound on how many task
// functions run at once.
func (t *Table) CollectParallel(ctx context.Context, parallelism int64) (*frame.Chunk, error) {
	if len(t.parts) == 0 {
		return t.meta.EmptyChunk()
	}
	res, err := tasks.Run(ctx, parallelism, t.parts...)
	if err != nil {
		return nil, err
	}
	chunks := make([]*frame.Chunk, len(res))
	for i, r := range res {
		chunks[i] = r.(*frame.Chunk)
	}
	return frame.Concat(chunks...)
}

// GroupBy starts a grouped view over the table. Keys must be present
// in the schema; this is checked immediately. The default kernel
// clusters by sorting; use WithKernel/WithMethod to override.
func (t *Table) GroupBy(keys ...string) (*GroupBy, error) {
	if len(keys) == 0 {
		return nil, ErrNoGroupingKeys
	}
	for _, k := range keys {
		if !t.meta.HasColumn(k) {
			return nil, fmt.Errorf("%w: grouping key %s not in schema", ErrSchemaMismatch, k)
		}
	}
	return &GroupBy{
		table:  t,
		keys:   keys,
		method: kernel.MethodSort,
		kern:   kernel.Sort{},
		fanIn:  DefaultFanIn,
		ddof:   1,
	}, nil
}
