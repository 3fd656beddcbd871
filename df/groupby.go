package df

import (
	"context"
	"fmt"
	"sync"

	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/tasks"
)

// GroupBy is a grouped view over a Table. Aggregations return new lazy
// tables with the grouping keys restored as ordinary columns; nothing
// runs until a result is collected. The underlying table must not
// change for the lifetime of the GroupBy: the per-partition grouping
// used by Apply/ApplyGrouped is computed once and reused.
type GroupBy struct {
	table  *Table
	keys   []string
	method string
	kern   Kernel
	fanIn  int
	ddof   int

	groupedOnce sync.Once
	grouped     []*tasks.Task
}

// WithKernel swaps the local group-by kernel. Configure before the
// first aggregation or Apply call.
func (g *GroupBy) WithKernel(k Kernel) *GroupBy {
	g.kern = k
	return g
}

// WithMethod sets the kernel method hint, passed through opaquely.
func (g *GroupBy) WithMethod(method string) *GroupBy {
	g.method = method
	return g
}

// WithFanIn sets the combine-tree fan-in for associative aggregates.
// n must be at least 2; 0 disables the tree and combines in one shot.
func (g *GroupBy) WithFanIn(n int) *GroupBy {
	g.fanIn = n
	return g
}

// WithDdof sets the delta degrees of freedom used when var or std is
// requested through Agg. Var and Std take it as an argument instead.
func (g *GroupBy) WithDdof(ddof int) *GroupBy {
	g.ddof = ddof
	return g
}

// Agg is the general aggregation entry point: a mapping from value
// column to the aggregate functions requested for it. Result columns
// are named <function>_<column>. Requesting mean, var or std anywhere
// in the mapping disables the combine tree for the whole call, since
// their formulas need every partial in a single combine.
func (g *GroupBy) Agg(request map[string][]string) (*Table, error) {
	if len(request) == 0 {
		return nil, fmt.Errorf("empty aggregation request")
	}
	isKey := make(map[string]bool, len(g.keys))
	for _, k := range g.keys {
		isKey[k] = true
	}
	fanIn := g.fanIn
	for col, fns := range request {
		if !g.table.meta.HasColumn(col) {
			return nil, fmt.Errorf("%w: column %s not in schema", ErrSchemaMismatch, col)
		}
		if isKey[col] {
			return nil, fmt.Errorf("%w: column %s is a grouping key", ErrSchemaMismatch, col)
		}
		if len(fns) == 0 {
			return nil, fmt.Errorf("no functions requested for column %s", col)
		}
		for _, fn := range fns {
			spec, ok := aggSpecs[fn]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedAggregate, fn)
			}
			if !spec.assoc {
				fanIn = 0
			}
		}
	}
	if fanIn == 1 {
		return nil, fmt.Errorf("fan-in must be at least 2, or 0 to disable")
	}
	// Keep the requested columns in schema order for a deterministic
	// output shape.
	var values []string
	for _, name := range g.table.meta.ColumnNames() {
		if _, ok := request[name]; ok {
			values = append(values, name)
		}
	}
	p := &plan{
		keys:    g.keys,
		method:  g.method,
		kern:    g.kern,
		fanIn:   fanIn,
		ddof:    g.ddof,
		values:  values,
		request: request,
	}
	return g.aggregate(p)
}

func (g *GroupBy) aggregate(p *plan) (*Table, error) {
	sample, err := g.table.meta.EmptyChunk()
	if err != nil {
		return nil, err
	}
	outMeta, err := inferMeta(sample, p)
	if err != nil {
		return nil, err
	}
	parts := make([]*tasks.Task, len(g.table.parts))
	for i, part := range g.table.parts {
		parts[i] = tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
			return localAggregate(inputs[0].(*frame.Chunk), p)
		}, part)
	}
	var root *tasks.Task
	if len(parts) == 0 {
		root = tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
			partial, err := localAggregate(sample.Empty(), p)
			if err != nil {
				return nil, err
			}
			return combinePartials([]*frame.Chunk{partial}, p)
		})
	} else {
		root = combineTree(parts, p)
	}
	restored := tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
		return restoreNames(inputs[0].(*frame.Chunk))
	}, root)
	return New(outMeta, restored), nil
}

// Count counts non-null rows per group for every value column.
func (g *GroupBy) Count() (*Table, error) { return g.aggAll("count", false) }

// Sum sums every numeric value column per group.
func (g *GroupBy) Sum() (*Table, error) { return g.aggAll("sum", true) }

// Min takes the per-group minimum of every value column.
func (g *GroupBy) Min() (*Table, error) { return g.aggAll("min", false) }

// Max takes the per-group maximum of every value column.
func (g *GroupBy) Max() (*Table, error) { return g.aggAll("max", false) }

// Mean computes the per-group mean of every numeric value column from
// partial sums and counts, combined in a single step.
func (g *GroupBy) Mean() (*Table, error) { return g.aggAll("mean", true) }

// Var computes the per-group sample variance of every numeric value
// column via the sum-of-squares decomposition. ddof is the delta
// degrees of freedom, 1 for the unbiased estimator.
func (g *GroupBy) Var(ddof int) (*Table, error) {
	g.ddof = ddof
	return g.aggAll("var", true)
}

// Std is the square root of Var; a negative radicand from floating
// point cancellation propagates as NaN, not as an error.
func (g *GroupBy) Std(ddof int) (*Table, error) {
	g.ddof = ddof
	return g.aggAll("std", true)
}

// aggAll requests one function over every value column; numericOnly
// drops non-numeric columns the way pandas treats nuisance columns.
func (g *GroupBy) aggAll(fn string, numericOnly bool) (*Table, error) {
	isKey := make(map[string]bool, len(g.keys))
	for _, k := range g.keys {
		isKey[k] = true
	}
	request := make(map[string][]string)
	for _, f := range g.table.meta.Fields {
		if isKey[f.Name] {
			continue
		}
		if numericOnly && frame.Kinds[f.Type] == frame.StringKind {
			continue
		}
		request[f.Name] = []string{fn}
	}
	if len(request) == 0 {
		return nil, fmt.Errorf("%w: no value columns support %s", ErrUnsupportedAggregate, fn)
	}
	return g.Agg(request)
}
