package df

import (
	"fmt"

	"github.com/gigapi/gigagroup/frame"
)

// plan is one fully resolved aggregation: keys, kernel, fan-in and the
// per-column function request. It is immutable once built; every
// deferred function closes over it.
type plan struct {
	keys    []string
	method  string
	kern    Kernel
	fanIn   int                 // 0 = disabled, single-shot combine
	ddof    int
	values  []string            // requested value columns, schema order
	request map[string][]string // value column -> aggregate functions
}

// localAggregate is the per-partition stage: namespace the value
// columns, group the chunk locally and compute every requested local
// statistic. One row per group, key columns first. Runs once per
// partition with no shared state; it is the unit of data parallelism.
func localAggregate(chunk *frame.Chunk, p *plan) (*frame.Chunk, error) {
	ns, err := namespaceValues(chunk, p.keys, p.values)
	if err != nil {
		return nil, err
	}
	g, err := p.kern.GroupBy(ns, p.keys, p.method)
	if err != nil {
		return nil, err
	}
	cols, err := keyColumnsPerGroup(g, p.keys)
	if err != nil {
		return nil, err
	}
	for _, col := range g.Chunk.Columns() {
		if col.Tag == nil {
			continue
		}
		origin := col.Tag.Origin
		for _, fn := range p.request[origin] {
			spec, ok := aggSpecs[fn]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedAggregate, fn)
			}
			for _, stat := range spec.locals {
				sc, err := computeStat(g, col, stat)
				if err != nil {
					return nil, err
				}
				cols = append(cols, sc.WithTag(&frame.Tag{Origin: origin, Func: fn, Stat: stat}))
			}
		}
	}
	return frame.NewChunk(cols...)
}

// combinePartials merges a batch of partial results: concatenate, re-
// group by the same keys, then either re-reduce each statistic column
// (associative functions, shape-stable so the tree can recurse) or
// evaluate the closed-form formula over the gathered sufficient
// statistics (mean/var/std, which only ever see a single depth-1
// combine).
func combinePartials(chunks []*frame.Chunk, p *plan) (*frame.Chunk, error) {
	cat, err := frame.Concat(chunks...)
	if err != nil {
		return nil, err
	}
	g, err := p.kern.GroupBy(cat, p.keys, p.method)
	if err != nil {
		return nil, err
	}
	cols, err := keyColumnsPerGroup(g, p.keys)
	if err != nil {
		return nil, err
	}
	type producer struct{ origin, fn string }
	done := make(map[producer]bool)
	for _, col := range g.Chunk.Columns() {
		if col.Tag == nil {
			continue
		}
		pr := producer{col.Tag.Origin, col.Tag.Func}
		if done[pr] {
			continue
		}
		done[pr] = true
		spec := aggSpecs[pr.fn]
		if spec.assoc {
			merged, err := computeStat(g, col, mergeOf(col.Tag.Stat))
			if err != nil {
				return nil, err
			}
			cols = append(cols, merged.WithTag(col.Tag))
			continue
		}
		out, err := finalize(g, pr.origin, pr.fn, p.ddof)
		if err != nil {
			return nil, err
		}
		cols = append(cols, out.WithTag(&frame.Tag{Origin: pr.origin, Func: pr.fn}))
	}
	return frame.NewChunk(cols...)
}

func finalize(g *frame.Grouped, origin, fn string, ddof int) (*frame.Column, error) {
	switch fn {
	case "mean":
		sum, err := findStat(g.Chunk, origin, fn, statSum)
		if err != nil {
			return nil, err
		}
		count, err := findStat(g.Chunk, origin, fn, statCount)
		if err != nil {
			return nil, err
		}
		return finalizeMean(g, sum, count)
	case "var", "std":
		sum, err := findStat(g.Chunk, origin, fn, statSum)
		if err != nil {
			return nil, err
		}
		sos, err := findStat(g.Chunk, origin, fn, statSumSq)
		if err != nil {
			return nil, err
		}
		count, err := findStat(g.Chunk, origin, fn, statCount)
		if err != nil {
			return nil, err
		}
		return finalizeVar(g, sum, sos, count, ddof, fn == "std")
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedAggregate, fn)
}

func findStat(chunk *frame.Chunk, origin, fn, stat string) (*frame.Column, error) {
	for _, col := range chunk.Columns() {
		if col.Tag != nil && col.Tag.Origin == origin && col.Tag.Func == fn && col.Tag.Stat == stat {
			return col, nil
		}
	}
	return nil, fmt.Errorf("partial result lacks %s of %s for %s", stat, origin, fn)
}

// keyColumnsPerGroup takes one representative key row per group.
func keyColumnsPerGroup(g *frame.Grouped, keys []string) ([]*frame.Column, error) {
	rows := g.KeyRows()
	cols := make([]*frame.Column, 0, len(keys))
	for _, k := range keys {
		col := g.Chunk.Column(k)
		if col == nil {
			return nil, fmt.Errorf("%w: key column %s lost during grouping", ErrSchemaMismatch, k)
		}
		cols = append(cols, col.Take(rows))
	}
	return cols, nil
}
