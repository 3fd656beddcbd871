package df

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/gigapi/gigagroup/frame"
)

// Local statistic names. These are what the local aggregator computes
// per partition; everything else is derived from them at combine time.
const (
	statCount = "count"
	statSum   = "sum"
	statMin   = "min"
	statMax   = "max"
	statSumSq = "sum_of_squares"
)

// aggSpec describes one aggregate function: the sufficient statistics
// collected per partition, and whether partials can be merged pairwise
// (associative) or only in a single depth-1 combine.
//
// mean/var/std are marked non-associative: their combine formulas are
// only correct when every partial is reduced in one step, because the
// global Σcount must be known when the derived value is computed. A
// hierarchical combine carrying weights would be possible but is not
// what this engine implements.
type aggSpec struct {
	locals []string
	assoc  bool
}

var aggSpecs = map[string]aggSpec{
	"count": {locals: []string{statCount}, assoc: true},
	"sum":   {locals: []string{statSum}, assoc: true},
	"min":   {locals: []string{statMin}, assoc: true},
	"max":   {locals: []string{statMax}, assoc: true},
	"mean":  {locals: []string{statSum, statCount}},
	"var":   {locals: []string{statSum, statSumSq, statCount}},
	"std":   {locals: []string{statSum, statSumSq, statCount}},
}

// mergeOf maps a statistic to the reduction that merges partials of
// it: counts and sums of squares add up, the rest merge as themselves.
func mergeOf(stat string) string {
	switch stat {
	case statCount, statSumSq:
		return statSum
	}
	return stat
}

type number interface {
	~int64 | ~uint64 | ~float64
}

// computeStat reduces one column of a grouped chunk to one value per
// group. The result column keeps the input name and carries no tag;
// the caller attaches one.
func computeStat(g *frame.Grouped, col *frame.Column, stat string) (*frame.Column, error) {
	switch stat {
	case statCount:
		return intCol(col.Name, countGroups(g, col.Valids)), nil
	case statSum:
		switch data := col.Data.(type) {
		case []int64:
			return intCol(col.Name, sumGroups(g, data, col.Valids)), nil
		case []uint64:
			return &frame.Column{Name: col.Name, Kind: frame.UInt64Kind, Data: sumGroups(g, data, col.Valids)}, nil
		case []float64:
			return floatCol(col.Name, sumGroups(g, data, col.Valids)), nil
		}
		return nil, fmt.Errorf("%w: sum over %s column %s", ErrUnsupportedAggregate, col.Kind.Name(), col.Name)
	case statSumSq:
		switch data := col.Data.(type) {
		case []int64:
			return floatCol(col.Name, sumSqGroups(g, data, col.Valids)), nil
		case []uint64:
			return floatCol(col.Name, sumSqGroups(g, data, col.Valids)), nil
		case []float64:
			return floatCol(col.Name, sumSqGroups(g, data, col.Valids)), nil
		}
		return nil, fmt.Errorf("%w: sum_of_squares over %s column %s", ErrUnsupportedAggregate, col.Kind.Name(), col.Name)
	case statMin, statMax:
		wantMin := stat == statMin
		switch data := col.Data.(type) {
		case []int64:
			return intCol(col.Name, extremeGroups(g, data, col.Valids, wantMin)), nil
		case []uint64:
			return &frame.Column{Name: col.Name, Kind: frame.UInt64Kind, Data: extremeGroups(g, data, col.Valids, wantMin)}, nil
		case []float64:
			return floatCol(col.Name, extremeGroups(g, data, col.Valids, wantMin)), nil
		case []string:
			return &frame.Column{Name: col.Name, Kind: frame.StringKind, Data: extremeGroups(g, data, col.Valids, wantMin)}, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown statistic %s", ErrUnsupportedAggregate, stat)
}

func intCol(name string, data []int64) *frame.Column {
	return &frame.Column{Name: name, Kind: frame.Int64Kind, Data: data}
}

func floatCol(name string, data []float64) *frame.Column {
	return &frame.Column{Name: name, Kind: frame.Float64Kind, Data: data}
}

func countGroups(g *frame.Grouped, valids []bool) []int64 {
	out := make([]int64, g.NumGroups())
	for i := range out {
		start, end := g.Group(i)
		if valids == nil {
			out[i] = int64(end - start)
			continue
		}
		for j := start; j < end; j++ {
			if valids[j] {
				out[i]++
			}
		}
	}
	return out
}

func sumGroups[T number](g *frame.Grouped, data []T, valids []bool) []T {
	out := make([]T, g.NumGroups())
	for i := range out {
		start, end := g.Group(i)
		for j := start; j < end; j++ {
			if valids == nil || valids[j] {
				out[i] += data[j]
			}
		}
	}
	return out
}

func sumSqGroups[T number](g *frame.Grouped, data []T, valids []bool) []float64 {
	out := make([]float64, g.NumGroups())
	for i := range out {
		start, end := g.Group(i)
		for j := start; j < end; j++ {
			if valids == nil || valids[j] {
				v := float64(data[j])
				out[i] += v * v
			}
		}
	}
	return out
}

func extremeGroups[T constraints.Ordered](g *frame.Grouped, data []T, valids []bool, wantMin bool) []T {
	out := make([]T, g.NumGroups())
	for i := range out {
		start, end := g.Group(i)
		first := true
		for j := start; j < end; j++ {
			if valids != nil && !valids[j] {
				continue
			}
			if first {
				out[i] = data[j]
				first = false
				continue
			}
			if wantMin == (data[j] < out[i]) && data[j] != out[i] {
				out[i] = data[j]
			}
		}
	}
	return out
}

// groupSumFloat sums one numeric column per group into float64, the
// common currency of the derived-statistic formulas.
func groupSumFloat(g *frame.Grouped, col *frame.Column) ([]float64, error) {
	switch data := col.Data.(type) {
	case []int64:
		return sumGroupsFloat(g, data, col.Valids), nil
	case []uint64:
		return sumGroupsFloat(g, data, col.Valids), nil
	case []float64:
		return sumGroupsFloat(g, data, col.Valids), nil
	}
	return nil, fmt.Errorf("%w: non-numeric partial column %s", ErrUnsupportedAggregate, col.Name)
}

func sumGroupsFloat[T number](g *frame.Grouped, data []T, valids []bool) []float64 {
	out := make([]float64, g.NumGroups())
	for i := range out {
		start, end := g.Group(i)
		for j := start; j < end; j++ {
			if valids == nil || valids[j] {
				out[i] += float64(data[j])
			}
		}
	}
	return out
}

// finalizeMean computes Σsum/Σcount per group from partial sufficient
// statistics. Correct only when the grouped input holds every partial,
// which is why mean runs with fan-in disabled.
func finalizeMean(g *frame.Grouped, sumCol, countCol *frame.Column) (*frame.Column, error) {
	sums, err := groupSumFloat(g, sumCol)
	if err != nil {
		return nil, err
	}
	counts, err := groupSumFloat(g, countCol)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(sums))
	for i := range out {
		out[i] = sums[i] / counts[i]
	}
	return floatCol(sumCol.Name, out), nil
}

// finalizeVar computes the one-pass variance from partial sums,
// sums of squares and counts:
//
//	var = sos/(N-ddof) - mean*mean*N/(N-ddof), mean = sum/N
//
// This is the naive sum-of-squares decomposition; it avoids a second
// pass over raw data at the cost of precision for large values, and a
// degenerate N-ddof produces NaN in the output rather than an error.
func finalizeVar(g *frame.Grouped, sumCol, sosCol, countCol *frame.Column, ddof int, std bool) (*frame.Column, error) {
	sums, err := groupSumFloat(g, sumCol)
	if err != nil {
		return nil, err
	}
	soss, err := groupSumFloat(g, sosCol)
	if err != nil {
		return nil, err
	}
	counts, err := groupSumFloat(g, countCol)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(sums))
	for i := range out {
		n := counts[i]
		div := n - float64(ddof)
		mu := sums[i] / n
		v := soss[i]/div - mu*mu*n/div
		if std {
			v = math.Sqrt(v)
		}
		out[i] = v
	}
	return floatCol(sumCol.Name, out), nil
}
