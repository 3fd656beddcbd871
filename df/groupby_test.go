package df_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/kernel"
)

func chunkOf(t *testing.T, keys []string, values []float64) *frame.Chunk {
	t.Helper()
	c, err := frame.FromMap(map[string]any{
		"key":   keys,
		"value": values,
	}, "key", "value")
	require.NoError(t, err)
	return c
}

func twoPartitionTable(t *testing.T) *df.Table {
	t.Helper()
	tbl, err := df.FromChunks(
		chunkOf(t, []string{"a", "a"}, []float64{1, 3}),
		chunkOf(t, []string{"b", "b"}, []float64{2, 4}),
	)
	require.NoError(t, err)
	return tbl
}

// resultByKey collects a grouped result into key -> value.
func resultByKey(t *testing.T, tbl *df.Table, valueCol string) map[string]float64 {
	t.Helper()
	chunk, err := tbl.Collect(context.Background())
	require.NoError(t, err)
	keys := chunk.Column("key")
	require.NotNil(t, keys)
	vals := chunk.Column(valueCol)
	require.NotNil(t, vals, "missing column %s in %v", valueCol, chunk.ColumnNames())
	res := make(map[string]float64, chunk.NumRows())
	for i := 0; i < chunk.NumRows(); i++ {
		k := keys.Data.([]string)[i]
		switch data := vals.Data.(type) {
		case []float64:
			res[k] = data[i]
		case []int64:
			res[k] = float64(data[i])
		default:
			t.Fatalf("unexpected value column type %T", vals.Data)
		}
	}
	return res
}

func TestSumAcrossPartitions(t *testing.T) {
	gb, err := twoPartitionTable(t).GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Sum()
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"a": 4, "b": 6}, resultByKey(t, res, "sum_value"))
}

func TestMeanAcrossPartitions(t *testing.T) {
	gb, err := twoPartitionTable(t).GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Mean()
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"a": 2.0, "b": 3.0}, resultByKey(t, res, "mean_value"))
}

// Splitting the same rows into different partitions must not change
// any aggregate.
func TestPartitionInvariance(t *testing.T) {
	keys := []string{"a", "b", "a", "b", "a", "c", "c", "a"}
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	splits := [][]int{
		{8},
		{1, 7},
		{3, 3, 2},
		{1, 1, 1, 1, 1, 1, 1, 1},
	}
	funcs := []struct {
		name string
		agg  func(g *df.GroupBy) (*df.Table, error)
	}{
		{"count", func(g *df.GroupBy) (*df.Table, error) { return g.Count() }},
		{"sum", func(g *df.GroupBy) (*df.Table, error) { return g.Sum() }},
		{"min", func(g *df.GroupBy) (*df.Table, error) { return g.Min() }},
		{"max", func(g *df.GroupBy) (*df.Table, error) { return g.Max() }},
		{"mean", func(g *df.GroupBy) (*df.Table, error) { return g.Mean() }},
		{"var", func(g *df.GroupBy) (*df.Table, error) { return g.Var(1) }},
		{"std", func(g *df.GroupBy) (*df.Table, error) { return g.Std(1) }},
	}

	for _, fn := range funcs {
		var want map[string]float64
		for _, split := range splits {
			var chunks []*frame.Chunk
			at := 0
			for _, n := range split {
				chunks = append(chunks, chunkOf(t, keys[at:at+n], values[at:at+n]))
				at += n
			}
			tbl, err := df.FromChunks(chunks...)
			require.NoError(t, err)
			gb, err := tbl.GroupBy("key")
			require.NoError(t, err)
			res, err := fn.agg(gb)
			require.NoError(t, err)
			got := resultByKey(t, res, fn.name+"_value")
			if want == nil {
				want = got
				continue
			}
			for k, v := range want {
				assert.InDelta(t, v, got[k], 1e-9, "%s over split %v key %s", fn.name, split, k)
			}
		}
	}
}

// Associative aggregates must not care about the fan-in factor.
func TestFanInInvariance(t *testing.T) {
	var chunks []*frame.Chunk
	for i := 0; i < 9; i++ {
		chunks = append(chunks, chunkOf(t,
			[]string{"a", "b", "c"},
			[]float64{float64(i), float64(i * 2), float64(i * 3)},
		))
	}
	tbl, err := df.FromChunks(chunks...)
	require.NoError(t, err)

	var want map[string]float64
	for _, fanIn := range []int{2, 3, 4, 0} {
		gb, err := tbl.GroupBy("key")
		require.NoError(t, err)
		res, err := gb.WithFanIn(fanIn).Sum()
		require.NoError(t, err)
		got := resultByKey(t, res, "sum_value")
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, "fan-in %d", fanIn)
	}
}

// Known sufficient-statistics case: partitions [1,2,3] and [4,5] on a
// constant key give mean 3.0 and sample variance 2.5.
func TestMeanVarSufficiency(t *testing.T) {
	tbl, err := df.FromChunks(
		chunkOf(t, []string{"k", "k", "k"}, []float64{1, 2, 3}),
		chunkOf(t, []string{"k", "k"}, []float64{4, 5}),
	)
	require.NoError(t, err)

	gb, err := tbl.GroupBy("key")
	require.NoError(t, err)
	mean, err := gb.Mean()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, resultByKey(t, mean, "mean_value")["k"], 1e-12)

	gb, err = tbl.GroupBy("key")
	require.NoError(t, err)
	variance, err := gb.Var(1)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, resultByKey(t, variance, "var_value")["k"], 1e-12)

	gb, err = tbl.GroupBy("key")
	require.NoError(t, err)
	std, err := gb.Std(1)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2.5), resultByKey(t, std, "std_value")["k"], 1e-12)
}

// Degenerate count - ddof propagates as NaN, not as an error.
func TestVarDegenerateCountIsNaN(t *testing.T) {
	tbl, err := df.FromChunks(chunkOf(t, []string{"k"}, []float64{5}))
	require.NoError(t, err)
	gb, err := tbl.GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Var(1)
	require.NoError(t, err)
	got := resultByKey(t, res, "var_value")
	assert.True(t, math.IsNaN(got["k"]))
}

func TestCountEmptyTable(t *testing.T) {
	empty := chunkOf(t, nil, nil)
	tbl, err := df.FromChunks(empty)
	require.NoError(t, err)

	gb, err := tbl.GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Count()
	require.NoError(t, err)

	// Schema is known before execution.
	assert.Equal(t, []string{"key", "count_value"}, res.Meta().ColumnNames())
	f, ok := res.Meta().Field("count_value")
	require.True(t, ok)
	assert.Equal(t, frame.TYPE_NAME_INT64, f.Type)

	chunk, err := res.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, chunk.NumRows())
	assert.Equal(t, []string{"key", "count_value"}, chunk.ColumnNames())
}

func TestAggMultipleFunctionsSameColumn(t *testing.T) {
	gb, err := twoPartitionTable(t).GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Agg(map[string][]string{"value": {"sum", "count"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"key", "sum_value", "count_value"}, res.Meta().ColumnNames())
	assert.Equal(t, map[string]float64{"a": 4, "b": 6}, resultByKey(t, res, "sum_value"))
	assert.Equal(t, map[string]float64{"a": 2, "b": 2}, resultByKey(t, res, "count_value"))
}

func TestAggMixedAssociativeAndDerived(t *testing.T) {
	gb, err := twoPartitionTable(t).GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Agg(map[string][]string{"value": {"sum", "mean"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"a": 4, "b": 6}, resultByKey(t, res, "sum_value"))
	assert.Equal(t, map[string]float64{"a": 2, "b": 3}, resultByKey(t, res, "mean_value"))
}

func TestSchemaMismatchSurfacesEarly(t *testing.T) {
	tbl := twoPartitionTable(t)

	_, err := tbl.GroupBy("nope")
	assert.ErrorIs(t, err, df.ErrSchemaMismatch)

	gb, err := tbl.GroupBy("key")
	require.NoError(t, err)
	_, err = gb.Agg(map[string][]string{"nope": {"sum"}})
	assert.ErrorIs(t, err, df.ErrSchemaMismatch)

	_, err = gb.Agg(map[string][]string{"key": {"sum"}})
	assert.ErrorIs(t, err, df.ErrSchemaMismatch)

	_, err = gb.Agg(map[string][]string{"value": {"median"}})
	assert.ErrorIs(t, err, df.ErrUnsupportedAggregate)

	_, err = tbl.GroupBy()
	assert.ErrorIs(t, err, df.ErrNoGroupingKeys)
}

func TestSumOverStringColumnRejected(t *testing.T) {
	c, err := frame.FromMap(map[string]any{
		"key":  []string{"a"},
		"name": []string{"x"},
	}, "key", "name")
	require.NoError(t, err)
	tbl, err := df.FromChunks(c)
	require.NoError(t, err)
	gb, err := tbl.GroupBy("key")
	require.NoError(t, err)

	_, err = gb.Agg(map[string][]string{"name": {"sum"}})
	assert.ErrorIs(t, err, df.ErrUnsupportedAggregate)
}

func TestHashMethodMatchesSort(t *testing.T) {
	tbl := twoPartitionTable(t)

	gb, err := tbl.GroupBy("key")
	require.NoError(t, err)
	sorted, err := gb.Sum()
	require.NoError(t, err)

	gb, err = tbl.GroupBy("key")
	require.NoError(t, err)
	hashed, err := gb.WithMethod(kernel.MethodHash).Sum()
	require.NoError(t, err)

	assert.Equal(t, resultByKey(t, sorted, "sum_value"), resultByKey(t, hashed, "sum_value"))
}

func TestApplyIdempotent(t *testing.T) {
	gb, err := twoPartitionTable(t).GroupBy("key")
	require.NoError(t, err)

	double := func(c *frame.Chunk) (*frame.Chunk, error) {
		vals := c.Column("value").Data.([]float64)
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = v * 2
		}
		return frame.FromMap(map[string]any{
			"key":   c.Column("key").Data,
			"value": out,
		}, "key", "value")
	}

	first, err := gb.Apply(double)
	require.NoError(t, err)
	second, err := gb.Apply(double)
	require.NoError(t, err)

	a, err := first.Collect(context.Background())
	require.NoError(t, err)
	b, err := second.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Column("value").Data, b.Column("value").Data)
	assert.Equal(t, []float64{2, 6, 4, 8}, a.Column("value").Data)
}

func TestApplyGroupedSeesBoundaries(t *testing.T) {
	gb, err := twoPartitionTable(t).GroupBy("key")
	require.NoError(t, err)

	sizes := func(g *frame.Grouped) (*frame.Chunk, error) {
		keys := make([]string, g.NumGroups())
		counts := make([]int64, g.NumGroups())
		for i := range keys {
			start, end := g.Group(i)
			keys[i] = g.Chunk.Column("key").Data.([]string)[start]
			counts[i] = int64(end - start)
		}
		return frame.FromMap(map[string]any{
			"key": keys,
			"n":   counts,
		}, "key", "n")
	}

	res, err := gb.ApplyGrouped(sizes)
	require.NoError(t, err)
	chunk, err := res.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, chunk.Column("key").Data)
	assert.Equal(t, []int64{2, 2}, chunk.Column("n").Data)
}

// The output schema must be available and correct without collecting.
func TestMetaInferredLazily(t *testing.T) {
	gb, err := twoPartitionTable(t).GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Mean()
	require.NoError(t, err)

	assert.Equal(t, []string{"key", "mean_value"}, res.Meta().ColumnNames())
	f, _ := res.Meta().Field("mean_value")
	assert.Equal(t, frame.TYPE_NAME_FLOAT64, f.Type)
	k, _ := res.Meta().Field("key")
	assert.Equal(t, frame.TYPE_NAME_STRING, k.Type)
}

func TestSinglePartitionSkipsCombine(t *testing.T) {
	tbl, err := df.FromChunks(chunkOf(t, []string{"a", "b", "a"}, []float64{1, 2, 3}))
	require.NoError(t, err)
	gb, err := tbl.GroupBy("key")
	require.NoError(t, err)
	res, err := gb.Sum()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 4, "b": 2}, resultByKey(t, res, "sum_value"))
}
