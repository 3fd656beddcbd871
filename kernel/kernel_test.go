package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigapi/gigagroup/frame"
)

func sampleChunk(t *testing.T) *frame.Chunk {
	t.Helper()
	c, err := frame.FromMap(map[string]any{
		"k": []string{"b", "a", "b", "a", "c"},
		"v": []float64{1, 2, 3, 4, 5},
	}, "k", "v")
	require.NoError(t, err)
	return c
}

func TestGroupBySort(t *testing.T) {
	g, err := Sort{}.GroupBy(sampleChunk(t), []string{"k"}, MethodSort)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NumGroups())
	assert.Equal(t, []string{"a", "a", "b", "b", "c"}, g.Chunk.Column("k").Data)
	// Sort is stable: rows within a group keep input order.
	assert.Equal(t, []float64{2, 4, 1, 3, 5}, g.Chunk.Column("v").Data)

	start, end := g.Group(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)
}

func TestGroupByHash(t *testing.T) {
	g, err := Sort{}.GroupBy(sampleChunk(t), []string{"k"}, MethodHash)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NumGroups())
	// Groups ordered by first appearance, rows in input order.
	assert.Equal(t, []string{"b", "b", "a", "a", "c"}, g.Chunk.Column("k").Data)
	assert.Equal(t, []float64{1, 3, 2, 4, 5}, g.Chunk.Column("v").Data)
}

func TestGroupByMultipleKeys(t *testing.T) {
	c, err := frame.FromMap(map[string]any{
		"a": []string{"x", "x", "y", "x"},
		"b": []int64{1, 2, 1, 1},
		"v": []float64{1, 2, 3, 4},
	}, "a", "b", "v")
	require.NoError(t, err)

	g, err := Sort{}.GroupBy(c, []string{"a", "b"}, MethodSort)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumGroups())
	assert.Equal(t, []float64{1, 4, 2, 3}, g.Chunk.Column("v").Data)
}

func TestGroupByEmptyChunk(t *testing.T) {
	c, err := frame.FromMap(map[string]any{
		"k": []string{},
		"v": []float64{},
	}, "k", "v")
	require.NoError(t, err)

	g, err := Sort{}.GroupBy(c, []string{"k"}, MethodSort)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumGroups())
}

func TestGroupByMissingKey(t *testing.T) {
	_, err := Sort{}.GroupBy(sampleChunk(t), []string{"missing"}, MethodSort)
	assert.Error(t, err)
}

func TestGroupByUnknownMethod(t *testing.T) {
	_, err := Sort{}.GroupBy(sampleChunk(t), []string{"k"}, "shuffle")
	assert.Error(t, err)
}

func TestSortValues(t *testing.T) {
	sorted, err := Sort{}.SortValues(sampleChunk(t), []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "b", "b", "c"}, sorted.Column("k").Data)
}
