package frame

import (
	"testing"

	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(t *testing.T) *Chunk {
	t.Helper()
	c, err := FromMap(map[string]any{
		"k": []string{"a", "b", "a"},
		"v": []float64{1.5, 2.5, 3.5},
		"n": []int64{10, 20, 30},
	}, "k", "v", "n")
	require.NoError(t, err)
	return c
}

func TestFromMapKeepsOrder(t *testing.T) {
	c := testChunk(t)
	assert.Equal(t, []string{"k", "v", "n"}, c.ColumnNames())
	assert.Equal(t, 3, c.NumRows())
}

func TestFromMapMissingColumn(t *testing.T) {
	_, err := FromMap(map[string]any{"k": []string{"a"}}, "k", "missing")
	assert.Error(t, err)
}

func TestNewChunkLengthMismatch(t *testing.T) {
	a, err := NewColumn("a", []int64{1, 2})
	require.NoError(t, err)
	b, err := NewColumn("b", []int64{1})
	require.NoError(t, err)
	_, err = NewChunk(a, b)
	assert.Error(t, err)
}

func TestTakeAndSlice(t *testing.T) {
	c := testChunk(t)
	got := c.Take([]int{2, 0})
	assert.Equal(t, []string{"a", "a"}, got.Column("k").Data)
	assert.Equal(t, []float64{3.5, 1.5}, got.Column("v").Data)

	window := c.Slice(1, 3)
	assert.Equal(t, []string{"b", "a"}, window.Column("k").Data)
}

func TestConcat(t *testing.T) {
	a := testChunk(t)
	b := testChunk(t)
	got, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 6, got.NumRows())
	assert.Equal(t, []int64{10, 20, 30, 10, 20, 30}, got.Column("n").Data)
}

func TestConcatSchemaMismatch(t *testing.T) {
	a := testChunk(t)
	b, err := FromMap(map[string]any{"k": []string{"a"}}, "k")
	require.NoError(t, err)
	_, err = Concat(a, b)
	assert.Error(t, err)
}

func TestEmptyKeepsSchema(t *testing.T) {
	c := testChunk(t)
	e := c.Empty()
	assert.Equal(t, 0, e.NumRows())
	assert.True(t, e.Schema().Equal(c.Schema()))
}

func TestSchemaEmptyChunkRoundTrip(t *testing.T) {
	s := testChunk(t).Schema()
	e, err := s.EmptyChunk()
	require.NoError(t, err)
	assert.True(t, e.Schema().Equal(s))
}

func TestTagsDoNotCollideWithNames(t *testing.T) {
	c := testChunk(t)
	col := c.Column("v").WithTag(&Tag{Origin: "v", Stat: "sum"})
	other := c.Column("v").WithTag(&Tag{Origin: "v", Stat: "count"})
	// Two columns may share a display name as long as they are tagged.
	_, err := NewChunk(c.Column("k"), col, other)
	assert.NoError(t, err)
}

func TestArrowRoundTrip(t *testing.T) {
	c := testChunk(t)
	rec, err := c.Record(memory.NewGoAllocator())
	require.NoError(t, err)
	defer rec.Release()

	back, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, c.ColumnNames(), back.ColumnNames())
	assert.Equal(t, c.Column("v").Data, back.Column("v").Data)
	assert.Equal(t, c.Column("k").Data, back.Column("k").Data)
	assert.Equal(t, c.Column("n").Data, back.Column("n").Data)
}
