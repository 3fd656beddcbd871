package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
)

func testSchema() *frame.Schema {
	return &frame.Schema{Fields: []frame.Field{
		{Name: "key", Type: "VARCHAR"},
		{Name: "value", Type: "FLOAT8"},
	}}
}

func TestNDJSONRead(t *testing.T) {
	nd := &NDJSON{Schema: testSchema()}
	tbl, err := nd.Read([]byte("{\"key\":\"a\",\"value\":1.5}\n{\"key\":\"b\"}\n"))
	require.NoError(t, err)

	chunk, err := tbl.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, chunk.Column("key").Data)
	// Missing fields zero-fill.
	assert.Equal(t, []float64{1.5, 0}, chunk.Column("value").Data)
}

func TestNDJSONUnknownField(t *testing.T) {
	nd := &NDJSON{Schema: testSchema()}
	_, err := nd.Read([]byte("{\"nope\":1}\n"))
	assert.ErrorContains(t, err, "field nope not found")
}

func TestNDJSONEmptyInput(t *testing.T) {
	nd := &NDJSON{Schema: testSchema()}
	tbl, err := nd.Read(nil)
	require.NoError(t, err)
	chunk, err := tbl.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, chunk.NumRows())
	assert.Equal(t, []string{"key", "value"}, chunk.ColumnNames())
}

func TestLineProtoRead(t *testing.T) {
	lp := &LineProto{Schema: &frame.Schema{Fields: []frame.Field{
		{Name: "host", Type: "VARCHAR"},
		{Name: "usage", Type: "FLOAT8"},
		{Name: "time", Type: "INT8"},
	}}}
	tbl, err := lp.Read([]byte("cpu,host=a usage=0.5 1700000000000000000\n"))
	require.NoError(t, err)

	chunk, err := tbl.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, chunk.Column("host").Data)
	assert.Equal(t, []float64{0.5}, chunk.Column("usage").Data)
	assert.Equal(t, []int64{1700000000000000000}, chunk.Column("time").Data)
}

func TestSortedOrdersWithinPartitions(t *testing.T) {
	chunk, err := frame.FromMap(map[string]any{
		"key":   []string{"b", "a", "c"},
		"value": []float64{1, 2, 3},
	}, "key", "value")
	require.NoError(t, err)
	tbl, err := df.FromChunks(chunk)
	require.NoError(t, err)

	sorted, err := Sorted(tbl, "key")
	require.NoError(t, err)
	out, err := sorted.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Column("key").Data)
	assert.Equal(t, []float64{2, 1, 3}, out.Column("value").Data)
}

func TestSortedUnknownColumn(t *testing.T) {
	chunk, err := frame.FromMap(map[string]any{"key": []string{"a"}}, "key")
	require.NoError(t, err)
	tbl, err := df.FromChunks(chunk)
	require.NoError(t, err)
	_, err = Sorted(tbl, "missing")
	assert.Error(t, err)
}
