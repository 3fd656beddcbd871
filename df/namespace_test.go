package df

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigapi/gigagroup/frame"
)

func TestNamespaceRoundTrip(t *testing.T) {
	chunk, err := frame.FromMap(map[string]any{
		"key":   []string{"a"},
		"value": []float64{1},
		"other": []int64{2},
	}, "key", "value", "other")
	require.NoError(t, err)

	ns, err := namespaceValues(chunk, []string{"key"}, []string{"value", "other"})
	require.NoError(t, err)
	// Display names survive, keys stay untagged.
	assert.Equal(t, []string{"key", "value", "other"}, ns.ColumnNames())
	assert.Nil(t, ns.Column("key").Tag)
	require.NotNil(t, ns.Column("value").Tag)
	assert.Equal(t, "value", ns.Column("value").Tag.Origin)

	// Simulate two functions claiming the same origin column.
	tagged, err := frame.NewChunk(
		ns.Column("key"),
		ns.Column("value").WithTag(&frame.Tag{Origin: "value", Func: "sum"}),
		ns.Column("value").WithTag(&frame.Tag{Origin: "value", Func: "count"}),
	)
	require.NoError(t, err)

	restored, err := restoreNames(tagged)
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "sum_value", "count_value"}, restored.ColumnNames())
	for _, col := range restored.Columns() {
		assert.Nil(t, col.Tag)
	}
}

// A user column whose name embeds a separator cannot shadow a derived
// name: attribution travels in the tag, not in the string.
func TestNamespaceNoCollisionWithUserNames(t *testing.T) {
	chunk, err := frame.FromMap(map[string]any{
		"key":       []string{"a"},
		"sum_value": []float64{99},
	}, "key", "sum_value")
	require.NoError(t, err)

	ns, err := namespaceValues(chunk, []string{"key"}, []string{"sum_value"})
	require.NoError(t, err)
	assert.Equal(t, "sum_value", ns.Column("sum_value").Tag.Origin)
}

func TestRestoreRejectsTagWithoutFunc(t *testing.T) {
	chunk, err := frame.FromMap(map[string]any{"v": []float64{1}}, "v")
	require.NoError(t, err)
	tagged, err := frame.NewChunk(chunk.Column("v").WithTag(&frame.Tag{Origin: "v", Stat: "sum"}))
	require.NoError(t, err)
	_, err = restoreNames(tagged)
	assert.Error(t, err)
}
