package df

import (
	"fmt"

	"github.com/gigapi/gigagroup/frame"
)

// The namespacing layer keeps value columns attributable while several
// aggregate functions share one pipeline. Instead of splicing a marker
// token into the column name, each derived column carries a frame.Tag
// recording its origin column, the statistic it currently holds and
// the aggregate function that will own its final name. A user column
// can therefore never collide with the namespace.

// namespaceValues tags every requested value column with its origin
// and projects the chunk down to keys + requested values, key columns
// untouched. Pure: the input chunk is not modified.
func namespaceValues(chunk *frame.Chunk, keys []string, values []string) (*frame.Chunk, error) {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	isValue := make(map[string]bool, len(values))
	for _, v := range values {
		isValue[v] = true
	}
	cols := make([]*frame.Column, 0, len(keys)+len(values))
	for _, col := range chunk.Columns() {
		switch {
		case isKey[col.Name]:
			cols = append(cols, col)
		case isValue[col.Name]:
			cols = append(cols, col.WithTag(&frame.Tag{Origin: col.Name}))
		}
	}
	return frame.NewChunk(cols...)
}

// restoreNames undoes the namespacing on a final partial result: every
// tagged column is renamed to <func>_<origin> and loses its tag. Key
// columns pass through unchanged, so the grouping keys come back as
// ordinary columns.
func restoreNames(chunk *frame.Chunk) (*frame.Chunk, error) {
	cols := make([]*frame.Column, 0, chunk.NumColumns())
	for _, col := range chunk.Columns() {
		if col.Tag == nil {
			cols = append(cols, col)
			continue
		}
		if col.Tag.Func == "" {
			return nil, fmt.Errorf("column %s: tag has no producing function", col.Name)
		}
		out := col.Rename(col.Tag.Func + "_" + col.Tag.Origin)
		out.Tag = nil
		cols = append(cols, out)
	}
	return frame.NewChunk(cols...)
}
