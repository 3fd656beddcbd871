// Package kernel holds local group-by kernels: given one in-memory
// chunk and a key set, cluster its rows by key. Kernels only ever see
// one chunk at a time; anything cross-partition happens above them.
package kernel

import (
	"fmt"

	"github.com/gigapi/gigagroup/frame"
)

const (
	MethodSort = "sort"
	MethodHash = "hash"
)

// Sort is the default kernel: rows are ordered by the key columns, so
// groups come out in key order. The zero value is ready to use.
type Sort struct{}

func (Sort) GroupBy(chunk *frame.Chunk, keys []string, method string) (*frame.Grouped, error) {
	keyCols, err := keyColumns(chunk, keys)
	if err != nil {
		return nil, err
	}
	if chunk.NumRows() == 0 {
		return frame.NewGrouped(chunk, keys, []int{0}), nil
	}
	var idx []int
	switch method {
	case MethodHash:
		idx = hashOrder(keyCols, chunk.NumRows())
	case MethodSort, "":
		idx = sortOrder(keyCols, chunk.NumRows())
	default:
		return nil, fmt.Errorf("unknown group-by method %q", method)
	}
	clustered := chunk.Take(idx)
	return frame.NewGrouped(clustered, keys, boundaries(clustered, keys)), nil
}

// SortValues orders the chunk's rows by the given columns.
func (Sort) SortValues(chunk *frame.Chunk, keys []string) (*frame.Chunk, error) {
	keyCols, err := keyColumns(chunk, keys)
	if err != nil {
		return nil, err
	}
	if chunk.NumRows() == 0 {
		return chunk, nil
	}
	return chunk.Take(sortOrder(keyCols, chunk.NumRows())), nil
}

func keyColumns(chunk *frame.Chunk, keys []string) ([]*frame.Column, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no grouping keys")
	}
	cols := make([]*frame.Column, len(keys))
	for i, k := range keys {
		c := chunk.Column(k)
		if c == nil {
			return nil, fmt.Errorf("key column %s not in chunk", k)
		}
		cols[i] = c
	}
	return cols, nil
}

// boundaries scans a key-clustered chunk and records where each group
// starts. The trailing offset equals the row count.
func boundaries(chunk *frame.Chunk, keys []string) []int {
	rows := chunk.NumRows()
	cols := make([]*frame.Column, len(keys))
	for i, k := range keys {
		cols[i] = chunk.Column(k)
	}
	offsets := []int{0}
	for i := 1; i < rows; i++ {
		for _, c := range cols {
			if !c.Kind.Equal(c.Data, i-1, i) {
				offsets = append(offsets, i)
				break
			}
		}
	}
	return append(offsets, rows)
}
