package df

import "github.com/gigapi/gigagroup/frame"

// Kernel is the local group-by engine consumed by the aggregation
// pipeline. It works strictly within one chunk; nothing it does is
// visible across partitions.
type Kernel interface {
	// GroupBy clusters the chunk's rows by the key columns. method is
	// an opaque hint passed through from the caller.
	GroupBy(chunk *frame.Chunk, keys []string, method string) (*frame.Grouped, error)
	// SortValues orders the chunk's rows by the given columns.
	SortValues(chunk *frame.Chunk, keys []string) (*frame.Chunk, error)
}
