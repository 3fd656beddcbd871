package df

import (
	"github.com/gigapi/gigagroup/frame"
)

// inferMeta runs the namespace -> local aggregate -> combine -> restore
// pipeline synchronously over a zero-row sample of the input schema,
// yielding the output schema before any real partition is touched. It
// is deterministic, independent of the partition count, and doubles as
// the eager validation pass: an aggregate that cannot be computed for
// a column's type fails here, at call time.
func inferMeta(sample *frame.Chunk, p *plan) (*frame.Schema, error) {
	empty := sample.Empty()
	partial, err := localAggregate(empty, p)
	if err != nil {
		return nil, err
	}
	combined, err := combinePartials([]*frame.Chunk{partial}, p)
	if err != nil {
		return nil, err
	}
	restored, err := restoreNames(combined)
	if err != nil {
		return nil, err
	}
	return restored.Schema(), nil
}
