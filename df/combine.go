package df

import (
	"context"

	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/tasks"
)

// DefaultFanIn bounds how many partial results one combine step may
// concatenate. Peak memory of a combine is then proportional to the
// fan-in, not to the partition count.
const DefaultFanIn = 4

// combineTree reduces generation-0 partials down to a single partial.
// With fan-in enabled it repeatedly combines the first fanIn elements
// of the working list and appends the result to the tail, which both
// bounds the width of any single combine and lets independent batches
// of one generation run concurrently. With fan-in disabled (0) the
// whole list is combined in one shot, the shape mean/var/std require.
// A single partial under an enabled fan-in skips combining entirely.
func combineTree(parts []*tasks.Task, p *plan) *tasks.Task {
	combineFn := func(ctx context.Context, inputs []any) (any, error) {
		chunks := make([]*frame.Chunk, len(inputs))
		for i, in := range inputs {
			chunks[i] = in.(*frame.Chunk)
		}
		return combinePartials(chunks, p)
	}
	if p.fanIn == 0 {
		return tasks.Defer(combineFn, parts...)
	}
	for len(parts) > 1 {
		n := p.fanIn
		if n > len(parts) {
			n = len(parts)
		}
		batch := make([]*tasks.Task, n)
		copy(batch, parts[:n])
		parts = append(parts[n:], tasks.Defer(combineFn, batch...))
	}
	return parts[0]
}
