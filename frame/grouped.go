package frame

// Grouped is a chunk whose rows are clustered by a key set, plus the
// boundaries of each cluster. It is what a local group-by kernel hands
// back: rows of one group are adjacent, groups appear in key order.
type Grouped struct {
	Chunk   *Chunk
	Keys    []string
	offsets []int // group start offsets, ends with NumRows
}

// NewGrouped wraps an already clustered chunk. offsets must start at 0,
// be strictly increasing and end with chunk.NumRows(); a zero-row chunk
// takes offsets == []int{0}.
func NewGrouped(chunk *Chunk, keys []string, offsets []int) *Grouped {
	return &Grouped{Chunk: chunk, Keys: keys, offsets: offsets}
}

func (g *Grouped) NumGroups() int {
	if len(g.offsets) == 0 {
		return 0
	}
	return len(g.offsets) - 1
}

// Group returns the [start,end) row range of group i.
func (g *Grouped) Group(i int) (int, int) {
	return g.offsets[i], g.offsets[i+1]
}

// GroupChunk materializes group i as a standalone chunk.
func (g *Grouped) GroupChunk(i int) *Chunk {
	start, end := g.Group(i)
	return g.Chunk.Slice(start, end)
}

// KeyRows returns one representative row index per group.
func (g *Grouped) KeyRows() []int {
	res := make([]int, g.NumGroups())
	for i := range res {
		res[i] = g.offsets[i]
	}
	return res
}
