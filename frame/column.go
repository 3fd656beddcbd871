package frame

import "fmt"

// Tag is the reversible namespacing attribute carried by value columns
// while they travel through an aggregation pipeline. Instead of encoding
// the origin into the column name with a marker token, the origin and
// the producing statistic/function ride alongside the name, so a user
// column can never collide with the namespace.
type Tag struct {
	Origin string // user column this value was derived from
	Stat   string // local statistic held right now: "sum", "count", "sum_of_squares", ...
	Func   string // aggregate function that will own the final name: "mean", "sum", ...
}

// Column is one named, typed vector of a Chunk. Data is a raw slice
// ([]int64, []uint64, []float64 or []string); Kind provides every
// operation over it. Columns are never mutated after construction,
// derived columns share the underlying slice.
type Column struct {
	Name   string
	Kind   Kind
	Data   any
	Valids []bool
	Tag    *Tag
}

func NewColumn(name string, data any) (*Column, error) {
	k, err := KindOf(data)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return &Column{Name: name, Kind: k, Data: data}, nil
}

func (c *Column) Len() int {
	return c.Kind.Length(c.Data)
}

// Rename returns a header copy with a new name, sharing the data.
func (c *Column) Rename(name string) *Column {
	res := *c
	res.Name = name
	return &res
}

// WithTag returns a header copy carrying the given tag.
func (c *Column) WithTag(tag *Tag) *Column {
	res := *c
	res.Tag = tag
	return &res
}

// Take gathers the rows at idx into a fresh column.
func (c *Column) Take(idx []int) *Column {
	res := *c
	res.Data = c.Kind.Take(c.Data, idx)
	if c.Valids != nil {
		valids := make([]bool, len(idx))
		for i, j := range idx {
			valids[i] = c.Valids[j]
		}
		res.Valids = valids
	}
	return &res
}

// Slice returns the [from:to) row window of the column.
func (c *Column) Slice(from, to int) *Column {
	idx := make([]int, to-from)
	for i := range idx {
		idx[i] = from + i
	}
	return c.Take(idx)
}
