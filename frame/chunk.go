package frame

import (
	"fmt"
)

// Chunk is one in-memory portion of a logical table: an ordered set of
// equally sized columns. Chunks are immutable, every transform derives
// a new chunk and shares column data where it can.
type Chunk struct {
	cols []*Column
}

func NewChunk(cols ...*Column) (*Chunk, error) {
	if len(cols) == 0 {
		return &Chunk{}, nil
	}
	rows := cols[0].Len()
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.Len() != rows {
			return nil, fmt.Errorf("column %s: length %d, want %d", c.Name, c.Len(), rows)
		}
		if seen[c.Name] && c.Tag == nil {
			return nil, fmt.Errorf("duplicate column %s", c.Name)
		}
		seen[c.Name] = true
	}
	return &Chunk{cols: cols}, nil
}

// FromMap builds a chunk from raw slices, ordered by the names argument.
func FromMap(data map[string]any, names ...string) (*Chunk, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no column order given")
	}
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		d, ok := data[n]
		if !ok {
			return nil, fmt.Errorf("column %s missing from data", n)
		}
		c, err := NewColumn(n, d)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return NewChunk(cols...)
}

func (c *Chunk) NumRows() int {
	if len(c.cols) == 0 {
		return 0
	}
	return c.cols[0].Len()
}

func (c *Chunk) NumColumns() int { return len(c.cols) }

func (c *Chunk) Columns() []*Column { return c.cols }

func (c *Chunk) Column(name string) *Column {
	for _, col := range c.cols {
		if col.Name == name {
			return col
		}
	}
	return nil
}

func (c *Chunk) HasColumn(name string) bool { return c.Column(name) != nil }

func (c *Chunk) ColumnNames() []string {
	res := make([]string, len(c.cols))
	for i, col := range c.cols {
		res[i] = col.Name
	}
	return res
}

// WithColumns derives a chunk with the same row count and the given
// column set.
func (c *Chunk) WithColumns(cols ...*Column) (*Chunk, error) {
	return NewChunk(cols...)
}

// Take gathers the rows at idx across every column.
func (c *Chunk) Take(idx []int) *Chunk {
	cols := make([]*Column, len(c.cols))
	for i, col := range c.cols {
		cols[i] = col.Take(idx)
	}
	return &Chunk{cols: cols}
}

// Slice returns the [from:to) row window of the chunk.
func (c *Chunk) Slice(from, to int) *Chunk {
	cols := make([]*Column, len(c.cols))
	for i, col := range c.cols {
		cols[i] = col.Slice(from, to)
	}
	return &Chunk{cols: cols}
}

// Empty returns a zero-row chunk with the same columns, used to infer
// the shape of a pipeline without touching real data.
func (c *Chunk) Empty() *Chunk {
	cols := make([]*Column, len(c.cols))
	for i, col := range c.cols {
		e := *col
		e.Data = col.Kind.New(0, 0)
		e.Valids = nil
		cols[i] = &e
	}
	return &Chunk{cols: cols}
}

// Schema reports the chunk's column names and type names in order.
func (c *Chunk) Schema() *Schema {
	fields := make([]Field, len(c.cols))
	for i, col := range c.cols {
		fields[i] = Field{Name: col.Name, Type: col.Kind.Name()}
	}
	return &Schema{Fields: fields}
}

// Concat appends the chunks row-wise. All chunks must carry the same
// columns in the same order with the same kinds.
func Concat(chunks ...*Chunk) (*Chunk, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("nothing to concat")
	}
	if len(chunks) == 1 {
		return chunks[0], nil
	}
	first := chunks[0]
	for _, c := range chunks[1:] {
		if c.NumColumns() != first.NumColumns() {
			return nil, fmt.Errorf("concat: column count mismatch: %d vs %d", c.NumColumns(), first.NumColumns())
		}
	}
	cols := make([]*Column, first.NumColumns())
	for i, col := range first.cols {
		stores := make([]any, len(chunks))
		var valids []bool
		hasValids := false
		for j, c := range chunks {
			other := c.cols[i]
			if other.Name != col.Name || other.Kind.Name() != col.Kind.Name() {
				return nil, fmt.Errorf("concat: column %d is %s %s, want %s %s",
					i, other.Name, other.Kind.Name(), col.Name, col.Kind.Name())
			}
			stores[j] = other.Data
			if other.Valids != nil {
				hasValids = true
			}
		}
		if hasValids {
			for _, c := range chunks {
				other := c.cols[i]
				v := other.Valids
				if v == nil {
					v = make([]bool, other.Len())
					FastFillArray(v, true)
				}
				valids = append(valids, v...)
			}
		}
		cols[i] = &Column{
			Name:   col.Name,
			Kind:   col.Kind,
			Data:   col.Kind.Concat(stores),
			Valids: valids,
			Tag:    col.Tag,
		}
	}
	return &Chunk{cols: cols}, nil
}
