package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// ArrowSchema builds the arrow schema matching the chunk's columns.
func (c *Chunk) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(c.cols))
	for i, col := range c.cols {
		fields[i] = arrow.Field{
			Name:     col.Name,
			Type:     col.Kind.ArrowDataType(),
			Nullable: true,
		}
	}
	return arrow.NewSchema(fields, nil)
}

// Record converts the chunk into an arrow record batch. The caller
// owns the record and must Release it.
func (c *Chunk) Record(pool memory.Allocator) (arrow.Record, error) {
	if pool == nil {
		pool = memory.NewGoAllocator()
	}
	schema := c.ArrowSchema()
	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()
	for i, col := range c.cols {
		if err := col.Kind.WriteToBatch(builder.Field(i), col.Data, col.Valids); err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
	}
	return builder.NewRecord(), nil
}

// FromRecord converts an arrow record batch into a chunk. Only the
// kinds in the Kinds registry are supported.
func FromRecord(rec arrow.Record) (*Chunk, error) {
	cols := make([]*Column, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		name := rec.ColumnName(i)
		arr := rec.Column(i)
		var data any
		switch a := arr.(type) {
		case *array.Int64:
			vals := make([]int64, a.Len())
			copy(vals, a.Int64Values())
			data = vals
		case *array.Uint64:
			vals := make([]uint64, a.Len())
			copy(vals, a.Uint64Values())
			data = vals
		case *array.Float64:
			vals := make([]float64, a.Len())
			copy(vals, a.Float64Values())
			data = vals
		case *array.String:
			vals := make([]string, a.Len())
			for j := range vals {
				vals[j] = a.Value(j)
			}
			data = vals
		default:
			return nil, fmt.Errorf("column %s: unsupported arrow type %s", name, arr.DataType())
		}
		col, err := NewColumn(name, data)
		if err != nil {
			return nil, err
		}
		if arr.NullN() > 0 {
			valids := make([]bool, arr.Len())
			for j := range valids {
				valids[j] = arr.IsValid(j)
			}
			col.Valids = valids
		}
		cols[i] = col
	}
	return NewChunk(cols...)
}
