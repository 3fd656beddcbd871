package source

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/tasks"
)

// ReadParquet opens a parquet file as a lazy table, one partition per
// row group. Only the metadata is touched here; row groups are read
// when their partition task runs, each read reopening the file so the
// tasks share no state.
func ReadParquet(path string) (*df.Table, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, err
	}
	arrowSchema, err := fr.Schema()
	if err != nil {
		return nil, err
	}
	meta, err := schemaFromArrow(arrowSchema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	numRowGroups := rdr.NumRowGroups()
	if numRowGroups == 0 {
		empty, err := meta.EmptyChunk()
		if err != nil {
			return nil, err
		}
		return df.New(meta, tasks.Value(empty)), nil
	}
	parts := make([]*tasks.Task, numRowGroups)
	for i := 0; i < numRowGroups; i++ {
		rg := i
		parts[i] = tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
			return readRowGroup(ctx, path, rg)
		})
	}
	return df.New(meta, parts...), nil
}

func readRowGroup(ctx context.Context, path string, rowGroup int) (*frame.Chunk, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, err
	}
	tbl, err := fr.ReadRowGroups(ctx, nil, []int{rowGroup})
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()
	var chunks []*frame.Chunk
	for tr.Next() {
		chunk, err := frame.FromRecord(tr.Record())
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		meta, err := schemaFromArrow(tbl.Schema())
		if err != nil {
			return nil, err
		}
		return meta.EmptyChunk()
	}
	return frame.Concat(chunks...)
}

func schemaFromArrow(s *arrow.Schema) (*frame.Schema, error) {
	fields := make([]frame.Field, len(s.Fields()))
	for i, f := range s.Fields() {
		tp, err := kindNameFromArrow(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		fields[i] = frame.Field{Name: f.Name, Type: tp}
	}
	return &frame.Schema{Fields: fields}, nil
}

func kindNameFromArrow(dt arrow.DataType) (string, error) {
	switch dt.ID() {
	case arrow.INT64:
		return frame.TYPE_NAME_INT64, nil
	case arrow.UINT64:
		return frame.TYPE_NAME_UINT64, nil
	case arrow.FLOAT64:
		return frame.TYPE_NAME_FLOAT64, nil
	case arrow.STRING:
		return frame.TYPE_NAME_STRING, nil
	}
	return "", fmt.Errorf("unsupported arrow type %s", dt)
}
