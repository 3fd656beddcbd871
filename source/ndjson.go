// Package source turns external data into lazy df.Tables: in-memory
// slices, NDJSON and InfluxDB line-protocol payloads, parquet files
// and parquet objects in S3. Each source splits its input into
// partitions; nothing here aggregates.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
)

// DefaultChunkBytes is how much raw input one NDJSON partition holds.
const DefaultChunkBytes = 10 * 1024 * 1024

// NDJSON reads newline-delimited JSON rows against a declared schema.
// Fields missing from a line are zero-filled; fields not declared in
// the schema are an error.
type NDJSON struct {
	Schema     *frame.Schema
	ChunkBytes int
}

func (n *NDJSON) Read(data []byte) (*df.Table, error) {
	return n.ReadReader(bytes.NewReader(data))
}

func (n *NDJSON) ReadReader(r io.Reader) (*df.Table, error) {
	chunkBytes := n.ChunkBytes
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)

	var chunks []*frame.Chunk
	data := n.emptyStores()
	rows := 0
	bytesParsed := 0

	flush := func() error {
		if rows == 0 {
			return nil
		}
		chunk, err := frame.FromMap(data, n.Schema.ColumnNames()...)
		if err != nil {
			return err
		}
		chunks = append(chunks, chunk)
		data = n.emptyStores()
		rows = 0
		bytesParsed = 0
		return nil
	}

	for scanner.Scan() {
		if err := n.parseLine(scanner.Bytes(), data); err != nil {
			return nil, err
		}
		rows++
		n.padRow(data, rows)
		bytesParsed += len(scanner.Bytes())
		if bytesParsed >= chunkBytes {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		empty, err := n.Schema.EmptyChunk()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, empty)
	}
	return df.FromChunks(chunks...)
}

func (n *NDJSON) emptyStores() map[string]any {
	res := make(map[string]any, len(n.Schema.Fields))
	for _, f := range n.Schema.Fields {
		res[f.Name] = frame.Kinds[f.Type].New(0, 0)
	}
	return res
}

func (n *NDJSON) parseLine(line []byte, data map[string]any) error {
	d := jx.DecodeBytes(line)
	return d.Obj(func(d *jx.Decoder, key string) error {
		f, ok := n.Schema.Field(key)
		if !ok {
			return fmt.Errorf("field %s not found", key)
		}
		switch frame.Kinds[f.Type] {
		case frame.StringKind:
			v, err := d.Str()
			if err != nil {
				return err
			}
			data[key] = append(data[key].([]string), v)
		case frame.Int64Kind:
			v, err := d.Int64()
			if err != nil {
				return err
			}
			data[key] = append(data[key].([]int64), v)
		case frame.UInt64Kind:
			v, err := d.UInt64()
			if err != nil {
				return err
			}
			data[key] = append(data[key].([]uint64), v)
		case frame.Float64Kind:
			v, err := d.Float64()
			if err != nil {
				return err
			}
			data[key] = append(data[key].([]float64), v)
		default:
			return fmt.Errorf("unsupported type %s for field %s", f.Type, key)
		}
		return nil
	})
}

// padRow zero-fills fields a line did not mention so every store stays
// rectangular.
func (n *NDJSON) padRow(data map[string]any, rows int) {
	for _, f := range n.Schema.Fields {
		switch store := data[f.Name].(type) {
		case []string:
			for len(store) < rows {
				store = append(store, "")
			}
			data[f.Name] = store
		case []int64:
			for len(store) < rows {
				store = append(store, 0)
			}
			data[f.Name] = store
		case []uint64:
			for len(store) < rows {
				store = append(store, 0)
			}
			data[f.Name] = store
		case []float64:
			for len(store) < rows {
				store = append(store, 0)
			}
			data[f.Name] = store
		}
	}
}
