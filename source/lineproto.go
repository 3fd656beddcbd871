package source

import (
	"fmt"
	"time"

	"github.com/influxdata/influxdb/models"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
)

// TimeColumn is where a line-protocol point's timestamp lands.
const TimeColumn = "time"

// LineProto reads InfluxDB line-protocol points against a declared
// schema: tags map to VARCHAR columns, fields to their declared kind,
// the timestamp to an INT8 "time" column in nanoseconds. Points
// missing a declared column zero-fill it.
type LineProto struct {
	Schema    *frame.Schema
	Precision string // "ns" when empty
	ChunkRows int
}

func (l *LineProto) Read(data []byte) (*df.Table, error) {
	precision := l.Precision
	if precision == "" {
		precision = "ns"
	}
	chunkRows := l.ChunkRows
	if chunkRows <= 0 {
		chunkRows = 100000
	}
	points, err := models.ParsePointsWithPrecision(data, time.Now().UTC(), precision)
	if err != nil {
		return nil, fmt.Errorf("parsing line protocol: %w", err)
	}

	var chunks []*frame.Chunk
	for start := 0; start < len(points); start += chunkRows {
		end := start + chunkRows
		if end > len(points) {
			end = len(points)
		}
		chunk, err := l.toChunk(points[start:end])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		empty, err := l.Schema.EmptyChunk()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, empty)
	}
	return df.FromChunks(chunks...)
}

func (l *LineProto) toChunk(points []models.Point) (*frame.Chunk, error) {
	data := make(map[string]any, len(l.Schema.Fields))
	for _, f := range l.Schema.Fields {
		data[f.Name] = frame.Kinds[f.Type].New(0, len(points))
	}
	for _, p := range points {
		fields, err := p.Fields()
		if err != nil {
			return nil, err
		}
		for _, f := range l.Schema.Fields {
			if f.Name == TimeColumn {
				data[f.Name] = append(data[f.Name].([]int64), p.UnixNano())
				continue
			}
			if tag := p.Tags().GetString(f.Name); tag != "" {
				if frame.Kinds[f.Type] != frame.StringKind {
					return nil, fmt.Errorf("tag %s requires a VARCHAR column, got %s", f.Name, f.Type)
				}
				data[f.Name] = append(data[f.Name].([]string), tag)
				continue
			}
			if err := appendFieldValue(data, f, fields[f.Name]); err != nil {
				return nil, err
			}
		}
	}
	return frame.FromMap(data, l.Schema.ColumnNames()...)
}

func appendFieldValue(data map[string]any, f frame.Field, v any) error {
	switch frame.Kinds[f.Type] {
	case frame.StringKind:
		s, _ := v.(string)
		data[f.Name] = append(data[f.Name].([]string), s)
	case frame.Int64Kind:
		switch val := v.(type) {
		case int64:
			data[f.Name] = append(data[f.Name].([]int64), val)
		case float64:
			data[f.Name] = append(data[f.Name].([]int64), int64(val))
		case nil:
			data[f.Name] = append(data[f.Name].([]int64), 0)
		default:
			return fmt.Errorf("field %s: cannot store %T in %s", f.Name, v, f.Type)
		}
	case frame.UInt64Kind:
		switch val := v.(type) {
		case int64:
			data[f.Name] = append(data[f.Name].([]uint64), uint64(val))
		case uint64:
			data[f.Name] = append(data[f.Name].([]uint64), val)
		case nil:
			data[f.Name] = append(data[f.Name].([]uint64), 0)
		default:
			return fmt.Errorf("field %s: cannot store %T in %s", f.Name, v, f.Type)
		}
	case frame.Float64Kind:
		switch val := v.(type) {
		case float64:
			data[f.Name] = append(data[f.Name].([]float64), val)
		case int64:
			data[f.Name] = append(data[f.Name].([]float64), float64(val))
		case nil:
			data[f.Name] = append(data[f.Name].([]float64), 0)
		default:
			return fmt.Errorf("field %s: cannot store %T in %s", f.Name, v, f.Type)
		}
	default:
		return fmt.Errorf("unsupported type %s for field %s", f.Type, f.Name)
	}
	return nil
}
