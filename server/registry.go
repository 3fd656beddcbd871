package server

import (
	"fmt"
	"sync"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
)

// registry holds the tables the service exposes. Chunks appended to a
// table become partitions of every later query; a table's schema is
// fixed at creation.
type registry struct {
	mtx    sync.RWMutex
	tables map[string]*tableEntry
}

type tableEntry struct {
	schema *frame.Schema
	chunks []*frame.Chunk
}

func newRegistry() *registry {
	return &registry{tables: make(map[string]*tableEntry)}
}

func (r *registry) Create(name string, schema *frame.Schema) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.tables[name]; ok {
		return fmt.Errorf("table %s already exists", name)
	}
	for _, f := range schema.Fields {
		if _, ok := frame.Kinds[f.Type]; !ok {
			return fmt.Errorf("column %s: unknown type %s", f.Name, f.Type)
		}
	}
	r.tables[name] = &tableEntry{schema: schema}
	return nil
}

func (r *registry) Append(name string, chunks ...*frame.Chunk) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	e, ok := r.tables[name]
	if !ok {
		return fmt.Errorf("table %s not found", name)
	}
	for _, c := range chunks {
		if !c.Schema().Equal(e.schema) {
			return fmt.Errorf("chunk does not conform to table %s schema", name)
		}
	}
	e.chunks = append(e.chunks, chunks...)
	return nil
}

func (r *registry) Schema(name string) (*frame.Schema, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	e, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s not found", name)
	}
	return e.schema, nil
}

// Table snapshots the entry as a lazy df.Table. Later appends are not
// visible to the snapshot, which keeps running group-bys consistent.
func (r *registry) Table(name string) (*df.Table, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	e, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s not found", name)
	}
	if len(e.chunks) == 0 {
		empty, err := e.schema.EmptyChunk()
		if err != nil {
			return nil, err
		}
		return df.FromChunks(empty)
	}
	chunks := make([]*frame.Chunk, len(e.chunks))
	copy(chunks, e.chunks)
	return df.FromChunks(chunks...)
}
