package server

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/gigapi/gigagroup/frame"
)

type applyRequest struct {
	Table string   `json:"table"`
	Keys  []string `json:"keys"`
	// Columns maps output column name to an expression over the input
	// row, e.g. {"total": "price * quantity"}.
	Columns map[string]string `json:"columns"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) error {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest(w, err)
	}
	if len(req.Columns) == 0 {
		return badRequest(w, fmt.Errorf("no output columns requested"))
	}
	tbl, err := s.reg.Table(req.Table)
	if err != nil {
		return badRequest(w, err)
	}
	outNames := make([]string, 0, len(req.Columns))
	for name := range req.Columns {
		outNames = append(outNames, name)
	}
	sort.Strings(outNames)
	programs := make(map[string]*vm.Program, len(req.Columns))
	for _, name := range outNames {
		prog, err := expr.Compile(req.Columns[name], expr.Env(zeroEnv(tbl.Meta())))
		if err != nil {
			return badRequest(w, fmt.Errorf("column %s: %w", name, err))
		}
		programs[name] = prog
	}
	gb, err := tbl.GroupBy(req.Keys...)
	if err != nil {
		return badRequest(w, err)
	}
	res, err := gb.Apply(exprTransform(req.Keys, outNames, programs))
	if err != nil {
		return badRequest(w, err)
	}
	chunk, err := s.collect(r.Context(), res)
	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		return err
	}
	queriesTotal.WithLabelValues("ok").Inc()
	return writeRows(w, chunk)
}

// exprTransform builds the per-group function: key columns pass
// through, every requested column is evaluated row by row. Output
// kinds come from running the programs against a zero-valued row, so
// a zero-row group still yields the right schema.
func exprTransform(keys, outNames []string, programs map[string]*vm.Program) func(*frame.Chunk) (*frame.Chunk, error) {
	return func(group *frame.Chunk) (*frame.Chunk, error) {
		cols := make([]*frame.Column, 0, len(keys)+len(outNames))
		for _, k := range keys {
			col := group.Column(k)
			if col == nil {
				return nil, fmt.Errorf("key column %s missing", k)
			}
			cols = append(cols, col)
		}
		rows := group.NumRows()
		for _, name := range outNames {
			prog := programs[name]
			sample, err := expr.Run(prog, zeroEnvOf(group))
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			store, appendVal, err := storeFor(sample)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			for i := 0; i < rows; i++ {
				out, err := expr.Run(prog, rowEnv(group, i))
				if err != nil {
					return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
				}
				store, err = appendVal(store, out)
				if err != nil {
					return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
				}
			}
			col, err := frame.NewColumn(name, store)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
		}
		return frame.NewChunk(cols...)
	}
}

func rowEnv(chunk *frame.Chunk, i int) map[string]any {
	env := make(map[string]any, chunk.NumColumns())
	for _, col := range chunk.Columns() {
		env[col.Name] = col.Kind.Value(col.Data, i)
	}
	return env
}

func zeroEnv(schema *frame.Schema) map[string]any {
	env := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		switch frame.Kinds[f.Type] {
		case frame.StringKind:
			env[f.Name] = ""
		case frame.Int64Kind:
			env[f.Name] = int64(0)
		case frame.UInt64Kind:
			env[f.Name] = uint64(0)
		case frame.Float64Kind:
			env[f.Name] = float64(0)
		}
	}
	return env
}

func zeroEnvOf(chunk *frame.Chunk) map[string]any {
	return zeroEnv(chunk.Schema())
}

type appendFn func(store any, v any) (any, error)

// storeFor picks the output column store from a sample result. Integer
// arithmetic in expr yields int, so plain ints land in INT8 columns.
func storeFor(sample any) (any, appendFn, error) {
	switch sample.(type) {
	case int, int64:
		return []int64{}, func(store, v any) (any, error) {
			switch n := v.(type) {
			case int:
				return append(store.([]int64), int64(n)), nil
			case int64:
				return append(store.([]int64), n), nil
			}
			return nil, fmt.Errorf("expected integer, got %T", v)
		}, nil
	case uint64:
		return []uint64{}, func(store, v any) (any, error) {
			n, ok := v.(uint64)
			if !ok {
				return nil, fmt.Errorf("expected uint64, got %T", v)
			}
			return append(store.([]uint64), n), nil
		}, nil
	case float64:
		return []float64{}, func(store, v any) (any, error) {
			switch n := v.(type) {
			case float64:
				return append(store.([]float64), n), nil
			case int:
				return append(store.([]float64), float64(n)), nil
			case int64:
				return append(store.([]float64), float64(n)), nil
			}
			return nil, fmt.Errorf("expected float, got %T", v)
		}, nil
	case string:
		return []string{}, func(store, v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", v)
			}
			return append(store.([]string), s), nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported expression result type %T", sample)
	}
}
