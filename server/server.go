// Package server exposes group-by aggregation over registered tables
// through a small HTTP API: create a table, append NDJSON rows, run
// aggregations or expression transforms, scrape /metrics.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/source"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Server struct {
	router *mux.Router
	reg    *registry

	fanIn       int
	ddof        int
	method      string
	parallelism int
}

func New(fanIn, ddof, parallelism int, method string) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		reg:         newRegistry(),
		fanIn:       fanIn,
		ddof:        ddof,
		method:      method,
		parallelism: parallelism,
	}
	s.RegisterRoute(&Route{
		Path:    "/gigagroup/create",
		Methods: []string{"POST"},
		Handler: s.handleCreate,
	})
	s.RegisterRoute(&Route{
		Path:    "/gigagroup/insert/{table}",
		Methods: []string{"POST"},
		Handler: s.handleInsert,
	})
	s.RegisterRoute(&Route{
		Path:    "/gigagroup/query",
		Methods: []string{"POST"},
		Handler: s.handleQuery,
	})
	s.RegisterRoute(&Route{
		Path:    "/gigagroup/apply",
		Methods: []string{"POST"},
		Handler: s.handleApply,
	})
	s.router.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *Server) RegisterRoute(r *Route) {
	handler := r.Handler
	s.router.HandleFunc(r.Path, func(w http.ResponseWriter, req *http.Request) {
		if err := handler(w, req); err != nil {
			log.Printf("%s %s: %v", req.Method, req.URL.Path, err)
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		}
	}).Methods(r.Methods...)
}

func (s *Server) GetPathParams(r *http.Request) map[string]string {
	return mux.Vars(r)
}

// CreateTable registers a table outside the HTTP surface, for startup
// preloading.
func (s *Server) CreateTable(name string, schema *frame.Schema) error {
	return s.reg.Create(name, schema)
}

func (s *Server) AppendTable(name string, chunks ...*frame.Chunk) error {
	return s.reg.Append(name, chunks...)
}

func (s *Server) Run(addr string) error {
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

type createRequest struct {
	Name   string       `json:"name"`
	Schema frame.Schema `json:"schema"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest(w, err)
	}
	if req.Name == "" || len(req.Schema.Fields) == 0 {
		return badRequest(w, fmt.Errorf("name and schema required"))
	}
	if err := s.reg.Create(req.Name, &req.Schema); err != nil {
		return badRequest(w, err)
	}
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) error {
	name := s.GetPathParams(r)["table"]
	schema, err := s.reg.Schema(name)
	if err != nil {
		return badRequest(w, err)
	}
	nd := &source.NDJSON{Schema: schema}
	tbl, err := nd.ReadReader(r.Body)
	if err != nil {
		return badRequest(w, err)
	}
	chunk, err := s.collect(r.Context(), tbl)
	if err != nil {
		return err
	}
	if err := s.reg.Append(name, chunk); err != nil {
		return badRequest(w, err)
	}
	insertRowsTotal.Add(float64(chunk.NumRows()))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type queryRequest struct {
	Table  string              `json:"table"`
	Keys   []string            `json:"keys"`
	Agg    map[string][]string `json:"agg"`
	FanIn  *int                `json:"fan_in"`
	Ddof   *int                `json:"ddof"`
	Method string              `json:"method"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) error {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest(w, err)
	}
	tbl, err := s.reg.Table(req.Table)
	if err != nil {
		queriesTotal.WithLabelValues("bad_request").Inc()
		return badRequest(w, err)
	}
	gb, err := tbl.GroupBy(req.Keys...)
	if err != nil {
		queriesTotal.WithLabelValues("bad_request").Inc()
		return badRequest(w, err)
	}
	fanIn := s.fanIn
	if req.FanIn != nil {
		fanIn = *req.FanIn
	}
	ddof := s.ddof
	if req.Ddof != nil {
		ddof = *req.Ddof
	}
	method := s.method
	if req.Method != "" {
		method = req.Method
	}
	res, err := gb.WithFanIn(fanIn).WithDdof(ddof).WithMethod(method).Agg(req.Agg)
	if err != nil {
		queriesTotal.WithLabelValues("bad_request").Inc()
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

// collect runs a lazy table under the configured parallelism bound,
// falling back to GOMAXPROCS when none is set.
func (s *Server) collect(ctx context.Context, tbl *df.Table) (*frame.Chunk, error) {
	if s.parallelism > 0 {
		return tbl.CollectParallel(ctx, int64(s.parallelism))
	}
	return tbl.Collect(ctx)
}

func badRequest(w http.ResponseWriter, err error) error {
	w.WriteHeader(http.StatusBadRequest)
	return json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeRows(w http.ResponseWriter, chunk *frame.Chunk) error {
	w.Header().Set("Content-Type", "application/json")
	rows := make([]map[string]any, chunk.NumRows())
	for i := range rows {
		row := make(map[string]any, chunk.NumColumns())
		for _, col := range chunk.Columns() {
			row[col.Name] = col.Kind.Value(col.Data, i)
		}
		rows[i] = row
	}
	return json.NewEncoder(w).Encode(map[string]any{"rows": rows})
}
