package kernel

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2" // load duckdb driver

	"github.com/gigapi/gigagroup/frame"
)

// Duck clusters chunks by running them through an embedded DuckDB:
// the chunk is copied into a temp table and read back ordered by the
// key columns. Heavier than Sort per call, but delegates the ordering
// to a real engine. An empty Path keeps the database in memory.
type Duck struct {
	Path string
}

func (d Duck) GroupBy(chunk *frame.Chunk, keys []string, method string) (*frame.Grouped, error) {
	// method is an opaque hint; DuckDB decides its own strategy.
	sorted, err := d.SortValues(chunk, keys)
	if err != nil {
		return nil, err
	}
	return frame.NewGrouped(sorted, keys, boundaries(sorted, keys)), nil
}

func (d Duck) SortValues(chunk *frame.Chunk, keys []string) (*frame.Chunk, error) {
	if _, err := keyColumns(chunk, keys); err != nil {
		return nil, err
	}
	if chunk.NumRows() == 0 {
		return chunk, nil
	}
	db, err := ConnectDuckDB(d.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cols := chunk.Columns()
	if err := createTempTable(db, cols); err != nil {
		return nil, err
	}
	if err := insertRows(db, chunk); err != nil {
		return nil, err
	}
	order, err := readOrder(db, chunk, keys)
	if err != nil {
		return nil, err
	}
	return chunk.Take(order), nil
}

// ConnectDuckDB opens and returns a connection to DuckDB. An empty
// file path opens an in-memory database.
func ConnectDuckDB(filePath string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DuckDB: %w", err)
	}
	return db, nil
}

// Columns get positional names: partial results may carry duplicate
// display names under different tags, the row index rides along so
// the clustering is stable.
func createTempTable(db *sql.DB, cols []*frame.Column) error {
	decls := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		decls = append(decls, fmt.Sprintf("c%d %s", i, duckType(c.Kind)))
	}
	decls = append(decls, "seq BIGINT")
	_, err := db.Exec(fmt.Sprintf("CREATE TEMP TABLE rows (%s)", strings.Join(decls, ", ")))
	return err
}

func duckType(k frame.Kind) string {
	switch k {
	case frame.Int64Kind:
		return "BIGINT"
	case frame.UInt64Kind:
		return "UBIGINT"
	case frame.Float64Kind:
		return "DOUBLE"
	}
	return "VARCHAR"
}

func insertRows(db *sql.DB, chunk *frame.Chunk) error {
	cols := chunk.Columns()
	marks := make([]string, len(cols)+1)
	for i := range marks {
		marks[i] = "?"
	}
	stmt, err := db.Prepare(fmt.Sprintf("INSERT INTO rows VALUES (%s)", strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()
	args := make([]any, len(cols)+1)
	for i := 0; i < chunk.NumRows(); i++ {
		for j, c := range cols {
			args[j] = c.Kind.Value(c.Data, i)
		}
		args[len(cols)] = int64(i)
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

func readOrder(db *sql.DB, chunk *frame.Chunk, keys []string) ([]int, error) {
	orderCols := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		for i, c := range chunk.Columns() {
			if c.Name == k && c.Tag == nil {
				orderCols = append(orderCols, fmt.Sprintf("c%d", i))
				break
			}
		}
	}
	orderCols = append(orderCols, "seq")
	rows, err := db.Query(fmt.Sprintf("SELECT seq FROM rows ORDER BY %s", strings.Join(orderCols, ", ")))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	order := make([]int, 0, chunk.NumRows())
	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		order = append(order, int(seq))
	}
	return order, rows.Err()
}
