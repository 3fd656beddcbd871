package source

import (
	"context"
	"fmt"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/kernel"
	"github.com/gigapi/gigagroup/tasks"
)

// Sorted derives a table whose partitions are each ordered by the
// given columns. The sort is strictly per partition, rows never move
// between partitions; it buys key locality, not a global order.
func Sorted(tbl *df.Table, keys ...string) (*df.Table, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no sort columns given")
	}
	for _, k := range keys {
		if !tbl.Meta().HasColumn(k) {
			return nil, fmt.Errorf("sort column %s not in schema", k)
		}
	}
	kern := kernel.Sort{}
	parts := make([]*tasks.Task, len(tbl.Partitions()))
	for i, part := range tbl.Partitions() {
		parts[i] = tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
			return kern.SortValues(inputs[0].(*frame.Chunk), keys)
		}, part)
	}
	return df.New(tbl.Meta(), parts...), nil
}
