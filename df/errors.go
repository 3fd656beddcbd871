package df

import "errors"

var (
	// ErrSchemaMismatch reports a requested grouping or value column
	// that is absent from the table's schema. Surfaced at call time,
	// before anything is deferred.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrNoGroupingKeys reports an empty grouping key set.
	ErrNoGroupingKeys = errors.New("no grouping keys")

	// ErrUnsupportedAggregate reports an unknown aggregate function or
	// an aggregate applied to a column type that cannot carry it, e.g.
	// sum over VARCHAR.
	ErrUnsupportedAggregate = errors.New("unsupported aggregate")
)
