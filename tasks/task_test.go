package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferRunsNothingUntilResult(t *testing.T) {
	var calls int32
	task := Defer(func(ctx context.Context, inputs []any) (any, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	})
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	v, err := task.Result(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResultIsMemoized(t *testing.T) {
	var calls int32
	leaf := Defer(func(ctx context.Context, inputs []any) (any, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	add := func(ctx context.Context, inputs []any) (any, error) {
		return inputs[0].(int) + 1, nil
	}
	// Two consumers of the same leaf.
	a := Defer(add, leaf)
	b := Defer(add, leaf)

	res, err := Run(context.Background(), 4, a, b)
	require.NoError(t, err)
	assert.Equal(t, []any{2, 2}, res)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "shared dependency ran more than once")
}

func TestDependencyOrder(t *testing.T) {
	leaf := Value(10)
	double := Defer(func(ctx context.Context, inputs []any) (any, error) {
		return inputs[0].(int) * 2, nil
	}, leaf)
	sum := Defer(func(ctx context.Context, inputs []any) (any, error) {
		return inputs[0].(int) + inputs[1].(int), nil
	}, leaf, double)

	v, err := sum.Result(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 30, v)
}

func TestErrorPropagatesAndAborts(t *testing.T) {
	boom := errors.New("boom")
	bad := Defer(func(ctx context.Context, inputs []any) (any, error) {
		return nil, boom
	})
	dependent := Defer(func(ctx context.Context, inputs []any) (any, error) {
		t.Fatal("must not run on failed dependency")
		return nil, nil
	}, bad)

	_, err := Run(context.Background(), 2, dependent)
	assert.ErrorIs(t, err, boom)
}

func TestRunRejectsBadParallelism(t *testing.T) {
	_, err := Run(context.Background(), 0, Value(1))
	assert.Error(t, err)
}

func TestValueLeaf(t *testing.T) {
	v, err := Value("x").Result(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}
