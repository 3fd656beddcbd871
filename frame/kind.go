package frame

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"golang.org/x/exp/constraints"
)

const TYPE_NAME_INT64 = "INT8"
const TYPE_NAME_UINT64 = "UBIGINT"
const TYPE_NAME_FLOAT64 = "FLOAT8"
const TYPE_NAME_STRING = "VARCHAR"

// Kind describes one supported column type and implements every
// data-level operation over the underlying `any` store, so that Chunk
// and the aggregation code never type-switch on their own.
type Kind interface {
	Name() string
	New(size int, cap int) any
	Length(data any) int
	Validate(data any) error
	Concat(stores []any) any
	Take(data any, idx []int) any
	Less(data any, i, j int) bool
	Equal(data any, i, j int) bool
	Value(data any, i int) any
	AppendStr(data any, s string) (any, error)
	ArrowDataType() arrow.DataType
	WriteToBatch(b array.Builder, data any, valids []bool) error
}

type kind[T constraints.Ordered] struct {
	name      string
	arrowType arrow.DataType
	parseStr  func(s string) (T, error)
	appender  func(b array.Builder) interface{ AppendValues([]T, []bool) }
}

func (k *kind[T]) Name() string { return k.name }

func (k *kind[T]) New(size int, cap int) any {
	if cap < size {
		cap = size
	}
	return make([]T, size, cap)
}

func (k *kind[T]) Length(data any) int { return len(data.([]T)) }

func (k *kind[T]) Validate(data any) error {
	if _, ok := data.([]T); !ok {
		return fmt.Errorf("invalid data type: %T", data)
	}
	return nil
}

func (k *kind[T]) Concat(stores []any) any {
	size := 0
	for _, s := range stores {
		size += len(s.([]T))
	}
	res := make([]T, 0, size)
	for _, s := range stores {
		res = append(res, s.([]T)...)
	}
	return res
}

func (k *kind[T]) Take(data any, idx []int) any {
	_data := data.([]T)
	res := make([]T, len(idx))
	for i, j := range idx {
		res[i] = _data[j]
	}
	return res
}

func (k *kind[T]) Less(data any, i, j int) bool {
	_data := data.([]T)
	return _data[i] < _data[j]
}

func (k *kind[T]) Equal(data any, i, j int) bool {
	_data := data.([]T)
	return _data[i] == _data[j]
}

func (k *kind[T]) Value(data any, i int) any {
	return data.([]T)[i]
}

func (k *kind[T]) AppendStr(data any, s string) (any, error) {
	val, err := k.parseStr(s)
	if err != nil {
		return data, err
	}
	return append(data.([]T), val), nil
}

func (k *kind[T]) ArrowDataType() arrow.DataType { return k.arrowType }

func (k *kind[T]) WriteToBatch(b array.Builder, data any, valids []bool) error {
	_data := data.([]T)
	if valids == nil {
		valids = make([]bool, len(_data))
		FastFillArray(valids, true)
	}
	k.appender(b).AppendValues(_data, valids)
	return nil
}

var Int64Kind Kind = &kind[int64]{
	name:      TYPE_NAME_INT64,
	arrowType: arrow.PrimitiveTypes.Int64,
	parseStr: func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	},
	appender: func(b array.Builder) interface{ AppendValues([]int64, []bool) } {
		return b.(*array.Int64Builder)
	},
}

var UInt64Kind Kind = &kind[uint64]{
	name:      TYPE_NAME_UINT64,
	arrowType: arrow.PrimitiveTypes.Uint64,
	parseStr: func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	},
	appender: func(b array.Builder) interface{ AppendValues([]uint64, []bool) } {
		return b.(*array.Uint64Builder)
	},
}

var Float64Kind Kind = &kind[float64]{
	name:      TYPE_NAME_FLOAT64,
	arrowType: arrow.PrimitiveTypes.Float64,
	parseStr: func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	},
	appender: func(b array.Builder) interface{ AppendValues([]float64, []bool) } {
		return b.(*array.Float64Builder)
	},
}

var StringKind Kind = &kind[string]{
	name:      TYPE_NAME_STRING,
	arrowType: arrow.BinaryTypes.String,
	parseStr: func(s string) (string, error) {
		return s, nil
	},
	appender: func(b array.Builder) interface{ AppendValues([]string, []bool) } {
		return &strAppender{b.(*array.StringBuilder)}
	},
}

type strAppender struct {
	b *array.StringBuilder
}

func (s *strAppender) AppendValues(vals []string, valids []bool) {
	s.b.AppendStringValues(vals, valids)
}

var Kinds = map[string]Kind{
	"Int64":  Int64Kind,
	"BIGINT": Int64Kind,
	"INT8":   Int64Kind,
	"LONG":   Int64Kind,

	"UInt64":  UInt64Kind,
	"UBIGINT": UInt64Kind,

	"Float64": Float64Kind,
	"DOUBLE":  Float64Kind,
	"FLOAT8":  Float64Kind,

	"String":  StringKind,
	"STRING":  StringKind,
	"VARCHAR": StringKind,
	"TEXT":    StringKind,
}

// KindOf maps a raw slice to its Kind.
func KindOf(data any) (Kind, error) {
	switch data.(type) {
	case []int64:
		return Int64Kind, nil
	case []uint64:
		return UInt64Kind, nil
	case []float64:
		return Float64Kind, nil
	case []string:
		return StringKind, nil
	}
	return nil, fmt.Errorf("unsupported data type: %T", data)
}

func FastFillArray[T any](arr []T, data T) []T {
	if len(arr) == 0 {
		return arr
	}
	arr[0] = data
	for i := 1; i < len(arr); i *= 2 {
		copy(arr[i:], arr[:i])
	}
	return arr
}
