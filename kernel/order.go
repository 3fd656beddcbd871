package kernel

import (
	"encoding/binary"
	"math"

	"github.com/go-faster/city"
	"github.com/tidwall/btree"

	"github.com/gigapi/gigagroup/frame"
)

// sortOrder builds the key-sorted permutation of row indices using an
// ordered btree index over the key columns. Ties are broken by row
// index so the order is total and the sort stable.
func sortOrder(keyCols []*frame.Column, rows int) []int {
	less := func(a, b int32) bool {
		for _, c := range keyCols {
			if c.Kind.Less(c.Data, int(a), int(b)) {
				return true
			}
			if !c.Kind.Equal(c.Data, int(a), int(b)) {
				return false
			}
		}
		return a < b
	}
	index := btree.NewBTreeG(less)
	for i := 0; i < rows; i++ {
		index.Set(int32(i))
	}
	idx := make([]int, 0, rows)
	index.Scan(func(i int32) bool {
		idx = append(idx, int(i))
		return true
	})
	return idx
}

// hashOrder clusters rows by key hash, groups ordered by first
// appearance, rows within a group keeping input order. Hash collisions
// are resolved by comparing against each candidate group's first row.
func hashOrder(keyCols []*frame.Column, rows int) []int {
	buckets := make(map[uint64][]int) // hash -> group ids
	var groups [][]int
	var buf []byte
	for i := 0; i < rows; i++ {
		buf = encodeRow(buf[:0], keyCols, i)
		h := city.CH64(buf)
		gid := -1
		for _, cand := range buckets[h] {
			if rowsEqual(keyCols, groups[cand][0], i) {
				gid = cand
				break
			}
		}
		if gid < 0 {
			gid = len(groups)
			groups = append(groups, nil)
			buckets[h] = append(buckets[h], gid)
		}
		groups[gid] = append(groups[gid], i)
	}
	idx := make([]int, 0, rows)
	for _, g := range groups {
		idx = append(idx, g...)
	}
	return idx
}

func rowsEqual(keyCols []*frame.Column, i, j int) bool {
	for _, c := range keyCols {
		if !c.Kind.Equal(c.Data, i, j) {
			return false
		}
	}
	return true
}

func encodeRow(buf []byte, keyCols []*frame.Column, i int) []byte {
	for _, c := range keyCols {
		switch data := c.Data.(type) {
		case []int64:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(data[i]))
		case []uint64:
			buf = binary.LittleEndian.AppendUint64(buf, data[i])
		case []float64:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(data[i]))
		case []string:
			buf = append(buf, data[i]...)
			buf = append(buf, 0)
		}
	}
	return buf
}
