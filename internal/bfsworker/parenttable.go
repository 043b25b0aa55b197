package bfsworker

import "github.com/cespare/xxhash/v2"

// parentTable is a BFS predecessor map: Get returns the code that first
// discovered a given code's vertex, Set records it. -1 marks the search
// root, which has no parent.
type parentTable interface {
	Get(code int32) (int32, bool)
	Set(code, parent int32)
}

// denseParentTable is a flat array sized maxCode+1 — open addressing by
// direct indexing, as the source's `calloc`-based parents array does. Fast
// and simple whenever codes are densely packed starting near zero.
type denseParentTable struct {
	entries []int32
	set     []bool
}

// newDenseParentTable allocates a table covering codes in [0, maxCode].
func newDenseParentTable(maxCode int32) *denseParentTable {
	return &denseParentTable{
		entries: make([]int32, maxCode+1),
		set:     make([]bool, maxCode+1),
	}
}

func (t *denseParentTable) Get(code int32) (int32, bool) {
	if code < 0 || int(code) >= len(t.entries) || !t.set[code] {
		return 0, false
	}
	return t.entries[code], true
}

func (t *denseParentTable) Set(code, parent int32) {
	t.entries[code] = parent
	t.set[code] = true
}

// sparseParentTable is an xxhash-backed hash map, for graphs whose codes
// span a wide range too sparsely populated to justify a dense array.
// Each bucket keeps the original code alongside its parent, so Get reports
// a hash collision as a miss rather than returning an unrelated code's
// parent. Set does not check: it replaces whatever the bucket held.
type sparseParentTable struct {
	m map[uint64]parentEntry
}

type parentEntry struct {
	code, parent int32
}

func newSparseParentTable() *sparseParentTable {
	return &sparseParentTable{m: make(map[uint64]parentEntry)}
}

func (t *sparseParentTable) Get(code int32) (int32, bool) {
	e, ok := t.m[hashCode(code)]
	if !ok || e.code != code {
		return 0, false
	}
	return e.parent, true
}

func (t *sparseParentTable) Set(code, parent int32) {
	t.m[hashCode(code)] = parentEntry{code: code, parent: parent}
}

func hashCode(code int32) uint64 {
	var b [4]byte
	u := uint32(code)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
	return xxhash.Sum64(b[:])
}

// Strategy selects which parentTable implementation BfsWorker builds.
type Strategy string

const (
	StrategyDense  Strategy = "dense"
	StrategySparse Strategy = "sparse"
)

// newParentTable builds the table configured by strategy. maxCode sizes the
// dense variant; it is ignored for sparse.
func newParentTable(strategy Strategy, maxCode int32) parentTable {
	if strategy == StrategySparse {
		return newSparseParentTable()
	}
	return newDenseParentTable(maxCode)
}
