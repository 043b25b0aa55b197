package bfsworker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenseParentTable_GetSet(t *testing.T) {
	tbl := newParentTable(StrategyDense, 10)
	_, ok := tbl.Get(3)
	assert.False(t, ok)

	tbl.Set(3, noParent)
	tbl.Set(7, 3)

	parent, ok := tbl.Get(7)
	assert.True(t, ok)
	assert.Equal(t, int32(3), parent)

	root, ok := tbl.Get(3)
	assert.True(t, ok)
	assert.Equal(t, int32(noParent), root)
}

func TestSparseParentTable_GetSet(t *testing.T) {
	tbl := newParentTable(StrategySparse, 0)
	tbl.Set(100000, noParent)
	tbl.Set(200000, 100000)

	parent, ok := tbl.Get(200000)
	assert.True(t, ok)
	assert.Equal(t, int32(100000), parent)

	_, ok = tbl.Get(300000)
	assert.False(t, ok)
}
