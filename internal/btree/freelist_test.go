package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeandaverde/tinydb/internal/storage"
)

func TestPushAndAllocFromFreeListExactFit(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)

	pushFreeBlock(pg, 4000, 16)
	r.EqualValues(16, storage.TotalFreeBytes(pg.Data))

	off, ok := tryAllocFromFreeList(pg, 16)
	r.True(ok)
	r.EqualValues(4000, off)
	r.EqualValues(0, storage.TotalFreeBytes(pg.Data))
	r.EqualValues(0, storage.FreeListHead(pg.Data))
}

func TestAllocFromFreeListKeepsResidual(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)

	pushFreeBlock(pg, 4000, 32)
	off, ok := tryAllocFromFreeList(pg, 16)
	r.True(ok)
	r.EqualValues(4016, off)
	r.EqualValues(16, storage.TotalFreeBytes(pg.Data))
	r.EqualValues(4000, storage.FreeListHead(pg.Data))
}

func TestAllocFromFreeListNoFit(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)

	pushFreeBlock(pg, 4000, 8)
	_, ok := tryAllocFromFreeList(pg, 100)
	r.False(ok)
}

func TestAllocFromFreeListTakesFirstFittingBlock(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)

	pushFreeBlock(pg, 3000, 500)
	pushFreeBlock(pg, 4000, 8)

	off, ok := tryAllocFromFreeList(pg, 8)
	r.True(ok)
	r.EqualValues(4000, off)
	r.EqualValues(500, storage.TotalFreeBytes(pg.Data))
	r.EqualValues(3000, storage.FreeListHead(pg.Data))
}
