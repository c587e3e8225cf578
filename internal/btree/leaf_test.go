package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeandaverde/tinydb/internal/storage"
)

func newEmptyLeafPage(num storage.PageNum) *storage.Page {
	pg := &storage.Page{Num: num, Data: make([]byte, storage.DefaultPageSize)}
	storage.InitLeafHeader(pg, 0, true)
	return pg
}

func TestTryInsertIntoLeafAllocatesFromEnd(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)

	ok := tryInsertIntoLeaf(testLog, pg, 0, 10, []byte("hello"))
	r.True(ok)
	r.EqualValues(1, storage.NumCells(pg.Data))

	cell := cellAt(pg, 0)
	r.EqualValues(10, storage.CellKey(cell))
	r.Equal([]byte("hello"), storage.CellRecord(cell))
}

func TestTryInsertIntoLeafReusesFreedSpace(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)

	r.True(tryInsertIntoLeaf(testLog, pg, 0, 1, []byte("aaaa")))
	r.True(tryInsertIntoLeaf(testLog, pg, 1, 2, []byte("bbbb")))
	r.True(tryInsertIntoLeaf(testLog, pg, 2, 3, []byte("cccc")))

	// Free the middle cell and ensure a same-sized insert reuses the hole.
	cellOff := storage.CellPointer(pg.Data, 1)
	cellSize := uint32(storage.CellSize(cellAt(pg, 1)))
	removeCellPointer(pg, 1)
	pushFreeBlock(pg, cellOff, cellSize)

	before := storage.AllocPtr(pg.Data)
	r.True(tryInsertIntoLeaf(testLog, pg, 1, 4, []byte("dddd")))
	after := storage.AllocPtr(pg.Data)
	r.Equal(before, after, "reusing free-list space should not move alloc_ptr")
}

func TestTryInsertIntoLeafFailsWhenFull(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)

	key := int32(0)
	for {
		ok := tryInsertIntoLeaf(testLog, pg, int(storage.NumCells(pg.Data)), key, make([]byte, 100))
		if !ok {
			break
		}
		key++
	}
	r.Greater(key, int32(0))
}

func TestLeafFreeBytesAccountsForFreeListAndGap(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)
	full := leafFreeBytes(pg)
	r.Greater(full, uint32(0))

	r.True(tryInsertIntoLeaf(testLog, pg, 0, 1, []byte("xyz")))
	after := leafFreeBytes(pg)
	r.Less(after, full)
}

func TestLeafByteSizeSumsCells(t *testing.T) {
	r := require.New(t)
	pg := newEmptyLeafPage(1)
	r.True(tryInsertIntoLeaf(testLog, pg, 0, 1, []byte("abc")))
	r.True(tryInsertIntoLeaf(testLog, pg, 1, 2, []byte("de")))

	r.Equal(2*storage.CellHeaderSize+3+2, leafByteSize(pg))
}
