package btree

import (
	"github.com/joeandaverde/tinydb/internal/storage"
)

// cellAt returns the bytes of the i'th cell on a leaf page, found via its
// cell-pointer array entry.
func cellAt(pg *storage.Page, i int) []byte {
	off := storage.CellPointer(pg.Data, i)
	size := uint32(storage.CellSize(pg.Data[off:]))
	return pg.Data[off : off+size]
}

// insertCellPointer splices a new pointer into the sorted cell-pointer
// array at index i, shifting everything at or after i up by one slot. The
// caller has already verified there is room in the header region (the
// allocation block has been carved from already, so the pointer array
// can grow toward it).
func insertCellPointer(pg *storage.Page, i int, cellOffset uint32) {
	n := int(storage.NumCells(pg.Data))
	for j := n; j > i; j-- {
		storage.SetCellPointer(pg.Data, j, storage.CellPointer(pg.Data, j-1))
	}
	storage.SetCellPointer(pg.Data, i, cellOffset)
	storage.SetNumCells(pg.Data, uint32(n+1))
}

// removeCellPointer deletes the pointer at index i, shifting everything
// after it down by one slot.
func removeCellPointer(pg *storage.Page, i int) {
	n := int(storage.NumCells(pg.Data))
	for j := i; j < n-1; j++ {
		storage.SetCellPointer(pg.Data, j, storage.CellPointer(pg.Data, j+1))
	}
	storage.SetNumCells(pg.Data, uint32(n-1))
}

// leafMaxKey returns the key of a leaf's rightmost (highest-keyed) cell.
// The leaf must be non-empty.
func leafMaxKey(pg *storage.Page) int32 {
	n := int(storage.NumCells(pg.Data))
	return storage.CellKey(cellAt(pg, n-1))
}

// insertInternalEntry splices (child, key) into an internal node's packed
// array at index i, shifting entries at or after i up by one slot.
func insertInternalEntry(pg *storage.Page, i int, child storage.PageNum, key int32) {
	n := int(storage.NumKeys(pg.Data))
	for j := n; j > i; j-- {
		c, k := storage.InternalEntry(pg.Data, j-1)
		storage.SetInternalEntry(pg.Data, j, c, k)
	}
	storage.SetInternalEntry(pg.Data, i, child, key)
	storage.SetNumKeys(pg.Data, uint32(n+1))
}

// removeInternalEntry deletes the entry at index i, shifting entries
// after it down by one slot.
func removeInternalEntry(pg *storage.Page, i int) {
	n := int(storage.NumKeys(pg.Data))
	for j := i; j < n-1; j++ {
		c, k := storage.InternalEntry(pg.Data, j+1)
		storage.SetInternalEntry(pg.Data, j, c, k)
	}
	storage.SetNumKeys(pg.Data, uint32(n-1))
}
