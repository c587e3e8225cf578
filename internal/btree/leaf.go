package btree

import (
	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// tryInsertIntoLeaf tries, in order: free-list first-fit, then
// allocation-block carve, then compact-and-carve. idx is
// the sorted insertion slot already found by leafSearch. It returns false
// only when none of the three succeed, in which case pg is left
// untouched and the caller must split.
func tryInsertIntoLeaf(log *logrus.Entry, pg *storage.Page, idx int, key int32, record []byte) bool {
	cell := storage.EncodeCell(key, record)
	need := uint32(len(cell))

	cellptrEnd := uint32(storage.LeafHeaderSize + int(storage.NumCells(pg.Data))*storage.CellPointerSize)
	allocPtr := storage.AllocPtr(pg.Data)

	if allocPtr-cellptrEnd >= storage.CellPointerSize {
		if off, ok := tryAllocFromFreeList(pg, need); ok {
			copy(pg.Data[off:off+need], cell)
			insertCellPointer(pg, idx, off)
			return true
		}
	}

	if allocPtr-cellptrEnd >= need+storage.CellPointerSize {
		newAllocPtr := allocPtr - need
		copy(pg.Data[newAllocPtr:newAllocPtr+need], cell)
		storage.SetAllocPtr(pg.Data, newAllocPtr)
		insertCellPointer(pg, idx, newAllocPtr)
		pg.MarkDirty()
		return true
	}

	if storage.TotalFreeBytes(pg.Data)+(allocPtr-cellptrEnd) >= need+storage.CellPointerSize {
		compactLeaf(log, pg)
		allocPtr = storage.AllocPtr(pg.Data)
		newAllocPtr := allocPtr - need
		copy(pg.Data[newAllocPtr:newAllocPtr+need], cell)
		storage.SetAllocPtr(pg.Data, newAllocPtr)
		insertCellPointer(pg, idx, newAllocPtr)
		pg.MarkDirty()
		return true
	}

	return false
}

// leafFreeBytes returns the space a leaf currently has available for a
// new cell without splitting: its tracked intra-page free list plus the
// unallocated gap between the cell-pointer array and the allocation
// block. It does not account for a cell-pointer slot of its own, unlike
// the raw comparisons in tryInsertIntoLeaf.
func leafFreeBytes(pg *storage.Page) uint32 {
	cellptrEnd := uint32(storage.LeafHeaderSize + int(storage.NumCells(pg.Data))*storage.CellPointerSize)
	return storage.TotalFreeBytes(pg.Data) + (storage.AllocPtr(pg.Data) - cellptrEnd)
}

// leafByteSize sums the on-page footprint of every live cell (header +
// record), used by the split step to balance bytes between siblings.
func leafByteSize(pg *storage.Page) int {
	total := 0
	n := int(storage.NumCells(pg.Data))
	for i := 0; i < n; i++ {
		total += storage.CellSize(cellAt(pg, i))
	}
	return total
}
