package btree

import (
	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// compactLeaf re-lays-out every cell on pg contiguously from the page end,
// resets alloc_ptr past the last cell written, and clears the intra-page
// free list. It is idempotent: run twice in a row, the second call is a
// no-op that reproduces the same byte layout, since it always replaces
// cells in the same (ascending-key) order the cell-pointer array already
// holds them in.
func compactLeaf(log *logrus.Entry, pg *storage.Page) {
	data := pg.Data
	n := int(storage.NumCells(data))
	freedBefore := storage.TotalFreeBytes(data)

	cells := make([][]byte, n)
	for i := 0; i < n; i++ {
		c := cellAt(pg, i)
		buf := make([]byte, len(c))
		copy(buf, c)
		cells[i] = buf
	}

	allocPtr := uint32(len(data))
	for i := 0; i < n; i++ {
		c := cells[i]
		allocPtr -= uint32(len(c))
		copy(data[allocPtr:], c)
		storage.SetCellPointer(data, i, allocPtr)
	}

	storage.SetAllocPtr(data, allocPtr)
	storage.SetFreeListHead(data, 0)
	storage.SetTotalFreeBytes(data, 0)
	pg.MarkDirty()
	log.WithFields(logrus.Fields{"page": pg.Num, "reclaimed": freedBefore}).Debug("compacted leaf")
}
