package btree

import (
	"github.com/joeandaverde/tinydb/internal/storage"
)

// leafSearch binary-searches a leaf's cell-pointer array for key using
// CellKey as the decoding hook. It returns the index of
// an exact match, and found=true, or the index key would occupy if
// inserted (found=false).
func leafSearch(pg *storage.Page, key int32) (index int, found bool) {
	n := int(storage.NumCells(pg.Data))
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		k := storage.CellKey(cellAt(pg, mid))
		if k == key {
			return mid, true
		}
		if k < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, false
}

// internalSearch binary-searches an internal node's packed (child, key)
// array for the least index i such that key <= key_i. It returns that
// index and the child page to descend into -- either child_ptr_i or, if
// no such i exists, the right child.
func internalSearch(pg *storage.Page, key int32) (index int, child storage.PageNum) {
	n := int(storage.NumKeys(pg.Data))
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		_, k := storage.InternalEntry(pg.Data, mid)
		if key <= k {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == n {
		return n, storage.RightChild(pg.Data)
	}
	c, _ := storage.InternalEntry(pg.Data, lo)
	return lo, c
}
