package btree

import (
	"github.com/joeandaverde/tinydb/internal/storage"
)

// deleteFromLeaf removes the cell at index idx from leaf: frees its
// bytes onto the intra-page free list, drops its cell pointer, fixes up
// the ancestor separator if the removed key was the leaf's max, and
// compacts the leaf if fragmentation has grown past the threshold.
func (t *Tree) deleteFromLeaf(leaf *storage.Page, idx int) error {
	n := int(storage.NumCells(leaf.Data))
	wasMax := idx == n-1

	cellOff := storage.CellPointer(leaf.Data, idx)
	cellSize := uint32(storage.CellSize(cellAt(leaf, idx)))
	pushFreeBlock(leaf, cellOff, cellSize)
	removeCellPointer(leaf, idx)
	leaf.MarkDirty()

	if storage.NumCells(leaf.Data) == 0 {
		return t.collapseEmptyLeaf(leaf)
	}

	if wasMax {
		if err := t.updateAncestorSeparator(leaf.Num, leafMaxKey(leaf)); err != nil {
			return err
		}
	}

	pageSize := t.pager.PageSize()
	occupied := storage.LeafHeaderSize + int(storage.NumCells(leaf.Data))*storage.CellPointerSize + leafByteSize(leaf)
	compactionTrigger := int(float64(pageSize) * t.pager.CompactionThreshold())
	if int(storage.TotalFreeBytes(leaf.Data)) > compactionTrigger && occupied < pageSize/2 {
		compactLeaf(t.log, leaf)
	}

	return nil
}

// collapseEmptyLeaf handles a leaf with zero cells: it either empties the
// whole tree (root case) or is unlinked from
// the sibling chain and removed from its parent, recursing upward
// through any resulting zeroary/unary internal nodes.
func (t *Tree) collapseEmptyLeaf(leaf *storage.Page) error {
	if storage.IsRoot(leaf.Data) {
		storage.InitLeafHeader(leaf, 0, true)
		return nil
	}

	pred, err := t.findPredecessorLeaf(leaf.Num)
	if err != nil {
		return err
	}
	if pred != nil {
		storage.SetNextLeaf(pred.Data, storage.NextLeaf(leaf.Data))
		pred.MarkDirty()
	}

	parentNum := storage.ParentPageNum(leaf.Data)
	leafNum := leaf.Num
	if err := t.removeChildFromParent(parentNum, leafNum); err != nil {
		return err
	}
	t.log.WithField("page", leafNum).Debug("collapsed empty leaf")
	return t.pager.ReturnPage(leafNum)
}

// findPredecessorLeaf walks the sibling chain from the tree's leftmost
// leaf looking for the leaf whose next_leaf is target. Returns nil if
// target is itself the leftmost leaf.
func (t *Tree) findPredecessorLeaf(target storage.PageNum) (*storage.Page, error) {
	pg, err := t.pager.GetPage(t.root)
	if err != nil {
		return nil, err
	}
	for storage.NodeTypeOf(pg.Data) == storage.NodeTypeInternal {
		var child storage.PageNum
		if storage.NumKeys(pg.Data) > 0 {
			child, _ = storage.InternalEntry(pg.Data, 0)
		} else {
			child = storage.RightChild(pg.Data)
		}
		pg, err = t.pager.GetPage(child)
		if err != nil {
			return nil, err
		}
	}

	if pg.Num == target {
		return nil, nil
	}
	for storage.NextLeaf(pg.Data) != target {
		next := storage.NextLeaf(pg.Data)
		if next == 0 {
			return nil, &InvariantViolation{Detail: "leaf not reachable from leftmost leaf via next_leaf chain"}
		}
		pg, err = t.pager.GetPage(next)
		if err != nil {
			return nil, err
		}
	}
	return pg, nil
}

// removeChildFromParent removes childNum from parentNum's entries (or
// its right_child slot), propagates a right-spine separator change
// upward if needed, and recursively collapses parentNum itself if it
// becomes zeroary (root case: its lone child is copied into the root page) or
// needs splicing out as a now-unary node.
func (t *Tree) removeChildFromParent(parentNum, childNum storage.PageNum) error {
	parent, err := t.pager.GetPage(parentNum)
	if err != nil {
		return err
	}

	var propagateKey *int32
	if storage.RightChild(parent.Data) == childNum {
		n := int(storage.NumKeys(parent.Data))
		if n == 0 {
			storage.SetRightChild(parent.Data, 0)
		} else {
			lastChild, lastKey := storage.InternalEntry(parent.Data, n-1)
			removeInternalEntry(parent, n-1)
			storage.SetRightChild(parent.Data, lastChild)
			k := lastKey
			propagateKey = &k
		}
	} else {
		n := int(storage.NumKeys(parent.Data))
		idx := -1
		for i := 0; i < n; i++ {
			c, _ := storage.InternalEntry(parent.Data, i)
			if c == childNum {
				idx = i
				break
			}
		}
		if idx == -1 {
			return &InvariantViolation{Detail: "child not found in parent during delete"}
		}
		removeInternalEntry(parent, idx)
	}
	parent.MarkDirty()

	if storage.NumKeys(parent.Data) > 0 {
		if propagateKey != nil {
			return t.updateAncestorSeparator(parentNum, *propagateKey)
		}
		return nil
	}

	// Zeroary: parent now has at most one child, reachable via right_child.
	onlyChild := storage.RightChild(parent.Data)

	if storage.IsRoot(parent.Data) {
		if onlyChild == 0 {
			storage.InitLeafHeader(parent, 0, true)
			return nil
		}
		child, err := t.pager.GetPage(onlyChild)
		if err != nil {
			return err
		}
		// Pull the only child up into the root page so the root page number stays fixed.
		copy(parent.Data, child.Data)
		storage.SetIsRoot(parent.Data, true)
		storage.SetParentPageNum(parent.Data, 0)
		parent.MarkDirty()
		if storage.NodeTypeOf(parent.Data) == storage.NodeTypeInternal {
			n := int(storage.NumKeys(parent.Data))
			for i := 0; i <= n; i++ {
				c := storage.RightChild(parent.Data)
				if i < n {
					c, _ = storage.InternalEntry(parent.Data, i)
				}
				if err := t.setParent(c, parentNum); err != nil {
					return err
				}
			}
		}
		return t.pager.ReturnPage(onlyChild)
	}

	grandparent := storage.ParentPageNum(parent.Data)
	if err := t.replaceChildPointer(grandparent, parentNum, onlyChild); err != nil {
		return err
	}
	if err := t.setParent(onlyChild, grandparent); err != nil {
		return err
	}
	return t.pager.ReturnPage(parentNum)
}

// replaceChildPointer rewrites the entry (or right_child slot) of pageNum
// that points at oldChild to point at newChild instead, preserving
// whatever separator key the slot already carried.
func (t *Tree) replaceChildPointer(pageNum, oldChild, newChild storage.PageNum) error {
	pg, err := t.pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	if storage.RightChild(pg.Data) == oldChild {
		storage.SetRightChild(pg.Data, newChild)
		pg.MarkDirty()
		return nil
	}
	n := int(storage.NumKeys(pg.Data))
	for i := 0; i < n; i++ {
		c, k := storage.InternalEntry(pg.Data, i)
		if c == oldChild {
			storage.SetInternalEntry(pg.Data, i, newChild, k)
			pg.MarkDirty()
			return nil
		}
	}
	return &InvariantViolation{Detail: "old child not found while splicing out a unary node"}
}
