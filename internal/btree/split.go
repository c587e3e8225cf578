package btree

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// splitLeafAndInsert replaces old, which did not have room for
// (key, record), with two fresh sibling leaves
// that together hold its cells plus the new one, split so each receives
// roughly half the bytes (the lower-keyed sibling keeps the odd cell out
// on a tie). old is returned to the pager. The new separator is
// propagated upward via internalInsert, splitting ancestors and
// potentially growing a new root.
func (t *Tree) splitLeafAndInsert(old *storage.Page, key int32, record []byte) error {
	n := int(storage.NumCells(old.Data))
	cells := make([][]byte, 0, n+1)
	for i := 0; i < n; i++ {
		c := cellAt(old, i)
		buf := make([]byte, len(c))
		copy(buf, c)
		cells = append(cells, buf)
	}
	cells = append(cells, storage.EncodeCell(key, record))
	sort.Slice(cells, func(i, j int) bool {
		return storage.CellKey(cells[i]) < storage.CellKey(cells[j])
	})

	total := 0
	for _, c := range cells {
		total += len(c)
	}

	half := (total + 1) / 2
	var leftCells, rightCells [][]byte
	acc := 0
	for _, c := range cells {
		if len(leftCells) == 0 || acc < half {
			leftCells = append(leftCells, c)
			acc += len(c)
		} else {
			rightCells = append(rightCells, c)
		}
	}

	wasRoot := storage.IsRoot(old.Data)
	parentNum := storage.ParentPageNum(old.Data)
	oldNext := storage.NextLeaf(old.Data)
	oldNum := old.Num

	pred, err := t.findPredecessorLeaf(oldNum)
	if err != nil {
		return err
	}

	leftPg, err := t.pager.AllocatePage()
	if err != nil {
		return err
	}
	rightPg, err := t.pager.AllocatePage()
	if err != nil {
		return err
	}

	storage.InitLeafHeader(leftPg, parentNum, false)
	storage.InitLeafHeader(rightPg, parentNum, false)
	fillFreshLeaf(leftPg, leftCells)
	fillFreshLeaf(rightPg, rightCells)
	storage.SetNextLeaf(leftPg.Data, rightPg.Num)
	storage.SetNextLeaf(rightPg.Data, oldNext)
	leftPg.MarkDirty()
	rightPg.MarkDirty()
	if pred != nil {
		storage.SetNextLeaf(pred.Data, leftPg.Num)
		pred.MarkDirty()
	}

	leftMax := leafMaxKey(leftPg)

	if err := t.pager.ReturnPage(oldNum); err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{"old": oldNum, "left": leftPg.Num, "right": rightPg.Num}).Debug("split leaf")

	if wasRoot {
		return t.newRootOver(leftPg.Num, rightPg.Num, leftMax)
	}

	return t.internalInsert(parentNum, oldNum, leftMax, leftPg.Num, rightPg.Num)
}

// fillFreshLeaf lays cells out contiguously from the page end into an
// empty leaf, the simple case that never needs the free list.
func fillFreshLeaf(pg *storage.Page, cells [][]byte) {
	allocPtr := uint32(len(pg.Data))
	for i, c := range cells {
		allocPtr -= uint32(len(c))
		copy(pg.Data[allocPtr:], c)
		storage.SetCellPointer(pg.Data, i, allocPtr)
	}
	storage.SetNumCells(pg.Data, uint32(len(cells)))
	storage.SetAllocPtr(pg.Data, allocPtr)
}

// newRootOver allocates a fresh internal root with exactly two children,
// used both when a root leaf splits and when a root internal node splits.
func (t *Tree) newRootOver(left, right storage.PageNum, separator int32) error {
	rootPg, err := t.pager.AllocatePage()
	if err != nil {
		return err
	}
	storage.InitInternalHeader(rootPg, 0, true)
	storage.SetRightChild(rootPg.Data, right)
	insertInternalEntry(rootPg, 0, left, separator)
	rootPg.MarkDirty()

	if err := t.setParent(left, rootPg.Num); err != nil {
		return err
	}
	if err := t.setParent(right, rootPg.Num); err != nil {
		return err
	}

	t.root = rootPg.Num
	return nil
}

func (t *Tree) setParent(child storage.PageNum, parent storage.PageNum) error {
	pg, err := t.pager.GetPage(child)
	if err != nil {
		return err
	}
	storage.SetParentPageNum(pg.Data, parent)
	storage.SetIsRoot(pg.Data, false)
	pg.MarkDirty()
	return nil
}

// internalInsert splices (leftChild, newKey, rightChild) into parentNum's
// packed array in place of oldChild, or splits parentNum if there is no
// room.
func (t *Tree) internalInsert(parentNum, oldChild storage.PageNum, newKey int32, leftChild, rightChild storage.PageNum) error {
	parent, err := t.pager.GetPage(parentNum)
	if err != nil {
		return err
	}

	if err := t.setParent(leftChild, parentNum); err != nil {
		return err
	}
	if err := t.setParent(rightChild, parentNum); err != nil {
		return err
	}

	n := int(storage.NumKeys(parent.Data))
	maxEntries := storage.MaxInternalEntries(t.pager.PageSize())

	if storage.RightChild(parent.Data) == oldChild {
		if n+1 <= maxEntries {
			insertInternalEntry(parent, n, leftChild, newKey)
			storage.SetRightChild(parent.Data, rightChild)
			parent.MarkDirty()
			return nil
		}
		return t.splitInternalAndInsert(parent, oldChild, newKey, leftChild, rightChild)
	}

	idx := -1
	for i := 0; i < n; i++ {
		c, _ := storage.InternalEntry(parent.Data, i)
		if c == oldChild {
			idx = i
			break
		}
	}
	if idx == -1 {
		return &InvariantViolation{Detail: "old child not found among parent's entries during internal insert"}
	}

	if n+1 <= maxEntries {
		oldKey := func() int32 { _, k := storage.InternalEntry(parent.Data, idx); return k }()
		storage.SetInternalEntry(parent.Data, idx, leftChild, newKey)
		insertInternalEntry(parent, idx+1, rightChild, oldKey)
		parent.MarkDirty()
		return nil
	}

	return t.splitInternalAndInsert(parent, oldChild, newKey, leftChild, rightChild)
}

// splitInternalAndInsert handles the case where internalInsert has no
// room: it builds the conceptual n+2-child, n+1-key array that results
// from replacing oldChild with (leftChild, newKey, rightChild),
// then split it across two fresh internal nodes, promoting the median
// key to the grandparent (or to a brand new root).
func (t *Tree) splitInternalAndInsert(old *storage.Page, oldChild storage.PageNum, newKey int32, leftChild, rightChild storage.PageNum) error {
	n := int(storage.NumKeys(old.Data))
	children := make([]storage.PageNum, 0, n+1)
	keys := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		c, k := storage.InternalEntry(old.Data, i)
		children = append(children, c)
		keys = append(keys, k)
	}
	children = append(children, storage.RightChild(old.Data))

	idx := -1
	for i, c := range children {
		if c == oldChild {
			idx = i
			break
		}
	}
	if idx == -1 {
		return &InvariantViolation{Detail: "old child not found while splitting internal node"}
	}

	newChildren := make([]storage.PageNum, 0, len(children)+1)
	newChildren = append(newChildren, children[:idx]...)
	newChildren = append(newChildren, leftChild, rightChild)
	newChildren = append(newChildren, children[idx+1:]...)

	newKeys := make([]int32, 0, len(keys)+1)
	newKeys = append(newKeys, keys[:idx]...)
	newKeys = append(newKeys, newKey)
	newKeys = append(newKeys, keys[idx:]...)

	mid := len(newKeys) / 2
	medianKey := newKeys[mid]

	leftChildren := newChildren[:mid+1]
	leftKeys := newKeys[:mid]
	rightChildren := newChildren[mid+1:]
	rightKeys := newKeys[mid+1:]

	wasRoot := storage.IsRoot(old.Data)
	parentNum := storage.ParentPageNum(old.Data)
	oldNum := old.Num

	leftPg, err := t.pager.AllocatePage()
	if err != nil {
		return err
	}
	rightPg, err := t.pager.AllocatePage()
	if err != nil {
		return err
	}

	storage.InitInternalHeader(leftPg, parentNum, false)
	storage.InitInternalHeader(rightPg, parentNum, false)
	if err := fillInternalPage(t, leftPg, leftChildren, leftKeys); err != nil {
		return err
	}
	if err := fillInternalPage(t, rightPg, rightChildren, rightKeys); err != nil {
		return err
	}

	if err := t.pager.ReturnPage(oldNum); err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{"old": oldNum, "left": leftPg.Num, "right": rightPg.Num}).Debug("split internal node")

	if wasRoot {
		return t.newRootOver(leftPg.Num, rightPg.Num, medianKey)
	}

	return t.internalInsert(parentNum, oldNum, medianKey, leftPg.Num, rightPg.Num)
}

// fillInternalPage writes children/keys (len(children) == len(keys)+1)
// into a freshly initialized internal page and reparents every child to
// point at it.
func fillInternalPage(t *Tree, pg *storage.Page, children []storage.PageNum, keys []int32) error {
	for i, k := range keys {
		storage.SetInternalEntry(pg.Data, i, children[i], k)
	}
	storage.SetNumKeys(pg.Data, uint32(len(keys)))
	storage.SetRightChild(pg.Data, children[len(children)-1])
	pg.MarkDirty()

	for _, c := range children {
		if err := t.setParent(c, pg.Num); err != nil {
			return err
		}
	}
	return nil
}
