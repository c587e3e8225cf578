package btree

import (
	"github.com/joeandaverde/tinydb/internal/storage"
)

// Cursor is a stateful ascending-key iterator over a Tree's leaves. It is
// invalidated by any subsequent Insert or Delete on the tree that created
// it; Value and Advance detect this via a generation counter rather than
// leaving the caller to simply not misuse it.
type Cursor struct {
	tree       *Tree
	generation uint64
	pageNum    storage.PageNum
	cellIndex  int
	endOfTable bool
}

// CursorStart returns a cursor positioned at the tree's first key.
func (t *Tree) CursorStart() (*Cursor, error) {
	pg, err := t.leftmostLeaf()
	if err != nil {
		return nil, err
	}
	return &Cursor{
		tree:       t,
		generation: t.generation,
		pageNum:    pg.Num,
		cellIndex:  0,
		endOfTable: storage.NumCells(pg.Data) == 0,
	}, nil
}

// CursorAt returns a cursor positioned at key if present, or at the slot
// where it would be inserted.
func (t *Tree) CursorAt(key int32) (*Cursor, error) {
	leaf, err := t.descendToLeaf(key)
	if err != nil {
		return nil, err
	}
	idx, _ := leafSearch(leaf, key)
	return &Cursor{
		tree:       t,
		generation: t.generation,
		pageNum:    leaf.Num,
		cellIndex:  idx,
		endOfTable: idx >= int(storage.NumCells(leaf.Data)),
	}, nil
}

func (t *Tree) leftmostLeaf() (*storage.Page, error) {
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
	return pg, nil
}

func (c *Cursor) checkGeneration() error {
	if c.generation != c.tree.generation {
		return &ErrCursorInvalidated{}
	}
	return nil
}

// Value returns the (key, record) pair at the cursor's current position,
// or ok=false if the cursor has run off the end of the table.
func (c *Cursor) Value() (key int32, record []byte, ok bool, err error) {
	if err = c.checkGeneration(); err != nil {
		return 0, nil, false, err
	}
	if c.endOfTable {
		return 0, nil, false, nil
	}

	pg, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return 0, nil, false, err
	}
	cell := cellAt(pg, c.cellIndex)
	out := make([]byte, storage.CellValueSize(cell))
	copy(out, storage.CellRecord(cell))
	return storage.CellKey(cell), out, true, nil
}

// Advance moves the cursor to the next key in ascending order, following
// next_leaf across page boundaries. It sets end-of-table once the last
// leaf is exhausted.
func (c *Cursor) Advance() error {
	if err := c.checkGeneration(); err != nil {
		return err
	}
	if c.endOfTable {
		return nil
	}

	pg, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return err
	}

	c.cellIndex++
	if c.cellIndex < int(storage.NumCells(pg.Data)) {
		return nil
	}

	next := storage.NextLeaf(pg.Data)
	if next == 0 {
		c.endOfTable = true
		return nil
	}
	c.pageNum = next
	c.cellIndex = 0

	nextPg, err := c.tree.pager.GetPage(next)
	if err != nil {
		return err
	}
	if storage.NumCells(nextPg.Data) == 0 {
		c.endOfTable = true
	}
	return nil
}
