package btree

import (
	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// Tree is an ordered key -> record store over the pages of a single
// Pager, rooted at a fixed page number. Catalog and user tables are both
// trees; the catalog's happens to live at storage.CatalogRootPage.
//
// Keys are signed 4-byte integers; values are already-serialized record
// bytes produced by storage.SerializeRecord. Tree itself knows nothing
// about schemas.
type Tree struct {
	pager *storage.Pager
	root  storage.PageNum
	log   *logrus.Entry
	// generation is bumped on every successful Insert or Delete: any
	// mutation invalidates outstanding cursors.
	generation uint64
}

// Open wraps an existing tree rooted at root. A nil log defaults to
// logrus's standard logger, the same fallback storage.Open and
// catalog.Open use.
func Open(pager *storage.Pager, root storage.PageNum, log *logrus.Entry) *Tree {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tree{pager: pager, root: root, log: log.WithField("component", "btree")}
}

// New allocates a fresh page for a new, empty tree and returns a handle
// to it. Used by catalog.CreateTable.
func New(pager *storage.Pager, log *logrus.Entry) (*Tree, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "btree")

	pg, err := pager.AllocatePage()
	if err != nil {
		return nil, err
	}
	storage.InitLeafHeader(pg, 0, true)
	log.WithField("root", pg.Num).Debug("created new tree")
	return &Tree{pager: pager, root: pg.Num, log: log}, nil
}

// RootPage returns the tree's root page number. It stays the same for the
// life of the tree: a root split returns the old root page to the pager
// just before allocating the new root, which therefore reuses it, and a
// Delete that collapses the root copies its only child into the root page.
func (t *Tree) RootPage() storage.PageNum {
	return t.root
}

// Find returns the record stored under key, or NotFound.
func (t *Tree) Find(key int32) ([]byte, error) {
	leaf, err := t.descendToLeaf(key)
	if err != nil {
		return nil, err
	}
	idx, found := leafSearch(leaf, key)
	if !found {
		return nil, &NotFound{Key: key}
	}
	record := storage.CellRecord(cellAt(leaf, idx))
	out := make([]byte, len(record))
	copy(out, record)
	return out, nil
}

// Insert adds (key, record) to the tree. An existing key always fails
// with DuplicateKey; callers wanting update semantics must Delete then
// Insert.
func (t *Tree) Insert(key int32, record []byte) error {
	maxCell := storage.MaxCellSize(t.pager.PageSize())
	if len(record) > maxCell-storage.CellHeaderSize {
		return &storage.TooLarge{Size: len(record) + storage.CellHeaderSize, MaxSize: maxCell}
	}

	leaf, err := t.descendToLeaf(key)
	if err != nil {
		return err
	}
	idx, found := leafSearch(leaf, key)
	if found {
		return &DuplicateKey{Key: key}
	}

	if tryInsertIntoLeaf(t.log, leaf, idx, key, record) {
		t.generation++
		if idx == int(storage.NumCells(leaf.Data))-1 {
			if err := t.updateAncestorSeparator(leaf.Num, key); err != nil {
				return err
			}
		}
		return nil
	}

	if err := t.splitLeafAndInsert(leaf, key, record); err != nil {
		return err
	}
	t.generation++
	return nil
}

// Delete removes key from the tree, or fails with NotFound.
func (t *Tree) Delete(key int32) error {
	leaf, err := t.descendToLeaf(key)
	if err != nil {
		return err
	}
	idx, found := leafSearch(leaf, key)
	if !found {
		return &NotFound{Key: key}
	}

	if err := t.deleteFromLeaf(leaf, idx); err != nil {
		return err
	}
	t.generation++
	return nil
}

// descendToLeaf walks from the root to the leaf that would contain key.
func (t *Tree) descendToLeaf(key int32) (*storage.Page, error) {
	pg, err := t.pager.GetPage(t.root)
	if err != nil {
		return nil, err
	}

	for storage.NodeTypeOf(pg.Data) == storage.NodeTypeInternal {
		_, child := internalSearch(pg, key)
		pg, err = t.pager.GetPage(child)
		if err != nil {
			return nil, err
		}
	}

	return pg, nil
}

// updateAncestorSeparator repairs separators after childPage's maximum
// key changes to newMaxKey. Only the right spine of ancestors -- nodes
// for which childPage is reached via the right_child pointer, or the
// initial parent slot itself -- needs updating; a regular indexed entry
// never participates in its parent's own maximum.
func (t *Tree) updateAncestorSeparator(childPage storage.PageNum, newMaxKey int32) error {
	child, err := t.pager.GetPage(childPage)
	if err != nil {
		return err
	}
	if storage.IsRoot(child.Data) {
		return nil
	}

	parentNum := storage.ParentPageNum(child.Data)
	parent, err := t.pager.GetPage(parentNum)
	if err != nil {
		return err
	}

	if storage.RightChild(parent.Data) == childPage {
		return t.updateAncestorSeparator(parentNum, newMaxKey)
	}

	n := int(storage.NumKeys(parent.Data))
	for i := 0; i < n; i++ {
		c, _ := storage.InternalEntry(parent.Data, i)
		if c == childPage {
			storage.SetInternalEntry(parent.Data, i, c, newMaxKey)
			parent.MarkDirty()
			return nil
		}
	}

	return &InvariantViolation{Detail: "child page not found among parent's entries"}
}
