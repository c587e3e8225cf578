package btree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// TestSplitLeafTiesGoToLowerKeyedSibling covers the byte-balancing
// tie-break directly: five equal-size cells can't split evenly between
// two siblings, and the lower-keyed sibling must keep the extra cell.
func TestSplitLeafTiesGoToLowerKeyedSibling(t *testing.T) {
	r := require.New(t)
	tree, pager := newTestTree(t)

	rec := func(n int32) []byte { return []byte(fmt.Sprintf("value-%02d", n)) }

	leaf, err := pager.GetPage(tree.RootPage())
	r.NoError(err)

	var cells [][]byte
	for _, k := range []int32{10, 20, 30, 40} {
		cells = append(cells, storage.EncodeCell(k, rec(k)))
	}
	fillFreshLeaf(leaf, cells)
	leaf.MarkDirty()

	r.NoError(tree.splitLeafAndInsert(leaf, 25, rec(25)))

	left, err := tree.descendToLeaf(10)
	r.NoError(err)
	right, err := tree.descendToLeaf(40)
	r.NoError(err)

	r.NotEqual(left.Num, right.Num)
	r.EqualValues(3, storage.NumCells(left.Data))
	r.EqualValues(2, storage.NumCells(right.Data))
	r.EqualValues(25, leafMaxKey(left))
	r.EqualValues(30, storage.CellKey(cellAt(right, 0)))
}
