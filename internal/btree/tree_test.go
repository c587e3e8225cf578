package btree

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeandaverde/tinydb/internal/storage"
)

func newTestTree(t *testing.T) (*Tree, *storage.Pager) {
	path := filepath.Join(t.TempDir(), "tree.db")
	pager, err := storage.Open(path, storage.DefaultPageSize, 0, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { pager.Close() })

	tree, err := New(pager, testLog)
	require.NoError(t, err)
	return tree, pager
}

func recordFor(key int32) []byte {
	return []byte(fmt.Sprintf("value-%d-%s", key, string(make([]byte, 8))))
}

func TestInsertAndFindSingle(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	r.NoError(tree.Insert(1, recordFor(1)))
	got, err := tree.Find(1)
	r.NoError(err)
	r.Equal(recordFor(1), got)
}

func TestFindMissingKey(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	r.NoError(tree.Insert(1, recordFor(1)))
	_, err := tree.Find(2)
	r.Error(err)
	r.IsType(&NotFound{}, err)
}

func TestInsertDuplicateKeyFails(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	r.NoError(tree.Insert(5, recordFor(5)))
	err := tree.Insert(5, recordFor(5))
	r.Error(err)
	r.IsType(&DuplicateKey{}, err)
}

func TestDeleteMissingKeyFails(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	err := tree.Delete(99)
	r.Error(err)
	r.IsType(&NotFound{}, err)
}

func TestInsertManyTriggersSplitsAndStaysValid(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	const n = 2000
	for i := int32(0); i < n; i++ {
		r.NoError(tree.Insert(i, recordFor(i)))
	}

	for i := int32(0); i < n; i++ {
		got, err := tree.Find(i)
		r.NoError(err)
		r.Equal(recordFor(i), got)
	}

	_, err := tree.Validate()
	r.NoError(err)
}

func TestInsertRandomOrderStaysValid(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	const n = 1500
	keys := rand.New(rand.NewSource(42)).Perm(n)
	for _, k := range keys {
		r.NoError(tree.Insert(int32(k), recordFor(int32(k))))
	}

	for i := int32(0); i < int32(n); i++ {
		got, err := tree.Find(i)
		r.NoError(err)
		r.Equal(recordFor(i), got)
	}

	_, err := tree.Validate()
	r.NoError(err)
}

func TestDeleteAllKeysEmptiesTree(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	const n = 500
	for i := int32(0); i < n; i++ {
		r.NoError(tree.Insert(i, recordFor(i)))
	}
	for i := int32(0); i < n; i++ {
		r.NoError(tree.Delete(i))
		if i%50 == 0 {
			_, err := tree.Validate()
			r.NoError(err)
		}
	}

	_, err := tree.Validate()
	r.NoError(err)

	for i := int32(0); i < n; i++ {
		_, err := tree.Find(i)
		r.Error(err)
	}
}

func TestDeleteInterleavedWithInsert(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	const n = 800
	for i := int32(0); i < n; i++ {
		r.NoError(tree.Insert(i, recordFor(i)))
	}

	// Delete every other key.
	for i := int32(0); i < n; i += 2 {
		r.NoError(tree.Delete(i))
	}
	_, err := tree.Validate()
	r.NoError(err)

	for i := int32(0); i < n; i++ {
		got, err := tree.Find(i)
		if i%2 == 0 {
			r.Error(err)
		} else {
			r.NoError(err)
			r.Equal(recordFor(i), got)
		}
	}

	// Reinsert the deleted keys.
	for i := int32(0); i < n; i += 2 {
		r.NoError(tree.Insert(i, recordFor(i)))
	}
	_, err = tree.Validate()
	r.NoError(err)
	for i := int32(0); i < n; i++ {
		got, err := tree.Find(i)
		r.NoError(err)
		r.Equal(recordFor(i), got)
	}
}

func TestDeleteDescendingOrder(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	const n = 600
	for i := int32(0); i < n; i++ {
		r.NoError(tree.Insert(i, recordFor(i)))
	}
	for i := int32(n - 1); i >= 0; i-- {
		r.NoError(tree.Delete(i))
	}
	_, err := tree.Validate()
	r.NoError(err)
}

func TestInsertLargeRecordTooLarge(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	big := make([]byte, storage.MaxCellSize(storage.DefaultPageSize)*2)
	err := tree.Insert(1, big)
	r.Error(err)
	r.IsType(&storage.TooLarge{}, err)
}

func TestCursorScanAscending(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	const n = 300
	order := rand.New(rand.NewSource(7)).Perm(n)
	for _, k := range order {
		r.NoError(tree.Insert(int32(k), recordFor(int32(k))))
	}

	cursor, err := tree.CursorStart()
	r.NoError(err)

	var seen []int32
	for {
		key, record, ok, err := cursor.Value()
		r.NoError(err)
		if !ok {
			break
		}
		r.Equal(recordFor(key), record)
		seen = append(seen, key)
		r.NoError(cursor.Advance())
	}

	r.Len(seen, n)
	for i := 1; i < len(seen); i++ {
		r.Less(seen[i-1], seen[i])
	}
}

func TestCursorInvalidatedByMutation(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	r.NoError(tree.Insert(1, recordFor(1)))
	r.NoError(tree.Insert(2, recordFor(2)))

	cursor, err := tree.CursorStart()
	r.NoError(err)

	r.NoError(tree.Insert(3, recordFor(3)))

	_, _, _, err = cursor.Value()
	r.Error(err)
	r.IsType(&ErrCursorInvalidated{}, err)

	err = cursor.Advance()
	r.Error(err)
	r.IsType(&ErrCursorInvalidated{}, err)
}

func TestCursorEmptyTree(t *testing.T) {
	r := require.New(t)
	tree, _ := newTestTree(t)

	cursor, err := tree.CursorStart()
	r.NoError(err)
	_, _, ok, err := cursor.Value()
	r.NoError(err)
	r.False(ok)
}

func TestOpenReopensExistingTree(t *testing.T) {
	r := require.New(t)
	tree, pager := newTestTree(t)

	r.NoError(tree.Insert(10, recordFor(10)))
	root := tree.RootPage()

	reopened := Open(pager, root, testLog)
	got, err := reopened.Find(10)
	r.NoError(err)
	r.Equal(recordFor(10), got)
}
