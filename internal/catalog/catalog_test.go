package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeandaverde/tinydb/internal/storage"
)

func newTestCatalog(t *testing.T) *Catalog {
	path := filepath.Join(t.TempDir(), "catalog.db")
	pager, err := storage.Open(path, storage.DefaultPageSize, 0, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { pager.Close() })

	cat, err := Open(pager, nil)
	require.NoError(t, err)
	return cat
}

func simpleSchema() storage.Schema {
	return storage.Schema{Columns: []storage.ColumnDefinition{
		{Name: "id", Type: storage.TypeInteger, PrimaryKey: true, NotNull: true},
		{Name: "label", Type: storage.TypeText},
	}}
}

func TestCreateAndGetTable(t *testing.T) {
	r := require.New(t)
	cat := newTestCatalog(t)

	td, err := cat.CreateTable("widgets", simpleSchema(), "CREATE TABLE widgets (...)")
	r.NoError(err)
	r.Equal("widgets", td.Name)

	got, err := cat.Get("widgets")
	r.NoError(err)
	r.Equal(td.Name, got.Name)
	r.Equal(td.Root, got.Root)
	r.Equal(td.Schema, got.Schema)
}

func TestCreateTableDuplicateFails(t *testing.T) {
	r := require.New(t)
	cat := newTestCatalog(t)

	_, err := cat.CreateTable("widgets", simpleSchema(), "")
	r.NoError(err)

	_, err = cat.CreateTable("widgets", simpleSchema(), "")
	r.Error(err)
	r.IsType(&TableExists{}, err)
}

func TestGetUnknownTableFails(t *testing.T) {
	r := require.New(t)
	cat := newTestCatalog(t)

	_, err := cat.Get("nope")
	r.Error(err)
	r.IsType(&TableNotFound{}, err)
}

func TestListTablesInCreationOrder(t *testing.T) {
	r := require.New(t)
	cat := newTestCatalog(t)

	_, err := cat.CreateTable("a", simpleSchema(), "")
	r.NoError(err)
	_, err = cat.CreateTable("b", simpleSchema(), "")
	r.NoError(err)
	_, err = cat.CreateTable("c", simpleSchema(), "")
	r.NoError(err)

	tables, err := cat.List()
	r.NoError(err)
	r.Len(tables, 4)
	r.Equal([]string{"catalog", "a", "b", "c"},
		[]string{tables[0].Name, tables[1].Name, tables[2].Name, tables[3].Name})
}

func TestCatalogSelfRegisters(t *testing.T) {
	r := require.New(t)
	cat := newTestCatalog(t)

	self, err := cat.Get("catalog")
	r.NoError(err)
	r.Equal("catalog", self.Name)
	r.Equal(catalogSchema, self.Schema)
}

func TestDropTableRemovesItAndReclaimsPages(t *testing.T) {
	r := require.New(t)
	cat := newTestCatalog(t)

	td, err := cat.CreateTable("widgets", simpleSchema(), "")
	r.NoError(err)

	dataTree := cat.DataTree(td)
	for i := int32(0); i < 50; i++ {
		record, err := storage.SerializeRecord(simpleSchema(), []storage.Value{i, "x"}, storage.DefaultPageSize)
		r.NoError(err)
		r.NoError(dataTree.Insert(i, record))
	}

	r.NoError(cat.DropTable("widgets"))

	_, err = cat.Get("widgets")
	r.Error(err)
	r.IsType(&TableNotFound{}, err)
}

func TestCatalogReopenRecoversNextPrimaryKey(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "catalog.db")
	pager, err := storage.Open(path, storage.DefaultPageSize, 0, 0, nil)
	r.NoError(err)

	cat, err := Open(pager, nil)
	r.NoError(err)
	_, err = cat.CreateTable("a", simpleSchema(), "")
	r.NoError(err)
	_, err = cat.CreateTable("b", simpleSchema(), "")
	r.NoError(err)
	r.NoError(pager.Close())

	pager2, err := storage.Open(path, storage.DefaultPageSize, 0, 0, nil)
	r.NoError(err)
	defer pager2.Close()
	cat2, err := Open(pager2, nil)
	r.NoError(err)

	_, err = cat2.CreateTable("c", simpleSchema(), "")
	r.NoError(err)

	tables, err := cat2.List()
	r.NoError(err)
	r.Len(tables, 4) // self row + a, b, c
}
