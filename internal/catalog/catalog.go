package catalog

import (
	"github.com/armon/go-radix"
	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinydb/internal/btree"
	"github.com/joeandaverde/tinydb/internal/storage"
)

// TableDefinition is one registered table: its schema, its data tree's
// root page, and the DDL text it was created from (kept for display
// only -- nothing in this module parses it back).
type TableDefinition struct {
	Name    string
	Root    storage.PageNum
	SQLText string
	Schema  storage.Schema

	pkey int32
}

// Catalog is the well-known tree at storage.CatalogRootPage listing
// every user table. Table lookups are cached by name
// in an armon/go-radix tree, giving prefix lookups for free alongside
// the usual exact-name hit.
type Catalog struct {
	pager *storage.Pager
	tree  *btree.Tree
	cache *radix.Tree
	next  int32
	log   *logrus.Entry
}

// Open attaches a Catalog to an already-open Pager. The catalog's root
// page is always storage.CatalogRootPage; storage.Open has already
// ensured it exists as an empty leaf for a freshly created database. A
// brand new catalog bootstraps a self-referential row for itself, so
// "catalog" is always a listable table describing its own schema.
func Open(pager *storage.Pager, log *logrus.Entry) (*Catalog, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "catalog")

	c := &Catalog{
		pager: pager,
		tree:  btree.Open(pager, pager.CatalogRoot(), log),
		cache: radix.New(),
		log:   log,
	}

	rows := 0
	cursor, err := c.tree.CursorStart()
	if err != nil {
		return nil, err
	}
	for {
		key, _, ok, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows++
		if key >= c.next {
			c.next = key + 1
		}
		if err := cursor.Advance(); err != nil {
			return nil, err
		}
	}

	if rows == 0 {
		if err := c.bootstrapSelfRow(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// bootstrapSelfRow inserts the catalog's own row, so the catalog
// describes itself the same way it describes every user table.
func (c *Catalog) bootstrapSelfRow() error {
	schemaBlob, err := encodeSchema(catalogSchema)
	if err != nil {
		return err
	}

	pkey := c.next
	c.next++

	record, err := storage.SerializeRecord(catalogSchema, []storage.Value{
		pkey,
		"catalog",
		int32(c.pager.CatalogRoot()),
		"<builtin>",
		string(schemaBlob),
	}, c.pager.PageSize())
	if err != nil {
		return err
	}

	return c.tree.Insert(pkey, record)
}

// CreateTable registers name with schema, allocates a fresh root page
// for its data tree, and inserts its catalog row.
func (c *Catalog) CreateTable(name string, schema storage.Schema, sqlText string) (*TableDefinition, error) {
	_, err := c.Get(name)
	switch err.(type) {
	case nil:
		return nil, &TableExists{Name: name}
	case *TableNotFound:
		// expected: proceed with creation.
	default:
		return nil, err
	}

	dataTree, err := btree.New(c.pager, c.log)
	if err != nil {
		return nil, err
	}

	schemaBlob, err := encodeSchema(schema)
	if err != nil {
		return nil, err
	}

	pkey := c.next
	c.next++

	record, err := storage.SerializeRecord(catalogSchema, []storage.Value{
		pkey,
		name,
		int32(dataTree.RootPage()),
		sqlText,
		string(schemaBlob),
	}, c.pager.PageSize())
	if err != nil {
		return nil, err
	}

	if err := c.tree.Insert(pkey, record); err != nil {
		return nil, err
	}

	td := &TableDefinition{
		Name:    name,
		Root:    dataTree.RootPage(),
		SQLText: sqlText,
		Schema:  schema,
		pkey:    pkey,
	}
	c.cache.Insert(name, td)
	c.log.WithFields(logrus.Fields{"table": name, "root": td.Root}).Info("created table")
	return td, nil
}

// Get returns the registered TableDefinition for name, scanning the
// catalog tree on a cache miss.
func (c *Catalog) Get(name string) (*TableDefinition, error) {
	if v, ok := c.cache.Get(name); ok {
		return v.(*TableDefinition), nil
	}

	cursor, err := c.tree.CursorStart()
	if err != nil {
		return nil, err
	}
	for {
		key, recordBytes, ok, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		values, err := storage.DeserializeRecord(catalogSchema, recordBytes)
		if err != nil {
			return nil, err
		}
		rowName := values[1].(string)
		if rowName == name {
			td, err := tableDefinitionFromRow(key, values)
			if err != nil {
				return nil, err
			}
			c.cache.Insert(name, td)
			return td, nil
		}

		if err := cursor.Advance(); err != nil {
			return nil, err
		}
	}

	return nil, &TableNotFound{Name: name}
}

// List returns every registered table, in catalog pkey order.
func (c *Catalog) List() ([]*TableDefinition, error) {
	cursor, err := c.tree.CursorStart()
	if err != nil {
		return nil, err
	}

	var out []*TableDefinition
	for {
		key, recordBytes, ok, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		values, err := storage.DeserializeRecord(catalogSchema, recordBytes)
		if err != nil {
			return nil, err
		}
		td, err := tableDefinitionFromRow(key, values)
		if err != nil {
			return nil, err
		}
		out = append(out, td)
		if err := cursor.Advance(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DropTable removes name's catalog row and returns every page of its
// data tree to the pager.
func (c *Catalog) DropTable(name string) error {
	td, err := c.Get(name)
	if err != nil {
		return err
	}

	dataTree := btree.Open(c.pager, td.Root, c.log)
	pages, err := dataTree.Validate()
	if err != nil {
		return err
	}
	for pn := range pages {
		if err := c.pager.ReturnPage(pn); err != nil {
			return err
		}
	}

	if err := c.tree.Delete(td.pkey); err != nil {
		return err
	}
	c.cache.Delete(name)
	c.log.WithField("table", name).Info("dropped table")
	return nil
}

// DataTree opens a btree.Tree handle for td's backing storage.
func (c *Catalog) DataTree(td *TableDefinition) *btree.Tree {
	return btree.Open(c.pager, td.Root, c.log)
}

func tableDefinitionFromRow(pkey int32, values []storage.Value) (*TableDefinition, error) {
	name := values[1].(string)
	rootPage := storage.PageNum(values[2].(int32))
	var sqlText string
	if values[3] != nil {
		sqlText = values[3].(string)
	}
	schema, err := decodeSchema([]byte(values[4].(string)))
	if err != nil {
		return nil, err
	}
	return &TableDefinition{
		Name:    name,
		Root:    rootPage,
		SQLText: sqlText,
		Schema:  schema,
		pkey:    pkey,
	}, nil
}
