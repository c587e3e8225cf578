package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinydb/internal/btree"
	"github.com/joeandaverde/tinydb/internal/catalog"
	"github.com/joeandaverde/tinydb/internal/engineconfig"
	"github.com/joeandaverde/tinydb/internal/storage"
)

// Engine is the top-level handle to one open database file: it owns the
// pager and the catalog and exposes table-level operations that
// translate into tree operations.
type Engine struct {
	config  engineconfig.Config
	pager   *storage.Pager
	catalog *catalog.Catalog
	log     *logrus.Entry
}

// Row is a decoded record paired with the key it was stored under.
type Row struct {
	Key    int32
	Values []storage.Value
}

// Start opens (or initializes) the database file named by config.Path
// and attaches its catalog.
func Start(config engineconfig.Config, log *logrus.Entry) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithFields(config.LogFields())
	log.Info("starting database engine")

	pager, err := storage.Open(config.Path, config.PageSize, config.CompactionThreshold, config.CacheSizeHint, log)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(pager, log)
	if err != nil {
		pager.Close()
		return nil, err
	}

	return &Engine{config: config, pager: pager, catalog: cat, log: log}, nil
}

// Close flushes and releases the database file.
func (e *Engine) Close() error {
	e.log.Info("stopping database engine")
	return e.pager.Close()
}

// CreateTable registers a new table and allocates its data tree's root
// page.
func (e *Engine) CreateTable(name string, schema storage.Schema, sqlText string) (*catalog.TableDefinition, error) {
	return e.catalog.CreateTable(name, schema, sqlText)
}

// DropTable removes a table and reclaims its pages.
func (e *Engine) DropTable(name string) error {
	return e.catalog.DropTable(name)
}

// ListTables returns every registered table.
func (e *Engine) ListTables() ([]*catalog.TableDefinition, error) {
	return e.catalog.List()
}

// GetTable returns a registered table's definition, for callers that
// need its schema before encoding a row (e.g. the CLI).
func (e *Engine) GetTable(name string) (*catalog.TableDefinition, error) {
	return e.catalog.Get(name)
}

// Insert encodes values under table's schema and inserts them keyed by
// the schema's primary key column's value.
func (e *Engine) Insert(table string, values []storage.Value) error {
	td, err := e.catalog.Get(table)
	if err != nil {
		return err
	}

	pkIdx := td.Schema.PrimaryKeyIndex()
	if pkIdx < 0 {
		return fmt.Errorf("table %q has no primary key column", table)
	}
	key, ok := values[pkIdx].(int32)
	if !ok {
		return fmt.Errorf("table %q primary key value must be an int32", table)
	}

	record, err := storage.SerializeRecord(td.Schema, values, e.pager.PageSize())
	if err != nil {
		return err
	}

	return e.catalog.DataTree(td).Insert(key, record)
}

// Get returns the decoded row stored under key in table.
func (e *Engine) Get(table string, key int32) (Row, error) {
	td, err := e.catalog.Get(table)
	if err != nil {
		return Row{}, err
	}

	recordBytes, err := e.catalog.DataTree(td).Find(key)
	if err != nil {
		return Row{}, err
	}
	values, err := storage.DeserializeRecord(td.Schema, recordBytes)
	if err != nil {
		return Row{}, err
	}
	return Row{Key: key, Values: values}, nil
}

// Delete removes the row stored under key in table.
func (e *Engine) Delete(table string, key int32) error {
	td, err := e.catalog.Get(table)
	if err != nil {
		return err
	}
	return e.catalog.DataTree(td).Delete(key)
}

// Scan returns every row of table in ascending key order via a cursor.
func (e *Engine) Scan(table string) ([]Row, error) {
	td, err := e.catalog.Get(table)
	if err != nil {
		return nil, err
	}

	tree := e.catalog.DataTree(td)
	cursor, err := tree.CursorStart()
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		key, recordBytes, ok, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		values, err := storage.DeserializeRecord(td.Schema, recordBytes)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Key: key, Values: values})
		if err := cursor.Advance(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Validate walks every table's tree and cross-checks the union of their
// live pages against the pager's on-disk free-page list.
func (e *Engine) Validate() error {
	tables, err := e.catalog.List()
	if err != nil {
		return err
	}

	live := map[storage.PageNum]bool{storage.FileHeaderPage: true}
	catalogTree := btree.Open(e.pager, e.pager.CatalogRoot(), e.log)
	catalogPages, err := catalogTree.Validate()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	for pn := range catalogPages {
		live[pn] = true
	}

	for _, td := range tables {
		if td.Root == e.pager.CatalogRoot() {
			// The catalog's self-referential row describes the same
			// tree already walked above; skip it here.
			continue
		}
		pages, err := e.catalog.DataTree(td).Validate()
		if err != nil {
			return fmt.Errorf("table %q: %w", td.Name, err)
		}
		for pn := range pages {
			if live[pn] {
				return &btree.InvariantViolation{Detail: fmt.Sprintf("page %d is live in more than one tree", pn)}
			}
			live[pn] = true
		}
	}

	free, err := e.pager.ReachableFreePages()
	if err != nil {
		return err
	}
	for pn := range free {
		if live[pn] {
			return &btree.InvariantViolation{Detail: fmt.Sprintf("page %d is both live and on the free-page list", pn)}
		}
	}

	total := e.pager.NumPages()
	if len(live)+len(free) != total {
		return &btree.InvariantViolation{Detail: fmt.Sprintf(
			"live (%d) + free (%d) pages does not cover all %d pages in the file", len(live), len(free), total)}
	}

	return nil
}
