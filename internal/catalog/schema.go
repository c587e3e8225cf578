package catalog

import (
	"bytes"
	"fmt"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// encodeSchema packs a storage.Schema into the bytes stored in a catalog
// row's schema_blob column, so a table can be reopened without
// re-parsing DDL. It is independent of storage.SerializeRecord's
// per-row format: this is metadata about a schema, not a row conforming
// to one.
func encodeSchema(schema storage.Schema) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := storage.WriteVarint(&buf, uint64(len(schema.Columns))); err != nil {
		return nil, err
	}
	for _, col := range schema.Columns {
		if _, err := storage.WriteVarint(&buf, uint64(len(col.Name))); err != nil {
			return nil, err
		}
		buf.WriteString(col.Name)
		buf.WriteByte(byte(col.Type))
		flags := byte(0)
		if col.PrimaryKey {
			flags |= 1
		}
		if col.NotNull {
			flags |= 2
		}
		buf.WriteByte(flags)
	}
	return buf.Bytes(), nil
}

// decodeSchema reverses encodeSchema.
func decodeSchema(data []byte) (storage.Schema, error) {
	r := bytes.NewReader(data)
	numCols, _, err := storage.ReadVarint(r)
	if err != nil {
		return storage.Schema{}, fmt.Errorf("decode schema: %w", err)
	}

	cols := make([]storage.ColumnDefinition, 0, numCols)
	for i := uint64(0); i < numCols; i++ {
		nameLen, _, err := storage.ReadVarint(r)
		if err != nil {
			return storage.Schema{}, fmt.Errorf("decode schema column %d name length: %w", i, err)
		}
		nameBytes := make([]byte, nameLen)
		if _, err := r.Read(nameBytes); err != nil {
			return storage.Schema{}, fmt.Errorf("decode schema column %d name: %w", i, err)
		}
		typeByte, err := r.ReadByte()
		if err != nil {
			return storage.Schema{}, fmt.Errorf("decode schema column %d type: %w", i, err)
		}
		flags, err := r.ReadByte()
		if err != nil {
			return storage.Schema{}, fmt.Errorf("decode schema column %d flags: %w", i, err)
		}
		cols = append(cols, storage.ColumnDefinition{
			Name:       string(nameBytes),
			Type:       storage.DataType(typeByte),
			PrimaryKey: flags&1 != 0,
			NotNull:    flags&2 != 0,
		})
	}

	return storage.Schema{Columns: cols}, nil
}

// catalogSchema is the catalog's own fixed schema:
// (pkey INTEGER PRIMARY KEY, name TEXT, root_page INTEGER, sql_text TEXT,
// schema_blob BLOB). schema_blob rides in a TEXT column since the serde
// layer's serial-type table has no distinct BLOB tag and TEXT's byte
// string is already lossless for arbitrary bytes.
var catalogSchema = storage.Schema{
	Columns: []storage.ColumnDefinition{
		{Name: "pkey", Type: storage.TypeInteger, PrimaryKey: true, NotNull: true},
		{Name: "name", Type: storage.TypeText, NotNull: true},
		{Name: "root_page", Type: storage.TypeInteger, NotNull: true},
		{Name: "sql_text", Type: storage.TypeText, NotNull: false},
		{Name: "schema_blob", Type: storage.TypeText, NotNull: true},
	},
}
