package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeandaverde/tinydb/internal/storage"
)

func TestEncodeDecodeSchemaRoundTrip(t *testing.T) {
	r := require.New(t)
	schema := storage.Schema{Columns: []storage.ColumnDefinition{
		{Name: "id", Type: storage.TypeInteger, PrimaryKey: true, NotNull: true},
		{Name: "name", Type: storage.TypeText, NotNull: true},
		{Name: "score", Type: storage.TypeReal},
		{Name: "active", Type: storage.TypeBool, NotNull: true},
	}}

	encoded, err := encodeSchema(schema)
	r.NoError(err)

	decoded, err := decodeSchema(encoded)
	r.NoError(err)
	r.Equal(schema, decoded)
}

func TestEncodeDecodeSingleColumnSchema(t *testing.T) {
	r := require.New(t)
	schema := storage.Schema{Columns: []storage.ColumnDefinition{
		{Name: "id", Type: storage.TypeInteger, PrimaryKey: true, NotNull: true},
	}}

	encoded, err := encodeSchema(schema)
	r.NoError(err)
	decoded, err := decodeSchema(encoded)
	r.NoError(err)
	r.Equal(schema, decoded)
}
