package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{Columns: []ColumnDefinition{
		{Name: "id", Type: TypeInteger, PrimaryKey: true, NotNull: true},
		{Name: "name", Type: TypeText, NotNull: true},
		{Name: "balance", Type: TypeReal},
		{Name: "active", Type: TypeBool},
		{Name: "note", Type: TypeText},
	}}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	r := require.New(t)
	schema := testSchema()

	values := []Value{int32(42), "alice", float32(3.5), true, nil}
	record, err := SerializeRecord(schema, values, DefaultPageSize)
	r.NoError(err)

	decoded, err := DeserializeRecord(schema, record)
	r.NoError(err)
	r.Equal(values, decoded)
}

func TestSerializeRecordRejectsNullOnNotNull(t *testing.T) {
	r := require.New(t)
	schema := testSchema()

	_, err := SerializeRecord(schema, []Value{nil, "alice", nil, nil, nil}, DefaultPageSize)
	r.Error(err)
	r.IsType(&SchemaMismatch{}, err)
}

func TestSerializeRecordRejectsWrongColumnCount(t *testing.T) {
	r := require.New(t)
	schema := testSchema()

	_, err := SerializeRecord(schema, []Value{int32(1), "x"}, DefaultPageSize)
	r.Error(err)
	r.IsType(&SchemaMismatch{}, err)
}

func TestSerializeRecordRejectsTypeMismatch(t *testing.T) {
	r := require.New(t)
	schema := testSchema()

	_, err := SerializeRecord(schema, []Value{int32(1), int32(2), nil, nil, nil}, DefaultPageSize)
	r.Error(err)
	r.IsType(&SchemaMismatch{}, err)
}

func TestSerializeRecordTooLarge(t *testing.T) {
	r := require.New(t)
	schema := Schema{Columns: []ColumnDefinition{
		{Name: "id", Type: TypeInteger, PrimaryKey: true, NotNull: true},
		{Name: "blob", Type: TypeText},
	}}

	big := make([]byte, MaxCellSize(DefaultPageSize)*2)
	for i := range big {
		big[i] = 'x'
	}
	_, err := SerializeRecord(schema, []Value{int32(1), string(big)}, DefaultPageSize)
	r.Error(err)
	r.IsType(&TooLarge{}, err)
}

func TestDeserializeRecordRejectsTruncated(t *testing.T) {
	r := require.New(t)
	schema := testSchema()
	_, err := DeserializeRecord(schema, []byte{1, 2})
	r.Error(err)
}

func TestDeserializeRecordAllNulls(t *testing.T) {
	r := require.New(t)
	schema := Schema{Columns: []ColumnDefinition{
		{Name: "id", Type: TypeInteger, PrimaryKey: true, NotNull: true},
		{Name: "note", Type: TypeText},
	}}

	values := []Value{int32(7), nil}
	record, err := SerializeRecord(schema, values, DefaultPageSize)
	r.NoError(err)

	decoded, err := DeserializeRecord(schema, record)
	r.NoError(err)
	r.Equal(values, decoded)
}

func TestSerializeRecordEmptyText(t *testing.T) {
	r := require.New(t)
	schema := testSchema()

	values := []Value{int32(1), "", float32(0), false, ""}
	record, err := SerializeRecord(schema, values, DefaultPageSize)
	r.NoError(err)

	decoded, err := DeserializeRecord(schema, record)
	r.NoError(err)
	r.Equal(values, decoded)
}
