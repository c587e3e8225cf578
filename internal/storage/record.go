package storage

import (
	"bytes"
	"encoding/binary"
	"math"
)

// DataType is a column's storage type.
type DataType int

const (
	TypeInteger DataType = iota
	TypeReal
	TypeBool
	TypeText
)

// Serial-type codes. TEXT is encoded as 4+len(bytes) rather than a fixed
// code, so its code also carries its length.
const (
	serialNull    = 0
	serialInteger = 1
	serialReal    = 2
	serialBool    = 3
	serialTextMin = 4
)

// ColumnDefinition describes one column of a Schema.
type ColumnDefinition struct {
	Name       string
	Type       DataType
	PrimaryKey bool
	NotNull    bool
}

// Schema is an ordered list of column definitions. Exactly one column must
// be an INTEGER PRIMARY KEY; it becomes a tree's key.
type Schema struct {
	Columns []ColumnDefinition
}

// PrimaryKeyIndex returns the index of the schema's INTEGER PRIMARY KEY
// column, or -1 if none is marked (callers that build a Schema by hand are
// expected to always mark one; this is mostly a defensive lookup).
func (s Schema) PrimaryKeyIndex() int {
	for i, c := range s.Columns {
		if c.PrimaryKey {
			return i
		}
	}
	return -1
}

// Value is a single decoded column value: nil, int32, float32, bool, or
// string, matching Schema's DataType enumeration.
type Value interface{}

// SerializeRecord encodes values (ordered per schema.Columns) into the
// record byte format:
// [header_size(4B) | serial_type_0 | ... | serial_type_{C-1} | body].
// Returns TooLarge if the result would exceed MaxCellSize(pageSize).
func SerializeRecord(schema Schema, values []Value, pageSize int) ([]byte, error) {
	if len(values) != len(schema.Columns) {
		return nil, &SchemaMismatch{Detail: "value count does not match schema column count"}
	}

	var header bytes.Buffer
	var body bytes.Buffer

	for i, col := range schema.Columns {
		v := values[i]
		if v == nil {
			if col.NotNull {
				return nil, &SchemaMismatch{Detail: "NULL value for NOT NULL column " + col.Name}
			}
			if _, err := WriteVarint(&header, serialNull); err != nil {
				return nil, &IoError{Op: "encode header", Err: err}
			}
			continue
		}

		switch col.Type {
		case TypeInteger:
			iv, ok := v.(int32)
			if !ok {
				return nil, &SchemaMismatch{Detail: "expected int32 for column " + col.Name}
			}
			if _, err := WriteVarint(&header, serialInteger); err != nil {
				return nil, &IoError{Op: "encode header", Err: err}
			}
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(iv))
			body.Write(buf[:])
		case TypeReal:
			fv, ok := v.(float32)
			if !ok {
				return nil, &SchemaMismatch{Detail: "expected float32 for column " + col.Name}
			}
			if _, err := WriteVarint(&header, serialReal); err != nil {
				return nil, &IoError{Op: "encode header", Err: err}
			}
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(fv))
			body.Write(buf[:])
		case TypeBool:
			bv, ok := v.(bool)
			if !ok {
				return nil, &SchemaMismatch{Detail: "expected bool for column " + col.Name}
			}
			if _, err := WriteVarint(&header, serialBool); err != nil {
				return nil, &IoError{Op: "encode header", Err: err}
			}
			if bv {
				body.WriteByte(1)
			} else {
				body.WriteByte(0)
			}
		case TypeText:
			sv, ok := v.(string)
			if !ok {
				return nil, &SchemaMismatch{Detail: "expected string for column " + col.Name}
			}
			textBytes := []byte(sv)
			if _, err := WriteVarint(&header, uint64(serialTextMin+len(textBytes))); err != nil {
				return nil, &IoError{Op: "encode header", Err: err}
			}
			body.Write(textBytes)
		default:
			return nil, &SchemaMismatch{Detail: "unknown column type"}
		}
	}

	out := make([]byte, 4+header.Len()+body.Len())
	binary.LittleEndian.PutUint32(out[0:4], uint32(header.Len()))
	copy(out[4:], header.Bytes())
	copy(out[4+header.Len():], body.Bytes())

	if maxCell := MaxCellSize(pageSize); len(out) > maxCell {
		return nil, &TooLarge{Size: len(out), MaxSize: maxCell}
	}

	return out, nil
}

// DeserializeRecord decodes record bytes produced by SerializeRecord back
// into one Value per schema column.
func DeserializeRecord(schema Schema, data []byte) ([]Value, error) {
	if len(data) < 4 {
		return nil, &SchemaMismatch{Detail: "record too short to contain a header size"}
	}

	headerSize := binary.LittleEndian.Uint32(data[0:4])
	if int(4+headerSize) > len(data) {
		return nil, &SchemaMismatch{Detail: "header size exceeds record length"}
	}

	headerReader := bytes.NewReader(data[4 : 4+headerSize])
	serialTypes := make([]uint64, 0, len(schema.Columns))
	for headerReader.Len() > 0 {
		st, _, err := ReadVarint(headerReader)
		if err != nil {
			return nil, &SchemaMismatch{Detail: "malformed serial type header: " + err.Error()}
		}
		serialTypes = append(serialTypes, st)
	}
	if len(serialTypes) != len(schema.Columns) {
		return nil, &SchemaMismatch{Detail: "serial type count does not match schema column count"}
	}

	body := data[4+headerSize:]
	values := make([]Value, len(schema.Columns))

	for i, col := range schema.Columns {
		st := serialTypes[i]
		switch {
		case st == serialNull:
			values[i] = nil
		case st == serialInteger:
			if col.Type != TypeInteger || len(body) < 4 {
				return nil, &SchemaMismatch{Detail: "bad INTEGER encoding for column " + col.Name}
			}
			values[i] = int32(binary.LittleEndian.Uint32(body[0:4]))
			body = body[4:]
		case st == serialReal:
			if col.Type != TypeReal || len(body) < 4 {
				return nil, &SchemaMismatch{Detail: "bad REAL encoding for column " + col.Name}
			}
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[0:4]))
			body = body[4:]
		case st == serialBool:
			if col.Type != TypeBool || len(body) < 1 {
				return nil, &SchemaMismatch{Detail: "bad BOOL encoding for column " + col.Name}
			}
			values[i] = body[0] != 0
			body = body[1:]
		case st >= serialTextMin:
			if col.Type != TypeText {
				return nil, &SchemaMismatch{Detail: "bad TEXT encoding for column " + col.Name}
			}
			n := int(st - serialTextMin)
			if len(body) < n {
				return nil, &SchemaMismatch{Detail: "TEXT length exceeds remaining record bytes"}
			}
			values[i] = string(body[:n])
			body = body[n:]
		default:
			return nil, &SchemaMismatch{Detail: "unrecognized serial type"}
		}
	}

	return values, nil
}
