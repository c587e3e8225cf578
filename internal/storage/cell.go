package storage

import "encoding/binary"

// CellHeaderSize is the fixed portion of a leaf cell: a 4-byte key
// followed by a 4-byte record length.
const CellHeaderSize = 8

// MaxCellSize bounds a single cell so that at least two cells, together
// with their two cell pointers, always fit in the allocation block of an
// otherwise-empty leaf page of the given size, scaling with the
// configured page size the same way MaxInternalEntries does for internal
// nodes.
func MaxCellSize(pageSize int) int {
	return (pageSize - LeafHeaderSize - 2*CellPointerSize) / 2
}

// EncodeCell packs a key and its already-serialized record into the wire
// format stored at a cell's offset: [key:4 | value_size:4 | record].
func EncodeCell(key int32, record []byte) []byte {
	cell := make([]byte, CellHeaderSize+len(record))
	binary.LittleEndian.PutUint32(cell[0:4], uint32(key))
	binary.LittleEndian.PutUint32(cell[4:8], uint32(len(record)))
	copy(cell[CellHeaderSize:], record)
	return cell
}

// CellKey reads a cell's key without decoding its record.
func CellKey(cell []byte) int32 {
	return int32(binary.LittleEndian.Uint32(cell[0:4]))
}

// CellValueSize reads the length of a cell's record bytes.
func CellValueSize(cell []byte) uint32 {
	return binary.LittleEndian.Uint32(cell[4:8])
}

// CellSize returns the total byte length of a cell (header + record).
func CellSize(cell []byte) int {
	return CellHeaderSize + int(CellValueSize(cell))
}

// CellRecord returns the record bytes embedded in a cell.
func CellRecord(cell []byte) []byte {
	n := CellValueSize(cell)
	return cell[CellHeaderSize : CellHeaderSize+n]
}
