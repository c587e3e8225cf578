package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeCellRoundTrip(t *testing.T) {
	r := require.New(t)
	record := []byte{1, 2, 3, 4, 5}
	cell := EncodeCell(123, record)

	r.EqualValues(123, CellKey(cell))
	r.EqualValues(len(record), CellValueSize(cell))
	r.Equal(CellHeaderSize+len(record), CellSize(cell))
	r.Equal(record, CellRecord(cell))
}

func TestEncodeCellEmptyRecord(t *testing.T) {
	r := require.New(t)
	cell := EncodeCell(1, nil)
	r.EqualValues(0, CellValueSize(cell))
	r.Empty(CellRecord(cell))
}
