package storage

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Magic is written to the first 16 bytes of page 0 and checked on every
// open. It is not a real version negotiation scheme -- there has only ever
// been one on-disk format -- but it lets Open reject a file that is
// obviously not one of ours before anything else touches it.
const magic = "learndb v1\x00\x00\x00\x00\x00\x00"

const (
	fileHeaderFreeListOff   = 16
	fileHeaderCatalogOff    = 20
	fileHeaderInstanceIDOff = 24
	fileHeaderReservedEnd   = 100
)

// fileHeader is the contents of page 0: everything a freshly opened pager
// needs before it can interpret any other page.
type fileHeader struct {
	freeListHead PageNum
	catalogRoot  PageNum
	instanceID   uuid.UUID
}

func newFileHeader() fileHeader {
	return fileHeader{
		freeListHead: 0,
		catalogRoot:  CatalogRootPage,
		instanceID:   uuid.New(),
	}
}

func (h fileHeader) encode(data []byte) {
	copy(data[0:16], magic)
	binary.LittleEndian.PutUint32(data[fileHeaderFreeListOff:], uint32(h.freeListHead))
	binary.LittleEndian.PutUint32(data[fileHeaderCatalogOff:], uint32(h.catalogRoot))
	idBytes, _ := h.instanceID.MarshalBinary()
	copy(data[fileHeaderInstanceIDOff:fileHeaderInstanceIDOff+16], idBytes)
	for i := fileHeaderInstanceIDOff + 16; i < fileHeaderReservedEnd; i++ {
		data[i] = 0
	}
}

func decodeFileHeader(data []byte) (fileHeader, error) {
	if len(data) < fileHeaderReservedEnd {
		return fileHeader{}, &CorruptPage{PageNum: FileHeaderPage, Detail: "short file header"}
	}
	if string(data[0:16]) != magic {
		return fileHeader{}, &CorruptPage{PageNum: FileHeaderPage, Detail: "bad magic"}
	}

	var id uuid.UUID
	_ = id.UnmarshalBinary(data[fileHeaderInstanceIDOff : fileHeaderInstanceIDOff+16])

	return fileHeader{
		freeListHead: PageNum(binary.LittleEndian.Uint32(data[fileHeaderFreeListOff:])),
		catalogRoot:  PageNum(binary.LittleEndian.Uint32(data[fileHeaderCatalogOff:])),
		instanceID:   id,
	}, nil
}
