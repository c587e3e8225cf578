package storage

import "encoding/binary"

// Free-page-list node layout: the first four bytes of the page hold the
// next free page number (0 = end of list). The rest of the page is unused.
func decodeFreeListNext(data []byte) PageNum {
	return PageNum(binary.LittleEndian.Uint32(data[0:4]))
}

func encodeFreeListNext(data []byte, next PageNum) {
	binary.LittleEndian.PutUint32(data[0:4], uint32(next))
}
