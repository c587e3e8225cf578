package btree

import (
	"encoding/binary"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// Intra-page free blocks are laid out as [size:4 | next:4] at the block's
// own offset; a block is never smaller than storage.MinFreeBlock (8)
// bytes, which is exactly this header's size.

func readFreeBlock(data []byte, offset uint32) (size, next uint32) {
	size = binary.LittleEndian.Uint32(data[offset : offset+4])
	next = binary.LittleEndian.Uint32(data[offset+4 : offset+8])
	return
}

func writeFreeBlock(data []byte, offset, size, next uint32) {
	binary.LittleEndian.PutUint32(data[offset:offset+4], size)
	binary.LittleEndian.PutUint32(data[offset+4:offset+8], next)
}

// pushFreeBlock adds [offset, offset+size) as the new free-list head.
func pushFreeBlock(pg *storage.Page, offset, size uint32) {
	data := pg.Data
	writeFreeBlock(data, offset, size, storage.FreeListHead(data))
	storage.SetFreeListHead(data, offset)
	storage.SetTotalFreeBytes(data, storage.TotalFreeBytes(data)+size)
	pg.MarkDirty()
}

// tryAllocFromFreeList walks the intra-page free list for the first block
// of at least need bytes. On a hit it carves need
// bytes from the block's high end, keeping the low-addressed residual in
// the list if it is still worth tracking, and returns the offset of the
// need-byte region now available for a new cell.
func tryAllocFromFreeList(pg *storage.Page, need uint32) (uint32, bool) {
	data := pg.Data
	prev := uint32(0)
	cur := storage.FreeListHead(data)

	for cur != 0 {
		size, next := readFreeBlock(data, cur)
		if size >= need {
			residual := size - need
			if residual >= storage.MinFreeBlock {
				writeFreeBlock(data, cur, residual, next)
				storage.SetTotalFreeBytes(data, storage.TotalFreeBytes(data)-need)
			} else {
				if prev == 0 {
					storage.SetFreeListHead(data, next)
				} else {
					prevSize, _ := readFreeBlock(data, prev)
					writeFreeBlock(data, prev, prevSize, next)
				}
				storage.SetTotalFreeBytes(data, storage.TotalFreeBytes(data)-size)
			}
			pg.MarkDirty()
			return cur + residual, true
		}
		prev = cur
		cur = next
	}

	return 0, false
}
