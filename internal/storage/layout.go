package storage

import "encoding/binary"

// NodeType distinguishes a leaf node (holding cells) from an internal node
// (holding child pointers and separator keys).
type NodeType byte

const (
	NodeTypeLeaf     NodeType = 1
	NodeTypeInternal NodeType = 2
)

// Common node header: every page that is part of a tree (leaf or
// internal) starts with these fields.
//
//	offset 0:   NodeType   (1 byte)
//	offset 1:   IsRoot     (1 byte, 0 or 1)
//	offset 2-3: reserved
//	offset 4-7: ParentPageNum (uint32 LE, meaningless when IsRoot)
const commonHeaderSize = 8

// Leaf-specific header, immediately following the common header:
//
//	offset 8-11:  NumCells        (uint32 LE)
//	offset 12-15: AllocPtr        (uint32 LE)
//	offset 16-19: FreeListHead    (uint32 LE, 0 = empty)
//	offset 20-23: TotalFreeBytes  (uint32 LE)
//	offset 24-27: NextLeaf        (uint32 LE, 0 = none)
const (
	leafNumCellsOff       = commonHeaderSize
	leafAllocPtrOff       = commonHeaderSize + 4
	leafFreeListHeadOff   = commonHeaderSize + 8
	leafTotalFreeBytesOff = commonHeaderSize + 12
	leafNextLeafOff       = commonHeaderSize + 16
	// LeafHeaderSize is the size of a leaf page's full header (common + leaf).
	LeafHeaderSize = commonHeaderSize + 20
)

// Internal-specific header, immediately following the common header:
//
//	offset 8-11:  NumKeys    (uint32 LE)
//	offset 12-15: RightChild (uint32 LE)
const (
	internalNumKeysOff    = commonHeaderSize
	internalRightChildOff = commonHeaderSize + 4
	// InternalHeaderSize is the size of an internal page's full header.
	InternalHeaderSize = commonHeaderSize + 8
)

// CellPointerSize is the size of one entry in a leaf's cell pointer array.
const CellPointerSize = 4

// InternalEntrySize is the size of one packed (child_page, key) entry in
// an internal node.
const InternalEntrySize = 8

// MinFreeBlock is the smallest intra-page free-list block worth tracking;
// smaller remnants are absorbed at the next compaction.
const MinFreeBlock = 8

func NodeTypeOf(data []byte) NodeType { return NodeType(data[0]) }
func SetNodeType(data []byte, t NodeType) { data[0] = byte(t) }

func IsRoot(data []byte) bool { return data[1] != 0 }
func SetIsRoot(data []byte, v bool) {
	if v {
		data[1] = 1
	} else {
		data[1] = 0
	}
}

func ParentPageNum(data []byte) PageNum {
	return PageNum(binary.LittleEndian.Uint32(data[4:8]))
}
func SetParentPageNum(data []byte, p PageNum) {
	binary.LittleEndian.PutUint32(data[4:8], uint32(p))
}

func NumCells(data []byte) uint32 { return binary.LittleEndian.Uint32(data[leafNumCellsOff:]) }
func SetNumCells(data []byte, n uint32) {
	binary.LittleEndian.PutUint32(data[leafNumCellsOff:], n)
}

func AllocPtr(data []byte) uint32 { return binary.LittleEndian.Uint32(data[leafAllocPtrOff:]) }
func SetAllocPtr(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data[leafAllocPtrOff:], v)
}

func FreeListHead(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[leafFreeListHeadOff:])
}
func SetFreeListHead(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data[leafFreeListHeadOff:], v)
}

func TotalFreeBytes(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[leafTotalFreeBytesOff:])
}
func SetTotalFreeBytes(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data[leafTotalFreeBytesOff:], v)
}

func NextLeaf(data []byte) PageNum {
	return PageNum(binary.LittleEndian.Uint32(data[leafNextLeafOff:]))
}
func SetNextLeaf(data []byte, v PageNum) {
	binary.LittleEndian.PutUint32(data[leafNextLeafOff:], uint32(v))
}

func NumKeys(data []byte) uint32 { return binary.LittleEndian.Uint32(data[internalNumKeysOff:]) }
func SetNumKeys(data []byte, n uint32) {
	binary.LittleEndian.PutUint32(data[internalNumKeysOff:], n)
}

func RightChild(data []byte) PageNum {
	return PageNum(binary.LittleEndian.Uint32(data[internalRightChildOff:]))
}
func SetRightChild(data []byte, p PageNum) {
	binary.LittleEndian.PutUint32(data[internalRightChildOff:], uint32(p))
}

// initLeafHeader resets data to an empty leaf node header. It is used both
// by the pager (to seed a fresh catalog root at Open time) and by the
// btree package (to initialize freshly allocated leaves).
func initLeafHeader(pg *Page, parent PageNum, isRoot bool) {
	data := pg.Data
	SetNodeType(data, NodeTypeLeaf)
	SetIsRoot(data, isRoot)
	SetParentPageNum(data, parent)
	SetNumCells(data, 0)
	SetAllocPtr(data, uint32(len(data)))
	SetFreeListHead(data, 0)
	SetTotalFreeBytes(data, 0)
	SetNextLeaf(data, 0)
	pg.MarkDirty()
}

// InitLeafHeader is the exported form used outside this package.
func InitLeafHeader(pg *Page, parent PageNum, isRoot bool) { initLeafHeader(pg, parent, isRoot) }

// InitInternalHeader resets data to an empty internal node header.
func InitInternalHeader(pg *Page, parent PageNum, isRoot bool) {
	data := pg.Data
	SetNodeType(data, NodeTypeInternal)
	SetIsRoot(data, isRoot)
	SetParentPageNum(data, parent)
	SetNumKeys(data, 0)
	SetRightChild(data, 0)
	pg.MarkDirty()
}

// CellPointer reads the i'th entry of a leaf's cell-pointer array: an
// absolute byte offset into the page where the cell's bytes begin.
func CellPointer(data []byte, i int) uint32 {
	off := LeafHeaderSize + i*CellPointerSize
	return binary.LittleEndian.Uint32(data[off : off+4])
}

// SetCellPointer writes the i'th entry of a leaf's cell-pointer array.
func SetCellPointer(data []byte, i int, cellOffset uint32) {
	off := LeafHeaderSize + i*CellPointerSize
	binary.LittleEndian.PutUint32(data[off:off+4], cellOffset)
}

// InternalEntry reads the i'th (child_page, key) pair of an internal
// node's packed array.
func InternalEntry(data []byte, i int) (PageNum, int32) {
	off := InternalHeaderSize + i*InternalEntrySize
	child := binary.LittleEndian.Uint32(data[off : off+4])
	key := binary.LittleEndian.Uint32(data[off+4 : off+8])
	return PageNum(child), int32(key)
}

// SetInternalEntry writes the i'th (child_page, key) pair of an internal
// node's packed array.
func SetInternalEntry(data []byte, i int, child PageNum, key int32) {
	off := InternalHeaderSize + i*InternalEntrySize
	binary.LittleEndian.PutUint32(data[off:off+4], uint32(child))
	binary.LittleEndian.PutUint32(data[off+4:off+8], uint32(key))
}

// MaxLeafCells is the largest number of cell pointers that fit in a leaf
// page's header region before the allocation block, assuming the
// smallest possible cell (CellHeaderSize with an empty record). It bounds
// worst-case loop iteration, not a hard limit enforced elsewhere.
func MaxLeafCells(pageSize int) int {
	return (pageSize - LeafHeaderSize) / CellPointerSize
}

// MaxInternalEntries is the largest number of (child, key) entries that
// fit in an internal node page.
func MaxInternalEntries(pageSize int) int {
	return (pageSize - InternalHeaderSize) / InternalEntrySize
}
