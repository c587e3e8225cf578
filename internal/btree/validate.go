package btree

import (
	"sort"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// Validate walks the whole tree checking key-range containment, sibling
// linkage, plus per-leaf free-space accounting and parent-pointer
// consistency. On success it returns the set of pages that make up the
// tree, which Engine.Validate combines across every table to cross-check
// against the pager's on-disk free-page list, and which the catalog's
// DropTable returns to the pager.
func (t *Tree) Validate() (map[storage.PageNum]bool, error) {
	ctx := &validateCtx{live: map[storage.PageNum]bool{}}
	if err := t.validateNode(t.root, 0, nil, nil, ctx); err != nil {
		return nil, err
	}

	for i := 0; i < len(ctx.leaves)-1; i++ {
		pg, err := t.pager.GetPage(ctx.leaves[i])
		if err != nil {
			return nil, err
		}
		if storage.NextLeaf(pg.Data) != ctx.leaves[i+1] {
			return nil, &InvariantViolation{Detail: "next_leaf chain does not match in-order leaf sequence"}
		}
	}
	if n := len(ctx.leaves); n > 0 {
		pg, err := t.pager.GetPage(ctx.leaves[n-1])
		if err != nil {
			return nil, err
		}
		if storage.NextLeaf(pg.Data) != 0 {
			return nil, &InvariantViolation{Detail: "rightmost leaf's next_leaf is not 0"}
		}
	}

	return ctx.live, nil
}

type validateCtx struct {
	live   map[storage.PageNum]bool
	leaves []storage.PageNum
}

func (t *Tree) validateNode(pageNum, parentNum storage.PageNum, low, high *int32, ctx *validateCtx) error {
	pg, err := t.pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	ctx.live[pageNum] = true

	isRoot := storage.IsRoot(pg.Data)
	if pageNum == t.root {
		if !isRoot {
			return &InvariantViolation{Detail: "root page not marked is_root"}
		}
	} else {
		if isRoot {
			return &InvariantViolation{Detail: "non-root page marked is_root"}
		}
		if storage.ParentPageNum(pg.Data) != parentNum {
			return &InvariantViolation{Detail: "parent_page_num does not match actual parent"}
		}
		parent, err := t.pager.GetPage(parentNum)
		if err != nil {
			return err
		}
		found := storage.RightChild(parent.Data) == pageNum
		if !found {
			n := int(storage.NumKeys(parent.Data))
			for i := 0; i < n; i++ {
				c, _ := storage.InternalEntry(parent.Data, i)
				if c == pageNum {
					found = true
					break
				}
			}
		}
		if !found {
			return &InvariantViolation{Detail: "parent does not reference this child"}
		}
	}

	switch storage.NodeTypeOf(pg.Data) {
	case storage.NodeTypeLeaf:
		return t.validateLeaf(pg, isRoot, low, high, ctx)
	case storage.NodeTypeInternal:
		return t.validateInternal(pg, pageNum, isRoot, low, high, ctx)
	default:
		return &InvariantViolation{Detail: "unknown node type"}
	}
}

func (t *Tree) validateLeaf(pg *storage.Page, isRoot bool, low, high *int32, ctx *validateCtx) error {
	n := int(storage.NumCells(pg.Data))
	if !isRoot && n == 0 {
		return &InvariantViolation{Detail: "non-root leaf has zero cells"}
	}
	ctx.leaves = append(ctx.leaves, pg.Num)

	var prevKey *int32
	type region struct{ off, size uint32 }
	regions := make([]region, 0, n)
	for i := 0; i < n; i++ {
		off := storage.CellPointer(pg.Data, i)
		cell := cellAt(pg, i)
		key := storage.CellKey(cell)
		if prevKey != nil && key <= *prevKey {
			return &InvariantViolation{Detail: "leaf cells not strictly ascending by key"}
		}
		if low != nil && key <= *low {
			return &InvariantViolation{Detail: "leaf key at or below lower bound"}
		}
		if high != nil && key > *high {
			return &InvariantViolation{Detail: "leaf key above upper bound"}
		}
		k := key
		prevKey = &k
		regions = append(regions, region{off, uint32(len(cell))})
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].off < regions[j].off })
	for i := 0; i < len(regions)-1; i++ {
		if regions[i].off+regions[i].size > regions[i+1].off {
			return &InvariantViolation{Detail: "overlapping cell regions"}
		}
	}

	sum := uint32(0)
	seen := map[uint32]bool{}
	for cur := storage.FreeListHead(pg.Data); cur != 0; {
		if seen[cur] {
			return &InvariantViolation{Detail: "cycle in intra-page free list"}
		}
		seen[cur] = true
		size, next := readFreeBlock(pg.Data, cur)
		sum += size
		cur = next
	}
	if sum != storage.TotalFreeBytes(pg.Data) {
		return &InvariantViolation{Detail: "total_free_bytes does not match sum of intra-page free list blocks"}
	}

	cellptrEnd := uint32(storage.LeafHeaderSize + n*storage.CellPointerSize)
	allocPtr := storage.AllocPtr(pg.Data)
	if allocPtr < cellptrEnd || allocPtr > uint32(len(pg.Data)) {
		return &InvariantViolation{Detail: "alloc_ptr out of valid range"}
	}

	return nil
}

func (t *Tree) validateInternal(pg *storage.Page, pageNum storage.PageNum, isRoot bool, low, high *int32, ctx *validateCtx) error {
	n := int(storage.NumKeys(pg.Data))
	if !isRoot && n == 0 {
		return &InvariantViolation{Detail: "non-root internal node has zero keys"}
	}

	var prevKey *int32
	bound := low
	for i := 0; i < n; i++ {
		child, key := storage.InternalEntry(pg.Data, i)
		if prevKey != nil && key <= *prevKey {
			return &InvariantViolation{Detail: "internal node separators not strictly ascending"}
		}
		if high != nil && key > *high {
			return &InvariantViolation{Detail: "internal separator exceeds upper bound"}
		}
		k := key
		if err := t.validateNode(child, pageNum, bound, &k, ctx); err != nil {
			return err
		}
		prevKey = &k
		bound = &k
	}

	right := storage.RightChild(pg.Data)
	return t.validateNode(right, pageNum, bound, high, ctx)
}
