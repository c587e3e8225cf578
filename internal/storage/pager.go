package storage

import (
	"github.com/sirupsen/logrus"
)

// Pager exposes a database file as a map from page number to page. It
// caches every page it has touched in memory for the process lifetime --
// there is no eviction, matching a single-writer, no-suspension model --
// and mediates allocation and free-page recycling through the on-disk
// free list rooted in the file header.
type Pager struct {
	bf     *blockFile
	header fileHeader
	cache  map[PageNum]*Page
	// numPages is the number of pages in the file, including page 0.
	numPages            int
	log                 *logrus.Entry
	compactionThreshold float64
}

// DefaultCompactionThreshold is the fraction of a leaf's bytes that must
// be reclaimable free space before btree.Tree compacts it, used when
// Open is given a threshold outside (0, 1).
const DefaultCompactionThreshold = 0.25

// Open opens path, initializing a fresh file header and catalog root leaf
// if the file is new. The caller owns the returned Pager until Close.
// compactionThreshold configures how eagerly btree.Tree reclaims
// fragmented leaf space; values outside (0, 1) fall back to
// DefaultCompactionThreshold. cacheSizeHint, if positive, preallocates
// the page cache's backing map to that capacity, avoiding rehashing as a
// working set of that rough size is touched.
func Open(path string, pageSize int, compactionThreshold float64, cacheSizeHint int, log *logrus.Entry) (*Pager, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if compactionThreshold <= 0 || compactionThreshold >= 1 {
		compactionThreshold = DefaultCompactionThreshold
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "pager")

	bf, err := openBlockFile(path, pageSize)
	if err != nil {
		return nil, err
	}

	size, err := bf.size()
	if err != nil {
		bf.close()
		return nil, err
	}

	var cache map[PageNum]*Page
	if cacheSizeHint > 0 {
		cache = make(map[PageNum]*Page, cacheSizeHint)
	} else {
		cache = make(map[PageNum]*Page)
	}

	p := &Pager{bf: bf, cache: cache, log: log, compactionThreshold: compactionThreshold}

	if size == 0 {
		if err := p.initNewFile(); err != nil {
			bf.close()
			return nil, err
		}
		log.WithField("path", path).Info("initialized new database file")
		return p, nil
	}

	p.numPages = int(size / int64(pageSize))
	headerPage, err := p.readThrough(FileHeaderPage)
	if err != nil {
		bf.close()
		return nil, err
	}
	header, err := decodeFileHeader(headerPage.Data)
	if err != nil {
		bf.close()
		return nil, err
	}
	p.header = header
	log.WithFields(logrus.Fields{"path": path, "pages": p.numPages, "instance": header.instanceID}).Info("opened existing database file")
	return p, nil
}

func (p *Pager) initNewFile() error {
	p.header = newFileHeader()
	headerPage := newBlankPage(FileHeaderPage, p.PageSize())
	p.header.encode(headerPage.Data)
	p.cache[FileHeaderPage] = headerPage
	p.numPages = 1

	catalogPage := newBlankPage(CatalogRootPage, p.PageSize())
	initLeafHeader(catalogPage, 0, true)
	p.cache[CatalogRootPage] = catalogPage
	p.numPages = 2

	return p.flushAll()
}

// PageSize returns the fixed page size for this file.
func (p *Pager) PageSize() int {
	return p.bf.pageSize
}

// CompactionThreshold returns the configured fraction of free bytes that
// triggers a leaf compaction.
func (p *Pager) CompactionThreshold() float64 {
	return p.compactionThreshold
}

// NumPages returns the number of pages currently in the file.
func (p *Pager) NumPages() int {
	return p.numPages
}

// CatalogRoot returns the catalog's root page number, always 1.
func (p *Pager) CatalogRoot() PageNum {
	return p.header.catalogRoot
}

// GetPage returns the cached buffer for page n, reading it from disk on
// first access. n must be less than NumPages(); use AllocatePage to grow
// the file.
func (p *Pager) GetPage(n PageNum) (*Page, error) {
	if int(n) >= p.numPages {
		return nil, &CorruptPage{PageNum: n, Detail: "page number out of bounds"}
	}
	return p.readThrough(n)
}

func (p *Pager) readThrough(n PageNum) (*Page, error) {
	if pg, ok := p.cache[n]; ok {
		return pg, nil
	}

	data, err := p.bf.readBlock(n)
	if err != nil {
		return nil, err
	}

	pg := &Page{Num: n, Data: data}
	p.cache[n] = pg
	return pg, nil
}

// AllocatePage pops the on-disk free-page list head if non-empty;
// otherwise it grows the file by one page of zeros.
func (p *Pager) AllocatePage() (*Page, error) {
	if p.header.freeListHead != 0 {
		head := p.header.freeListHead
		pg, err := p.readThrough(head)
		if err != nil {
			return nil, err
		}

		next := decodeFreeListNext(pg.Data)
		p.header.freeListHead = next
		p.markHeaderDirty()

		for i := range pg.Data {
			pg.Data[i] = 0
		}
		pg.MarkDirty()
		p.log.WithField("page", head).Debug("allocated page from free list")
		return pg, nil
	}

	n := PageNum(p.numPages)
	p.numPages++
	pg := newBlankPage(n, p.PageSize())
	p.cache[n] = pg
	p.log.WithField("page", n).Debug("allocated page by growing file")
	return pg, nil
}

// ReturnPage pushes n onto the on-disk free-page list, overwriting the
// page's first four bytes with the previous head.
func (p *Pager) ReturnPage(n PageNum) error {
	pg, err := p.readThrough(n)
	if err != nil {
		return err
	}

	for i := range pg.Data {
		pg.Data[i] = 0
	}
	encodeFreeListNext(pg.Data, p.header.freeListHead)
	pg.MarkDirty()

	p.header.freeListHead = n
	p.markHeaderDirty()
	p.log.WithField("page", n).Debug("returned page to free list")
	return nil
}

func (p *Pager) markHeaderDirty() {
	headerPage := p.cache[FileHeaderPage]
	if headerPage == nil {
		headerPage = newBlankPage(FileHeaderPage, p.PageSize())
		p.cache[FileHeaderPage] = headerPage
	}
	p.header.encode(headerPage.Data)
	headerPage.MarkDirty()
}

// Flush writes every dirty page to disk without closing the file.
func (p *Pager) Flush() error {
	return p.flushAll()
}

func (p *Pager) flushAll() error {
	p.markHeaderDirty()

	for n, pg := range p.cache {
		if !pg.Dirty() {
			continue
		}
		if err := p.bf.writeBlock(n, pg.Data); err != nil {
			return err
		}
		pg.dirty = false
	}

	return p.bf.sync()
}

// Close flushes every cached page, updates the file header's free-list
// head, trims trailing free pages, and releases the lock.
func (p *Pager) Close() error {
	if err := p.trimTrailingFreePages(); err != nil {
		p.log.WithError(err).Warn("failed to trim trailing free pages")
	}
	if err := p.flushAll(); err != nil {
		return err
	}
	p.log.WithField("instance", p.header.instanceID).Info("closing database file")
	return p.bf.close()
}

// trimTrailingFreePages removes pages from the tail of the free list that
// are also at the tail of the file, shrinking it. It is a best-effort
// space reclamation step, not required for correctness.
func (p *Pager) trimTrailingFreePages() error {
	freeSet := map[PageNum]bool{}
	for n := p.header.freeListHead; n != 0; {
		if freeSet[n] {
			break // cycle guard; shouldn't happen on a correct file
		}
		freeSet[n] = true
		pg, err := p.readThrough(n)
		if err != nil {
			return err
		}
		n = decodeFreeListNext(pg.Data)
	}

	trimmed := p.numPages
	for trimmed > 1 && freeSet[PageNum(trimmed-1)] {
		trimmed--
	}
	if trimmed == p.numPages {
		return nil
	}

	// Rebuild the free list without the pages being trimmed.
	var remaining []PageNum
	for n := p.header.freeListHead; n != 0; {
		pg, err := p.readThrough(n)
		if err != nil {
			return err
		}
		next := decodeFreeListNext(pg.Data)
		if int(n) < trimmed {
			remaining = append(remaining, n)
		} else {
			delete(p.cache, n)
		}
		n = next
	}

	p.header.freeListHead = 0
	for i := len(remaining) - 1; i >= 0; i-- {
		n := remaining[i]
		pg, err := p.readThrough(n)
		if err != nil {
			return err
		}
		encodeFreeListNext(pg.Data, p.header.freeListHead)
		pg.MarkDirty()
		p.header.freeListHead = n
	}
	p.markHeaderDirty()

	if err := p.bf.truncate(trimmed); err != nil {
		return err
	}
	p.numPages = trimmed
	p.log.WithField("pages", trimmed).Debug("trimmed trailing free pages")
	return nil
}

// ReachableFreePages walks every page reachable from the free list and
// returns the set. Engine.Validate uses it to check free-page accounting.
func (p *Pager) ReachableFreePages() (map[PageNum]bool, error) {
	free := map[PageNum]bool{}
	for n := p.header.freeListHead; n != 0; {
		if free[n] {
			return nil, &CorruptPage{PageNum: n, Detail: "cycle in free list"}
		}
		free[n] = true
		pg, err := p.readThrough(n)
		if err != nil {
			return nil, err
		}
		n = decodeFreeListNext(pg.Data)
	}
	return free, nil
}
