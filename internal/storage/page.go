package storage

// PageNum identifies a page within a database file. Page 0 is the file
// header; page 1 is the catalog's root.
type PageNum uint32

const (
	// FileHeaderPage is the fixed page holding the file header.
	FileHeaderPage PageNum = 0

	// CatalogRootPage is the fixed root page of the catalog tree.
	CatalogRootPage PageNum = 1

	// DefaultPageSize is the page size used for new databases.
	DefaultPageSize = 4096
)

// Page is a fixed-size mutable byte buffer backing one page of the file.
// The pager owns the buffer; the btree and catalog packages borrow it for
// the duration of a single operation by calling Pager.GetPage.
type Page struct {
	Num   PageNum
	Data  []byte
	dirty bool
}

// MarkDirty flags the page as needing to be written on the next Flush or
// when the database closes.
func (p *Page) MarkDirty() {
	p.dirty = true
}

// Dirty reports whether the page has unflushed changes.
func (p *Page) Dirty() bool {
	return p.dirty
}

func newBlankPage(num PageNum, size int) *Page {
	return &Page{Num: num, Data: make([]byte, size), dirty: true}
}
