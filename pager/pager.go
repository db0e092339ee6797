// Package pager implements the page-storage contract the B-tree engine is
// built on: a file of fixed-size pages addressed by a 1-based page number,
// plus the 100-byte file header that lives in page 1. The pager itself does
// not know about B-tree nodes or cells — it only knows about bytes and page
// numbers, exactly as spec.md section 6 draws the boundary.
package pager

import "minidb/dberr"

// DefaultPageSize is used whenever a new database file is created.
const DefaultPageSize = 1024

// MinPageSize and MaxPageSize bound the legal range for a page size: a
// power of two between 512 and 65536.
const (
	MinPageSize = 512
	MaxPageSize = 65536
)

// HeaderSize is the number of bytes the file header occupies at the start
// of page 1.
const HeaderSize = 100

// PageView is a mutable window onto one page's bytes. A PageView is owned
// by whoever obtained it from ReadPage until it is handed back via
// WritePage/ReleasePage; Data is always exactly PageSize() bytes long.
type PageView struct {
	PageNo uint32
	Data   []byte
}

// Pager is the persistence contract the core depends on. spec.md section 6
// lists these exact operations; it is implemented here by Memory (for
// tests) and File (for real databases).
type Pager interface {
	// ReadHeader fills out with the first HeaderSize bytes of page 1. It
	// returns a dberr.ENOTFOUND error if the file has never been written to
	// (e.g. it was just created and is empty).
	ReadHeader(out []byte) error
	// SetPageSize fixes the page size for all subsequent page operations.
	// Called once, either from a freshly read header or with
	// DefaultPageSize when initializing an empty file.
	SetPageSize(size int)
	// PageSize returns the page size set by SetPageSize, or 0 if unset.
	PageSize() int
	// AllocPage reserves a brand-new page and returns its page number.
	AllocPage() (uint32, error)
	// ReadPage loads a page's bytes into a PageView the caller owns until
	// it releases or writes it back.
	ReadPage(pageNo uint32) (*PageView, error)
	// WritePage persists view's current bytes back to the file. The
	// caller still owns view afterwards and must still release it.
	WritePage(view *PageView) error
	// ReleasePage returns a PageView to the pager once the caller is done
	// with it, whether or not it was modified.
	ReleasePage(view *PageView) error
	// Close releases all resources associated with the pager.
	Close() error
}

// ValidatePageSize reports whether size is a legal page size: a power of
// two between MinPageSize and MaxPageSize. Callers that accept a page size
// from a file header (btree.Open) must check this before calling
// SetPageSize, since the interface itself has no way to reject a bad size.
func ValidatePageSize(size int) error {
	if size < MinPageSize || size > MaxPageSize || size&(size-1) != 0 {
		return dberr.New(dberr.ECORRUPTHEADER, "pager.ValidatePageSize", nil)
	}
	return nil
}
