package btree

import (
	"bytes"

	"minidb/dberr"
	"minidb/pagecodec"
	"minidb/pager"
)

// magicString identifies a minidb database file; it occupies the first
// 16 bytes of the 100-byte file header on page 1. minidb keeps the exact
// on-disk header layout (magic, page size, format bytes, reserved u32
// fields) of the file format its B-tree code is built against, since
// nothing about the engine's own design calls for a different one.
const magicString = "SQLite format 3\x00"

// Tree is an open B-tree file: the pager backing it plus the root page
// number of the table or index stored in it. A database with multiple
// tables/indexes opens one Tree per root page, all sharing the same
// underlying Pager.
type Tree struct {
	Pager pager.Pager
	Root  uint32
}

// Open validates (or, for a brand-new file, initializes) the 100-byte
// file header on page 1 and returns a Tree rooted at page 1. Header
// layout and validation constants are carried over byte-for-byte from
// the worked reference this engine is built against: a magic string at
// offset 0, page size at 0x10-0x11, six format bytes at 0x12-0x17, and a
// handful of reserved/constant 4-byte fields used to catch corruption
// early rather than to carry real configuration.
func Open(p pager.Pager, defaultPageSize int) (*Tree, error) {
	header := make([]byte, pager.HeaderSize)
	err := p.ReadHeader(header)
	if dberr.Is(err, dberr.ENOTFOUND) {
		return initHeader(p, defaultPageSize)
	}
	if err != nil {
		return nil, err
	}

	pageSize := int(pagecodec.GetUint16(header[0x10:0x12]))
	if err := pager.ValidatePageSize(pageSize); err != nil {
		return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.Open", err)
	}
	p.SetPageSize(pageSize)

	if err := validateHeader(header); err != nil {
		return nil, err
	}

	return &Tree{Pager: p, Root: 1}, nil
}

func validateHeader(header []byte) error {
	if !bytes.Equal(header[0:len(magicString)], []byte(magicString)) {
		return dberr.New(dberr.ECORRUPTHEADER, "btree.validateHeader", nil)
	}
	formatBytes := header[0x12:0x18]
	if !bytes.Equal(formatBytes, []byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20}) {
		return dberr.New(dberr.ECORRUPTHEADER, "btree.validateHeader", nil)
	}
	fileChangeCounter := pagecodec.GetUint32(header[0x18:0x1C])
	schemaVersion := pagecodec.GetUint32(header[0x28:0x2C])
	schemaFormat := pagecodec.GetUint32(header[0x2C:0x30])
	pageCacheSize := pagecodec.GetUint32(header[0x30:0x34])
	reservedA := pagecodec.GetUint32(header[0x20:0x24])
	reservedB := pagecodec.GetUint32(header[0x24:0x28])
	reservedC := pagecodec.GetUint32(header[0x34:0x38])
	vacuumMode := pagecodec.GetUint32(header[0x38:0x3C])
	userCookie := pagecodec.GetUint32(header[0x3C:0x40])
	incVacuum := pagecodec.GetUint32(header[0x40:0x44])

	switch {
	case fileChangeCounter != 0,
		reservedA != 0, reservedB != 0,
		schemaVersion != 0, schemaFormat != 1,
		pageCacheSize != 20000, reservedC != 0,
		vacuumMode != 1, userCookie != 0,
		incVacuum != 0:
		return dberr.New(dberr.ECORRUPTHEADER, "btree.validateHeader", nil)
	}
	return nil
}

func initHeader(p pager.Pager, defaultPageSize int) (*Tree, error) {
	if err := pager.ValidatePageSize(defaultPageSize); err != nil {
		return nil, err
	}
	p.SetPageSize(defaultPageSize)

	pageNo, err := p.AllocPage()
	if err != nil {
		return nil, err
	}
	if pageNo != 1 {
		return nil, dberr.New(dberr.EIO, "btree.initHeader", nil)
	}

	view, err := p.ReadPage(1)
	if err != nil {
		return nil, err
	}

	initEmptyNode(view, TableLeaf)

	copy(view.Data[0:], []byte(magicString))
	pagecodec.PutUint16(view.Data[0x10:0x12], uint16(defaultPageSize))
	copy(view.Data[0x12:0x18], []byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20})
	for i := 0x18; i < 0x64; i++ {
		view.Data[i] = 0
	}
	pagecodec.PutUint32(view.Data[0x2C:0x30], 1)
	pagecodec.PutUint32(view.Data[0x30:0x34], 20000)
	pagecodec.PutUint32(view.Data[0x38:0x3C], 1)

	if err := p.WritePage(view); err != nil {
		return nil, err
	}
	if err := p.ReleasePage(view); err != nil {
		return nil, err
	}

	return &Tree{Pager: p, Root: 1}, nil
}
