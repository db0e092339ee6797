// Package btree implements the on-disk B-tree that backs both table and
// index storage: fixed-size pages, a node header, and a cell-offset array
// that grows upward from the header while cell data grows downward from
// the end of the page, SQLite-style. It is the equivalent of the teacher's
// bplus package, but traded for a fixed on-disk layout instead of a
// length-prefixed one, since the DBM needs page numbers that never move.
package btree

import (
	"minidb/dberr"
	"minidb/pagecodec"
	"minidb/pager"
)

// NodeType tags which of the four cell layouts a node's cells use.
type NodeType byte

const (
	TableInternal NodeType = 0x05
	TableLeaf     NodeType = 0x0D
	IndexInternal NodeType = 0x02
	IndexLeaf     NodeType = 0x0A
)

func (t NodeType) String() string {
	switch t {
	case TableInternal:
		return "TableInternal"
	case TableLeaf:
		return "TableLeaf"
	case IndexInternal:
		return "IndexInternal"
	case IndexLeaf:
		return "IndexLeaf"
	default:
		return "Unknown"
	}
}

func (t NodeType) IsInternal() bool {
	return t == TableInternal || t == IndexInternal
}

func (t NodeType) IsTable() bool {
	return t == TableInternal || t == TableLeaf
}

// headerLen is the node header size: 8 bytes for leaf nodes, 12 for
// internal nodes (the extra 4 bytes hold RightPage).
func (t NodeType) headerLen() int {
	if t.IsInternal() {
		return 12
	}
	return 8
}

// Node is an in-memory view of one page's B-tree node header plus a
// handle on the underlying page bytes for cell access. FreeOffset and
// CellsOffset are absolute offsets within the page (including the
// 100-byte file header's space on page 1), matching the original file
// format this package's cell layout is grounded on.
type Node struct {
	PageNo      uint32
	Type        NodeType
	FreeOffset  uint16
	NCells      uint16
	CellsOffset uint16
	RightPage   uint32

	view      *pager.PageView
	headerAt  int // byte offset of the header within view.Data (100 on page 1)
}

// headerBase returns the offset of the node header within a page of page
// number pageNo: 100 bytes in on page 1 (after the file header), 0
// elsewhere.
func headerBase(pageNo uint32) int {
	if pageNo == 1 {
		return pager.HeaderSize
	}
	return 0
}

// loadNode parses a Node's header out of an already-read PageView.
func loadNode(view *pager.PageView) (*Node, error) {
	base := headerBase(view.PageNo)
	if base+1 > len(view.Data) {
		return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.loadNode", nil)
	}
	typ := NodeType(view.Data[base])
	hdr := typ.headerLen()
	if base+hdr > len(view.Data) {
		return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.loadNode", nil)
	}
	n := &Node{
		PageNo:      view.PageNo,
		Type:        typ,
		FreeOffset:  pagecodec.GetUint16(view.Data[base+1 : base+3]),
		NCells:      pagecodec.GetUint16(view.Data[base+3 : base+5]),
		CellsOffset: pagecodec.GetUint16(view.Data[base+5 : base+7]),
		view:        view,
		headerAt:    base,
	}
	if typ.IsInternal() {
		n.RightPage = pagecodec.GetUint32(view.Data[base+8 : base+12])
	}
	return n, nil
}

// writeHeader serializes the node's header scalars back into its page
// bytes. It does not touch the cell-offset array or cell data, which the
// cell-insertion code already writes directly into view.Data.
func (n *Node) writeHeader() {
	d := n.view.Data
	base := n.headerAt
	d[base] = byte(n.Type)
	pagecodec.PutUint16(d[base+1:base+3], n.FreeOffset)
	pagecodec.PutUint16(d[base+3:base+5], n.NCells)
	pagecodec.PutUint16(d[base+5:base+7], n.CellsOffset)
	d[base+7] = 0
	if n.Type.IsInternal() {
		pagecodec.PutUint32(d[base+8:base+12], n.RightPage)
	}
}

// offsetArrayAt returns the byte offset of the i-th entry in the
// cell-offset array, which immediately follows the node header.
func (n *Node) offsetArrayAt(i int) int {
	return n.headerAt + n.Type.headerLen() + 2*i
}

// cellOffset returns the absolute page offset of cell i, as recorded in
// the offset array.
func (n *Node) cellOffset(i int) (uint16, error) {
	if i < 0 || i >= int(n.NCells) {
		return 0, dberr.New(dberr.ECELLNO, "btree.Node.cellOffset", nil)
	}
	at := n.offsetArrayAt(i)
	return pagecodec.GetUint16(n.view.Data[at : at+2]), nil
}

// setCellOffset writes the i-th entry of the cell-offset array.
func (n *Node) setCellOffset(i int, off uint16) {
	at := n.offsetArrayAt(i)
	pagecodec.PutUint16(n.view.Data[at:at+2], off)
}

// freeSpace returns how many unused bytes remain between the cell-offset
// array's end and the start of the lowest allocated cell.
func (n *Node) freeSpace() int {
	return int(n.CellsOffset) - int(n.FreeOffset)
}

// pageSize returns the size of the node's underlying page.
func (n *Node) pageSize() int {
	return len(n.view.Data)
}

// initEmptyNode resets a freshly allocated page to an empty node of the
// given type, matching chidb_Btree_initEmptyNode: header fields are set
// in the page bytes, and it is the caller's job to persist the node via
// Tree.writeNode.
func initEmptyNode(view *pager.PageView, typ NodeType) *Node {
	base := headerBase(view.PageNo)
	n := &Node{
		PageNo:      view.PageNo,
		Type:        typ,
		FreeOffset:  uint16(base + typ.headerLen()),
		NCells:      0,
		CellsOffset: uint16(len(view.Data)),
		view:        view,
		headerAt:    base,
	}
	if typ.IsInternal() {
		n.RightPage = 0
	}
	n.writeHeader()
	return n
}
