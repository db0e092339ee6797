package btree

import (
	"minidb/dberr"
	"minidb/pagecodec"
)

// indexCellMagic is the 4-byte constant SQLite's chidb format stores in
// every index cell, kept here purely so round-tripped cells look the way
// the on-disk format expects; it carries no semantic weight of its own.
const indexCellMagic = 0x0B030404

// Cell is a Go-idiomatic stand-in for the four on-disk cell layouts.
// Since Go has no tagged union, Type discriminates which of the
// remaining fields are meaningful; every function that builds or
// inspects a Cell switches on Type exhaustively rather than assuming a
// particular field is set.
type Cell struct {
	Type      NodeType
	Key       uint32
	ChildPage uint32 // TableInternal, IndexInternal
	Payload   []byte // TableLeaf only; owned copy
	KeyPk     uint32 // IndexInternal, IndexLeaf
}

// cellSize returns the number of bytes c occupies on disk, matching the
// four fixed-width/variable-width layouts from the original column
// format:
//
//	TableInternal: 8                  (child_page u32, key varint32-in-4)
//	TableLeaf:      8 + len(Payload)   (data_size varint32-in-4, key varint32-in-4, payload)
//	IndexInternal: 16                  (child_page u32, magic u32, key u32, keyPk u32)
//	IndexLeaf:     12                  (magic u32, key u32, keyPk u32)
func cellSize(c *Cell) int {
	switch c.Type {
	case TableInternal:
		return 8
	case TableLeaf:
		return 8 + len(c.Payload)
	case IndexInternal:
		return 16
	case IndexLeaf:
		return 12
	default:
		return 0
	}
}

// encodeVarint32Field writes v into a varint32 encoding occupying exactly
// a 4-byte field, matching the fixed 4-byte key/data_size slots the cell
// layouts reserve. Values needing a 5th byte (>= 2^28) do not fit and are
// rejected by the caller before this is reached.
func encodeVarint32Field(buf []byte, v uint32) {
	tmp := make([]byte, 5)
	written := pagecodec.PutVarint32(tmp, v)
	if written >= 4 {
		copy(buf[0:4], tmp[:4])
		return
	}
	pad := 4 - written
	for i := 0; i < pad; i++ {
		buf[i] = 0x80
	}
	copy(buf[pad:4], tmp[:written])
}

func decodeVarint32Field(buf []byte) uint32 {
	v, _ := pagecodec.GetVarint32(buf[:4])
	return v
}

// fitsVarint32Field reports whether v can be represented within a 4-byte
// varint32 field, i.e. needs at most 4 encoded bytes (< 2^28).
func fitsVarint32Field(v uint32) bool {
	return v < (1 << 28)
}

// encodeCell serializes c into buf, which must be at least cellSize(c)
// bytes long.
func encodeCell(buf []byte, c *Cell) error {
	switch c.Type {
	case TableInternal:
		pagecodec.PutUint32(buf[0:4], c.ChildPage)
		if !fitsVarint32Field(c.Key) {
			return dberr.New(dberr.EIO, "btree.encodeCell", nil)
		}
		encodeVarint32Field(buf[4:8], c.Key)
	case TableLeaf:
		if !fitsVarint32Field(uint32(len(c.Payload))) || !fitsVarint32Field(c.Key) {
			return dberr.New(dberr.EIO, "btree.encodeCell", nil)
		}
		encodeVarint32Field(buf[0:4], uint32(len(c.Payload)))
		encodeVarint32Field(buf[4:8], c.Key)
		copy(buf[8:8+len(c.Payload)], c.Payload)
	case IndexInternal:
		pagecodec.PutUint32(buf[0:4], c.ChildPage)
		pagecodec.PutUint32(buf[4:8], indexCellMagic)
		pagecodec.PutUint32(buf[8:12], c.Key)
		pagecodec.PutUint32(buf[12:16], c.KeyPk)
	case IndexLeaf:
		pagecodec.PutUint32(buf[0:4], indexCellMagic)
		pagecodec.PutUint32(buf[4:8], c.Key)
		pagecodec.PutUint32(buf[8:12], c.KeyPk)
	default:
		return dberr.New(dberr.ECORRUPTHEADER, "btree.encodeCell", nil)
	}
	return nil
}

// decodeCell parses a cell of type typ out of buf, copying any payload
// bytes so the result is independent of the page's lifetime.
func decodeCell(buf []byte, typ NodeType) (*Cell, error) {
	c := &Cell{Type: typ}
	switch typ {
	case TableInternal:
		if len(buf) < 8 {
			return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.decodeCell", nil)
		}
		c.ChildPage = pagecodec.GetUint32(buf[0:4])
		c.Key = decodeVarint32Field(buf[4:8])
	case TableLeaf:
		if len(buf) < 8 {
			return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.decodeCell", nil)
		}
		dataSize := decodeVarint32Field(buf[0:4])
		c.Key = decodeVarint32Field(buf[4:8])
		if len(buf) < 8+int(dataSize) {
			return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.decodeCell", nil)
		}
		c.Payload = append([]byte(nil), buf[8:8+int(dataSize)]...)
	case IndexInternal:
		if len(buf) < 16 {
			return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.decodeCell", nil)
		}
		c.ChildPage = pagecodec.GetUint32(buf[0:4])
		c.Key = pagecodec.GetUint32(buf[8:12])
		c.KeyPk = pagecodec.GetUint32(buf[12:16])
	case IndexLeaf:
		if len(buf) < 12 {
			return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.decodeCell", nil)
		}
		c.Key = pagecodec.GetUint32(buf[4:8])
		c.KeyPk = pagecodec.GetUint32(buf[8:12])
	default:
		return nil, dberr.New(dberr.ECORRUPTHEADER, "btree.decodeCell", nil)
	}
	return c, nil
}

// cellAt returns the i-th cell stored in n.
func (n *Node) cellAt(i int) (*Cell, error) {
	off, err := n.cellOffset(i)
	if err != nil {
		return nil, err
	}
	return decodeCell(n.view.Data[off:], n.Type)
}

// cellKey returns just the ordering key of the i-th cell, avoiding the
// cost of decoding a TableLeaf's payload when only the key is needed.
func (n *Node) cellKey(i int) (uint32, error) {
	off, err := n.cellOffset(i)
	if err != nil {
		return 0, err
	}
	switch n.Type {
	case TableInternal:
		return decodeVarint32Field(n.view.Data[off+4 : off+8]), nil
	case TableLeaf:
		return decodeVarint32Field(n.view.Data[off+4 : off+8]), nil
	case IndexInternal:
		return pagecodec.GetUint32(n.view.Data[off+8 : off+12]), nil
	case IndexLeaf:
		return pagecodec.GetUint32(n.view.Data[off+4 : off+8]), nil
	default:
		return 0, dberr.New(dberr.ECORRUPTHEADER, "btree.Node.cellKey", nil)
	}
}

// insertCellAt inserts c as the new i-th cell of n, shifting later
// offset-array entries up by one slot. The caller must have already
// confirmed n has enough free space (see nodeCanFit).
func (n *Node) insertCellAt(i int, c *Cell) error {
	if i < 0 || i > int(n.NCells) {
		return dberr.New(dberr.ECELLNO, "btree.Node.insertCellAt", nil)
	}
	size := cellSize(c)
	if n.freeSpace() < size+2 {
		return dberr.New(dberr.EIO, "btree.Node.insertCellAt", nil)
	}

	newCellOffset := n.CellsOffset - uint16(size)
	if err := encodeCell(n.view.Data[newCellOffset:newCellOffset+uint16(size)], c); err != nil {
		return err
	}

	// Shift offset-array entries [i, NCells) up by one slot to make room.
	for j := int(n.NCells); j > i; j-- {
		off, _ := n.cellOffset(j - 1)
		n.setCellOffsetRaw(j, off)
	}
	n.setCellOffsetRaw(i, newCellOffset)

	n.NCells++
	n.CellsOffset = newCellOffset
	n.FreeOffset += 2
	n.writeHeader()
	return nil
}

// setCellOffsetRaw writes the i-th slot of the offset array directly,
// used while NCells has not yet been incremented to reflect a new count.
func (n *Node) setCellOffsetRaw(i int, off uint16) {
	at := n.offsetArrayAt(i)
	pagecodec.PutUint16(n.view.Data[at:at+2], off)
}

// nodeCanFit reports whether c can be inserted into n without a split.
func nodeCanFit(n *Node, c *Cell) bool {
	return n.freeSpace() >= cellSize(c)+2
}
