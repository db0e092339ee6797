package dbm

import (
	"bytes"

	"minidb/btree"
	"minidb/dberr"
	"minidb/record"
)

func (m *Machine) opOpen(in Instruction, writable bool) error {
	pageNo := uint32(m.reg(in.P2).Int)
	tree := btree.Rooted(m.Pager, pageNo)
	cur, err := btree.NewCursor(tree)
	if err != nil {
		return err
	}
	m.setSlot(in.P1, &cursorSlot{cur: cur, tree: tree, ncols: in.P3, writable: writable})
	return nil
}

func (m *Machine) opClose(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	if err := s.cur.Close(); err != nil {
		return err
	}
	m.cursors[in.P1] = nil
	return nil
}

func (m *Machine) opRewind(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	empty, err := s.cur.IsEmpty()
	if err != nil {
		return err
	}
	if empty {
		m.pc = int(in.P2)
		return nil
	}
	return s.cur.Rewind()
}

func (m *Machine) opNext(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	err = s.cur.Next()
	if err == nil {
		m.pc = int(in.P2)
		return nil
	}
	if dberr.Is(err, dberr.ENONEXT) {
		return nil
	}
	return err
}

func (m *Machine) opPrev(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	err = s.cur.Prev()
	if err == nil {
		m.pc = int(in.P2)
		return nil
	}
	if dberr.Is(err, dberr.ENOPREV) {
		return nil
	}
	return err
}

type seekKind int

const (
	seekEq seekKind = iota
	seekGt
	seekGe
	seekLt
	seekLe
)

// opSeek positions cursor P1 toward the key in register P3, jumping to P2
// when the key cannot be found rather than the jump-on-success convention
// Next, Prev and the comparison opcodes use.
func (m *Machine) opSeek(in Instruction, kind seekKind) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	key := uint32(m.reg(in.P3).Int)

	switch kind {
	case seekEq:
		err = s.cur.Seek(key)
	case seekGt:
		err = s.cur.SeekGt(key)
	case seekGe:
		err = s.cur.SeekGe(key)
	case seekLt:
		err = s.cur.SeekLt(key)
	case seekLe:
		err = s.cur.SeekLe(key)
	}
	if err == nil {
		return nil
	}
	if dberr.Is(err, dberr.EKEYNOTFOUND) {
		m.pc = int(in.P2)
		return nil
	}
	return err
}

func (m *Machine) opCopy(in Instruction, deep bool) error {
	src := *m.reg(in.P1)
	if deep {
		if src.Bin != nil {
			src.Bin = append([]byte(nil), src.Bin...)
		}
	}
	m.setReg(in.P2, src)
	return nil
}

// compare returns the natural ordering of a versus b: negative if a < b,
// zero if equal, positive if a > b. A Null on either side always compares
// equal, a deliberately preserved quirk rather than a bug.
func compare(a, b Register) int {
	if a.Kind == KindNull || b.Kind == KindNull {
		return 0
	}
	switch a.Kind {
	case KindInt32:
		return int(a.Int) - int(b.Int)
	case KindString:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	case KindBinary:
		n := len(a.Bin)
		if len(b.Bin) < n {
			n = len(b.Bin)
		}
		return bytes.Compare(a.Bin[:n], b.Bin[:n])
	default:
		return 0
	}
}

func (m *Machine) opBranch(in Instruction, truth func(cmp int) bool) error {
	cmp := compare(*m.reg(in.P1), *m.reg(in.P3))
	if truth(cmp) {
		m.pc = int(in.P2)
	}
	return nil
}

func registerFromValue(v record.Value) Register {
	switch v.Tag {
	case record.Int32:
		return Int32Register(v.Int)
	case record.String:
		return StringRegister(string(v.Bytes))
	case record.Binary:
		return BinaryRegister(v.Bytes)
	default:
		return NullRegister()
	}
}

func valueFromRegister(r Register) record.Value {
	switch r.Kind {
	case KindInt32:
		return record.Int32Value(r.Int)
	case KindString:
		return record.StringValue(r.Str)
	case KindBinary:
		return record.BinaryValue(r.Bin)
	default:
		return record.NullValue()
	}
}

func (m *Machine) opColumn(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	cell, err := s.cur.Cell()
	if err != nil {
		return err
	}
	v, err := record.Column(cell.Payload, uint32(in.P2))
	if err != nil {
		return err
	}
	m.setReg(in.P3, registerFromValue(v))
	return nil
}

func (m *Machine) opKey(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	cell, err := s.cur.Cell()
	if err != nil {
		return err
	}
	m.setReg(in.P2, Int32Register(int32(cell.Key)))
	return nil
}

func (m *Machine) opResultRow(in Instruction) error {
	row := make([]Register, in.P2)
	for i := int32(0); i < in.P2; i++ {
		row[i] = *m.reg(in.P1 + i)
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *Machine) opMakeRecord(in Instruction) error {
	values := make([]record.Value, in.P2)
	for i := int32(0); i < in.P2; i++ {
		values[i] = valueFromRegister(*m.reg(in.P1 + i))
	}
	buf := record.Encode(record.Row{Values: values})
	m.setReg(in.P3, BinaryRegister(buf))
	return nil
}

func (m *Machine) opInsert(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	key := uint32(m.reg(in.P3).Int)
	data := m.reg(in.P2).Bin
	return s.tree.Insert(&btree.Cell{Type: btree.TableLeaf, Key: key, Payload: data})
}

func (m *Machine) opIdxCmp(in Instruction, truth func(cmp int) bool) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	cell, err := s.cur.Cell()
	if err != nil {
		return err
	}
	cmp := int(int32(cell.Key)) - int(m.reg(in.P3).Int)
	if truth(cmp) {
		m.pc = int(in.P2)
	}
	return nil
}

func (m *Machine) opIdxPKey(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	cell, err := s.cur.Cell()
	if err != nil {
		return err
	}
	m.setReg(in.P2, Int32Register(int32(cell.KeyPk)))
	return nil
}

func (m *Machine) opIdxInsert(in Instruction) error {
	s, err := m.slot(in.P1)
	if err != nil {
		return err
	}
	idxKey := uint32(m.reg(in.P2).Int)
	pk := uint32(m.reg(in.P3).Int)
	return s.tree.Insert(&btree.Cell{Type: btree.IndexLeaf, Key: idxKey, KeyPk: pk})
}

func (m *Machine) opCreate(in Instruction, typ btree.NodeType) error {
	pageNo, err := btree.NewRoot(m.Pager, typ)
	if err != nil {
		return err
	}
	m.setReg(in.P1, Int32Register(int32(pageNo)))
	return nil
}
