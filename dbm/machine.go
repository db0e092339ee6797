package dbm

import (
	"minidb/btree"
	"minidb/dberr"
	"minidb/pager"
)

// cursorSlot is the live state behind one DBM cursor number: a btree
// cursor positioned over a tree rooted at whatever page number the
// opening OpenRead/OpenWrite instruction's register held.
type cursorSlot struct {
	cur      *btree.Cursor
	tree     *btree.Tree
	ncols    int32 // 0 means this is an index cursor
	writable bool
}

// Machine is one DBM run: a shared pager, an auto-growing register file,
// an auto-growing cursor array, and the program counter driving the
// dispatch loop in Run. Unlike the teacher's stack machine, every opcode
// here addresses its operands by register/cursor number rather than by
// pushing and popping a stack.
type Machine struct {
	Pager pager.Pager

	registers []Register
	cursors   []*cursorSlot
	pc        int
	halted    bool
	exitCode  int32
	rows      [][]Register
}

// NewMachine creates a Machine over an already-open Pager. p is typically
// the result of pager.NewFile/NewMemory wrapped by an already-opened
// btree.Tree at page 1 — the Machine itself does not require page 1 to
// hold a table; CreateTable/CreateIndex and OpenRead/OpenWrite govern
// which pages are ever touched.
func NewMachine(p pager.Pager) *Machine {
	return &Machine{Pager: p}
}

// Rows returns every row emitted by ResultRow instructions run so far.
func (m *Machine) Rows() [][]Register {
	return m.rows
}

// ExitCode returns the operand of the Halt instruction that stopped the
// machine, or 0 if it ran off the end of the program without one.
func (m *Machine) ExitCode() int32 {
	return m.exitCode
}

// Run executes program from whatever pc the machine is currently at (0 for
// a freshly constructed Machine) until a Halt instruction runs or the
// program counter runs past the end of program.
func (m *Machine) Run(program []Instruction) error {
	for !m.halted && m.pc >= 0 && m.pc < len(program) {
		in := program[m.pc]
		m.pc++
		if err := m.exec(in); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) reg(i int32) *Register {
	if int(i) >= len(m.registers) {
		grown := make([]Register, i+1)
		copy(grown, m.registers)
		m.registers = grown
	}
	return &m.registers[i]
}

func (m *Machine) setReg(i int32, v Register) {
	*m.reg(i) = v
}

func (m *Machine) slot(i int32) (*cursorSlot, error) {
	if int(i) >= len(m.cursors) || m.cursors[i] == nil {
		return nil, dberr.New(dberr.EPAGENO, "dbm.Machine.slot", nil)
	}
	return m.cursors[i], nil
}

func (m *Machine) setSlot(i int32, s *cursorSlot) {
	if int(i) >= len(m.cursors) {
		grown := make([]*cursorSlot, i+1)
		copy(grown, m.cursors)
		m.cursors = grown
	}
	m.cursors[i] = s
}

func (m *Machine) exec(in Instruction) error {
	switch in.Opcode {
	case OpenRead:
		return m.opOpen(in, false)
	case OpenWrite:
		return m.opOpen(in, true)
	case Close:
		return m.opClose(in)
	case Rewind:
		return m.opRewind(in)
	case Next:
		return m.opNext(in)
	case Prev:
		return m.opPrev(in)
	case Seek:
		return m.opSeek(in, seekEq)
	case SeekGt:
		return m.opSeek(in, seekGt)
	case SeekGe:
		return m.opSeek(in, seekGe)
	case SeekLt:
		return m.opSeek(in, seekLt)
	case SeekLe:
		return m.opSeek(in, seekLe)
	case Integer:
		m.setReg(in.P2, Int32Register(in.P1))
		return nil
	case String:
		m.setReg(in.P2, StringRegister(in.P4))
		return nil
	case Null:
		m.setReg(in.P2, NullRegister())
		return nil
	case Copy:
		return m.opCopy(in, true)
	case SCopy:
		return m.opCopy(in, false)
	case Eq:
		return m.opBranch(in, func(c int) bool { return c == 0 })
	case Ne:
		return m.opBranch(in, func(c int) bool { return c != 0 })
	case Lt:
		return m.opBranch(in, func(c int) bool { return c < 0 })
	case Le:
		return m.opBranch(in, func(c int) bool { return c <= 0 })
	case Gt:
		return m.opBranch(in, func(c int) bool { return c > 0 })
	case Ge:
		return m.opBranch(in, func(c int) bool { return c >= 0 })
	case Column:
		return m.opColumn(in)
	case Key:
		return m.opKey(in)
	case ResultRow:
		return m.opResultRow(in)
	case MakeRecord:
		return m.opMakeRecord(in)
	case Insert:
		return m.opInsert(in)
	case IdxGt:
		return m.opIdxCmp(in, func(c int) bool { return c > 0 })
	case IdxGe:
		return m.opIdxCmp(in, func(c int) bool { return c >= 0 })
	case IdxLt:
		return m.opIdxCmp(in, func(c int) bool { return c < 0 })
	case IdxLe:
		return m.opIdxCmp(in, func(c int) bool { return c <= 0 })
	case IdxPKey:
		return m.opIdxPKey(in)
	case IdxInsert:
		return m.opIdxInsert(in)
	case CreateTable:
		return m.opCreate(in, btree.TableLeaf)
	case CreateIndex:
		return m.opCreate(in, btree.IndexLeaf)
	case Halt:
		m.halted = true
		m.exitCode = in.P1
		return nil
	default:
		return dberr.New(dberr.EIO, "dbm.Machine.exec", nil)
	}
}
