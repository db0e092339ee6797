// Package dbm implements the register-based virtual machine that runs
// directly against the btree package: a small, fixed instruction set
// operating on an auto-growing register file and an auto-growing array of
// table/index cursors, with no SQL compiler anywhere in sight.
package dbm

// Kind discriminates which of a Register's fields holds the live value.
type Kind byte

const (
	KindNull Kind = iota
	KindInt32
	KindString
	KindBinary
)

// Register holds one typed value. Instructions that write a register
// always overwrite all three payload fields' relevance by setting Kind;
// stale bytes left over from a previous write are never read back.
type Register struct {
	Kind Kind
	Int  int32
	Str  string
	Bin  []byte
}

func NullRegister() Register            { return Register{Kind: KindNull} }
func Int32Register(v int32) Register    { return Register{Kind: KindInt32, Int: v} }
func StringRegister(s string) Register  { return Register{Kind: KindString, Str: s} }
func BinaryRegister(b []byte) Register  { return Register{Kind: KindBinary, Bin: b} }
