// Package record encodes and decodes the rows stored as TABLE_LEAF
// payloads. A Row here plays the same role as the teacher's types.Row
// (a named bag of column values), but where the teacher keeps that bag
// purely in memory, record serializes it to the tagged-column byte
// layout the DBM's MakeRecord/Column opcodes operate on.
package record

import (
	"minidb/dberr"
	"minidb/pagecodec"
)

// Tag identifies the type of an encoded column value.
type Tag byte

const (
	Null   Tag = 0
	Int32  Tag = 1
	String Tag = 2
	Binary Tag = 3
)

// Value is one column's worth of typed data, mirroring the DBM
// register's Null/Int32/String/Binary kinds so a row's columns can be
// copied straight into registers by Column and back out by MakeRecord.
type Value struct {
	Tag   Tag
	Int   int32
	Bytes []byte // String (UTF-8) or Binary
}

func NullValue() Value           { return Value{Tag: Null} }
func Int32Value(v int32) Value   { return Value{Tag: Int32, Int: v} }
func StringValue(s string) Value { return Value{Tag: String, Bytes: []byte(s)} }
func BinaryValue(b []byte) Value { return Value{Tag: Binary, Bytes: b} }

// Row is an ordered tuple of column values — ordered because a
// TABLE_LEAF payload has no column names, only positions; the schema
// that maps names to positions lives above this package.
type Row struct {
	Values []Value
}

// Encode serializes r into the tagged-column byte layout: a leading
// varint32 column count, then for each column a 1-byte tag followed by
// that tag's payload (nothing for Null, 4 big-endian bytes for Int32, a
// varint32 length plus raw bytes for String/Binary).
func Encode(r Row) []byte {
	size := pagecodec.Varint32Len(uint32(len(r.Values)))
	for _, v := range r.Values {
		size += encodedValueSize(v)
	}
	buf := make([]byte, size)
	off := pagecodec.PutVarint32(buf, uint32(len(r.Values)))
	for _, v := range r.Values {
		off += encodeValue(buf[off:], v)
	}
	return buf
}

func encodedValueSize(v Value) int {
	switch v.Tag {
	case Null:
		return 1
	case Int32:
		return 1 + 4
	case String, Binary:
		return 1 + pagecodec.Varint32Len(uint32(len(v.Bytes))) + len(v.Bytes)
	default:
		return 1
	}
}

func encodeValue(buf []byte, v Value) int {
	buf[0] = byte(v.Tag)
	switch v.Tag {
	case Null:
		return 1
	case Int32:
		pagecodec.PutUint32(buf[1:5], uint32(v.Int))
		return 5
	case String, Binary:
		n := pagecodec.PutVarint32(buf[1:], uint32(len(v.Bytes)))
		copy(buf[1+n:], v.Bytes)
		return 1 + n + len(v.Bytes)
	default:
		return 1
	}
}

// Decode parses a Row out of a TABLE_LEAF payload produced by Encode.
func Decode(buf []byte) (Row, error) {
	ncols, n := pagecodec.GetVarint32(buf)
	off := n
	values := make([]Value, 0, ncols)
	for i := uint32(0); i < ncols; i++ {
		v, consumed, err := decodeValue(buf[off:])
		if err != nil {
			return Row{}, err
		}
		values = append(values, v)
		off += consumed
	}
	return Row{Values: values}, nil
}

func decodeValue(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, dberr.New(dberr.ECORRUPTHEADER, "record.decodeValue", nil)
	}
	tag := Tag(buf[0])
	switch tag {
	case Null:
		return Value{Tag: Null}, 1, nil
	case Int32:
		if len(buf) < 5 {
			return Value{}, 0, dberr.New(dberr.ECORRUPTHEADER, "record.decodeValue", nil)
		}
		return Value{Tag: Int32, Int: int32(pagecodec.GetUint32(buf[1:5]))}, 5, nil
	case String, Binary:
		length, n := pagecodec.GetVarint32(buf[1:])
		start := 1 + n
		if len(buf) < start+int(length) {
			return Value{}, 0, dberr.New(dberr.ECORRUPTHEADER, "record.decodeValue", nil)
		}
		data := append([]byte(nil), buf[start:start+int(length)]...)
		return Value{Tag: tag, Bytes: data}, start + int(length), nil
	default:
		return Value{}, 0, dberr.New(dberr.ECORRUPTHEADER, "record.decodeValue", nil)
	}
}

// ColumnCount returns the number of columns encoded in buf without
// decoding every value, matching the DBM Column opcode's need to index
// into a record by position.
func ColumnCount(buf []byte) uint32 {
	n, _ := pagecodec.GetVarint32(buf)
	return n
}

// Column returns the i-th column's value from an encoded row. It decodes
// the columns before it to find its offset, but not the columns after it.
func Column(buf []byte, i uint32) (Value, error) {
	ncols, n := pagecodec.GetVarint32(buf)
	if i >= ncols {
		return Value{}, dberr.New(dberr.ECELLNO, "record.Column", nil)
	}
	off := n
	for col := uint32(0); col < ncols; col++ {
		v, consumed, err := decodeValue(buf[off:])
		if err != nil {
			return Value{}, err
		}
		if col == i {
			return v, nil
		}
		off += consumed
	}
	return Value{}, dberr.New(dberr.ECELLNO, "record.Column", nil)
}
