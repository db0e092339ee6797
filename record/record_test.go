package record

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	row := Row{Values: []Value{
		Int32Value(42),
		StringValue("hello"),
		NullValue(),
		BinaryValue([]byte{0x01, 0x02, 0x03}),
	}}

	buf := Encode(row)
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Values) != len(row.Values) {
		t.Fatalf("got %d columns, want %d", len(got.Values), len(row.Values))
	}
	for i, v := range row.Values {
		g := got.Values[i]
		if g.Tag != v.Tag || g.Int != v.Int || !bytes.Equal(g.Bytes, v.Bytes) {
			t.Errorf("column %d: got %+v, want %+v", i, g, v)
		}
	}
}

func TestColumnReadsSinglePosition(t *testing.T) {
	row := Row{Values: []Value{
		StringValue("first"),
		Int32Value(7),
		StringValue("third"),
	}}
	buf := Encode(row)

	if n := ColumnCount(buf); n != 3 {
		t.Fatalf("ColumnCount = %d, want 3", n)
	}

	v, err := Column(buf, 1)
	if err != nil {
		t.Fatalf("Column(1): %v", err)
	}
	if v.Tag != Int32 || v.Int != 7 {
		t.Errorf("Column(1) = %+v, want Int32Value(7)", v)
	}

	v, err = Column(buf, 2)
	if err != nil {
		t.Fatalf("Column(2): %v", err)
	}
	if v.Tag != String || string(v.Bytes) != "third" {
		t.Errorf("Column(2) = %+v, want StringValue(\"third\")", v)
	}
}

func TestColumnOutOfRange(t *testing.T) {
	buf := Encode(Row{Values: []Value{Int32Value(1)}})
	if _, err := Column(buf, 5); err == nil {
		t.Errorf("expected error indexing past the column count")
	}
}

func TestEmptyRow(t *testing.T) {
	buf := Encode(Row{})
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode empty row: %v", err)
	}
	if len(got.Values) != 0 {
		t.Errorf("expected zero columns, got %d", len(got.Values))
	}
}
