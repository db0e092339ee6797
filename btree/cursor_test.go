package btree

import (
	"bytes"
	"testing"

	"minidb/dberr"
	"minidb/pager"
)

// TestScenarioS5CursorNextAcrossSubtrees covers spec scenario S5: in a
// tall table B-tree built from keys 1..1000, rewinding and calling Next
// 999 times yields keys 2..1000, and the 1000th Next returns ENONEXT
// without moving the cursor off the last key.
func TestScenarioS5CursorNextAcrossSubtrees(t *testing.T) {
	tree := newTestTree(t)
	for key := uint32(1); key <= 1000; key++ {
		if err := tree.Insert(&Cell{Type: TableLeaf, Key: key, Payload: []byte("v")}); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}

	root, err := tree.readNode(tree.Root)
	if err != nil {
		t.Fatalf("readNode: %v", err)
	}
	if !root.Type.IsInternal() {
		t.Fatalf("expected a multi-level tree after 1000 inserts")
	}
	tree.releaseNode(root)

	cur, err := NewCursor(tree)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	defer cur.Close()
	if err := cur.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}

	c, err := cur.Cell()
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if c.Key != 1 {
		t.Fatalf("first key = %d, want 1", c.Key)
	}

	for i := 0; i < 999; i++ {
		if err := cur.Next(); err != nil {
			t.Fatalf("Next() call %d: %v", i+1, err)
		}
		c, err := cur.Cell()
		if err != nil {
			t.Fatalf("Cell after Next %d: %v", i+1, err)
		}
		if c.Key != uint32(i+2) {
			t.Fatalf("after %d Next calls, key = %d, want %d", i+1, c.Key, i+2)
		}
	}

	if err := cur.Next(); !dberr.Is(err, dberr.ENONEXT) {
		t.Fatalf("1000th Next: got %v, want ENONEXT", err)
	}
	c, err = cur.Cell()
	if err != nil {
		t.Fatalf("Cell after ENONEXT: %v", err)
	}
	if c.Key != 1000 {
		t.Fatalf("cursor moved after ENONEXT: key = %d, want 1000", c.Key)
	}
}

func TestCursorPrevMirrorsNext(t *testing.T) {
	tree := newTestTree(t)
	for key := uint32(1); key <= 300; key++ {
		if err := tree.Insert(&Cell{Type: TableLeaf, Key: key, Payload: []byte("v")}); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}

	cur, err := NewCursor(tree)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	defer cur.Close()

	if err := cur.SeekGe(300); err != nil {
		t.Fatalf("SeekGe(300): %v", err)
	}

	for i := 0; i < 299; i++ {
		if err := cur.Prev(); err != nil {
			t.Fatalf("Prev() call %d: %v", i+1, err)
		}
		c, err := cur.Cell()
		if err != nil {
			t.Fatalf("Cell after Prev %d: %v", i+1, err)
		}
		if want := uint32(299 - i); c.Key != want {
			t.Fatalf("after %d Prev calls, key = %d, want %d", i+1, c.Key, want)
		}
	}

	if err := cur.Prev(); !dberr.Is(err, dberr.ENOPREV) {
		t.Fatalf("Prev past first key: got %v, want ENOPREV", err)
	}
}

func TestCursorSeekFamily(t *testing.T) {
	tree := newTestTree(t)
	for _, key := range []uint32{10, 20, 30, 40, 50} {
		if err := tree.Insert(&Cell{Type: TableLeaf, Key: key, Payload: []byte("v")}); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}
	cur, err := NewCursor(tree)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	defer cur.Close()

	if err := cur.Seek(30); err != nil {
		t.Fatalf("Seek(30): %v", err)
	}
	if c, _ := cur.Cell(); c.Key != 30 {
		t.Errorf("Seek(30) landed on %d", c.Key)
	}

	if err := cur.SeekGe(25); err != nil {
		t.Fatalf("SeekGe(25): %v", err)
	}
	if c, _ := cur.Cell(); c.Key != 30 {
		t.Errorf("SeekGe(25) landed on %d, want 30", c.Key)
	}

	if err := cur.SeekGt(30); err != nil {
		t.Fatalf("SeekGt(30): %v", err)
	}
	if c, _ := cur.Cell(); c.Key != 40 {
		t.Errorf("SeekGt(30) landed on %d, want 40", c.Key)
	}

	if err := cur.SeekLe(35); err != nil {
		t.Fatalf("SeekLe(35): %v", err)
	}
	if c, _ := cur.Cell(); c.Key != 30 {
		t.Errorf("SeekLe(35) landed on %d, want 30", c.Key)
	}

	if err := cur.SeekLt(30); err != nil {
		t.Fatalf("SeekLt(30): %v", err)
	}
	if c, _ := cur.Cell(); c.Key != 20 {
		t.Errorf("SeekLt(30) landed on %d, want 20", c.Key)
	}

	if err := cur.SeekGe(9980); !dberr.Is(err, dberr.EKEYNOTFOUND) {
		t.Errorf("SeekGe beyond every key: got %v, want EKEYNOTFOUND", err)
	}
}

// TestCursorSeekLtAcrossLeafBoundary covers the case TestCursorSeekFamily's
// single-leaf tree can't: forcing enough splits that some keys sit at
// index 0 of a leaf other than the tree's leftmost one, and checking that
// SeekLt still finds the true predecessor in the previous leaf instead of
// reporting EKEYNOTFOUND just because it landed at the start of a leaf.
func TestCursorSeekLtAcrossLeafBoundary(t *testing.T) {
	p := pager.NewMemory()
	tree, err := Open(p, pager.DefaultPageSize)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	payload := bytes.Repeat([]byte("x"), 200)
	for key := uint32(1); key <= 100; key++ {
		if err := tree.Insert(&Cell{Type: TableLeaf, Key: key, Payload: payload}); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}

	cur, err := NewCursor(tree)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	defer cur.Close()

	for key := uint32(2); key <= 100; key++ {
		if err := cur.SeekLt(key); err != nil {
			t.Fatalf("SeekLt(%d): %v", key, err)
		}
		c, err := cur.Cell()
		if err != nil {
			t.Fatalf("Cell after SeekLt(%d): %v", key, err)
		}
		if c.Key != key-1 {
			t.Fatalf("SeekLt(%d) landed on %d, want %d", key, c.Key, key-1)
		}
	}

	if err := cur.SeekLt(1); !dberr.Is(err, dberr.EKEYNOTFOUND) {
		t.Errorf("SeekLt(1): got %v, want EKEYNOTFOUND", err)
	}
}

// TestCursorPrevAcrossIndexInternal covers the Prev resolution spec.md §9
// calls out: ascending past an exhausted child into an IndexInternal
// ancestor must stop on the ancestor's own cell (a valid standalone entry
// for index trees), not descend rightmost into the previous child and
// skip it. Builds the exact two-level tree from that resolution by hand:
// root cells [(key=10,child=A), (key=20,child=B)], right_page=C, A holding
// key 9 and B holding key 12; positioned on B's only cell, Prev should
// land on key 10 (the root's own cell), not key 9.
func TestCursorPrevAcrossIndexInternal(t *testing.T) {
	p := pager.NewMemory()
	tree, err := Open(p, pager.DefaultPageSize)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	newLeaf := func(key uint32) *Node {
		n, err := tree.newNode(IndexLeaf)
		if err != nil {
			t.Fatalf("newNode(IndexLeaf): %v", err)
		}
		if err := n.insertCellAt(0, &Cell{Type: IndexLeaf, Key: key, KeyPk: key}); err != nil {
			t.Fatalf("insertCellAt: %v", err)
		}
		if err := tree.writeNode(n); err != nil {
			t.Fatalf("writeNode: %v", err)
		}
		return n
	}

	a := newLeaf(9)
	b := newLeaf(12)
	c := newLeaf(15)
	if err := tree.releaseNode(a); err != nil {
		t.Fatalf("releaseNode(a): %v", err)
	}
	if err := tree.releaseNode(c); err != nil {
		t.Fatalf("releaseNode(c): %v", err)
	}

	root, err := tree.newNode(IndexInternal)
	if err != nil {
		t.Fatalf("newNode(IndexInternal): %v", err)
	}
	if err := root.insertCellAt(0, &Cell{Type: IndexInternal, Key: 10, KeyPk: 10, ChildPage: a.PageNo}); err != nil {
		t.Fatalf("insertCellAt(0): %v", err)
	}
	if err := root.insertCellAt(1, &Cell{Type: IndexInternal, Key: 20, KeyPk: 20, ChildPage: b.PageNo}); err != nil {
		t.Fatalf("insertCellAt(1): %v", err)
	}
	root.RightPage = c.PageNo
	if err := tree.writeNode(root); err != nil {
		t.Fatalf("writeNode(root): %v", err)
	}
	tree.Root = root.PageNo
	if err := tree.releaseNode(root); err != nil {
		t.Fatalf("releaseNode(root): %v", err)
	}
	if err := tree.releaseNode(b); err != nil {
		t.Fatalf("releaseNode(b): %v", err)
	}

	cur, err := NewCursor(tree)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	defer cur.Close()

	// Descend via the root's cell index 1 (child B), landing on B's only
	// cell, the same position SeekGe(12) would reach.
	if err := cur.SeekGe(12); err != nil {
		t.Fatalf("SeekGe(12): %v", err)
	}
	if got, err := cur.Cell(); err != nil || got.Key != 12 {
		t.Fatalf("SeekGe(12) landed on %+v, err %v", got, err)
	}

	if err := cur.Prev(); err != nil {
		t.Fatalf("Prev: %v", err)
	}
	got, err := cur.Cell()
	if err != nil {
		t.Fatalf("Cell after Prev: %v", err)
	}
	if got.Key != 10 {
		t.Fatalf("Prev from B's first cell landed on key %d, want 10 (root's own cell)", got.Key)
	}
}
