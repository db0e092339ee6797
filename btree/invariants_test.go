package btree

import (
	"testing"

	"minidb/dberr"
)

// TestInvariantSpaceAccounting covers spec invariant 3: after every
// successful insertCellAt, free_offset <= cells_offset.
func TestInvariantSpaceAccounting(t *testing.T) {
	tree := newTestTree(t)
	view, err := tree.Pager.ReadPage(1)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	n, err := loadNode(view)
	if err != nil {
		t.Fatalf("loadNode: %v", err)
	}

	for i, key := range []uint32{5, 1, 9, 3, 7} {
		c := &Cell{Type: TableLeaf, Key: key, Payload: []byte("payload")}
		if !nodeCanFit(n, c) {
			t.Fatalf("unexpected full node before insert %d", i)
		}
		if err := n.insertCellAt(i, c); err != nil {
			t.Fatalf("insertCellAt(%d): %v", i, err)
		}
		if n.FreeOffset > n.CellsOffset {
			t.Fatalf("after insert %d: free_offset %d > cells_offset %d", i, n.FreeOffset, n.CellsOffset)
		}
	}
}

// TestInvariantSplitPreservesOrderingAndMembership covers spec invariant 6:
// after splits, the leaf cells hold exactly the inserted key set, each key
// once, and every node is individually sorted. In a table B-tree the
// median key pushed into the parent is a copy of a key that stays in the
// left leaf, so internal keys are not counted as members.
func TestInvariantSplitPreservesOrderingAndMembership(t *testing.T) {
	tree := newTestTree(t)

	var inserted []uint32
	for key := uint32(1); key <= 60; key++ {
		if err := tree.Insert(&Cell{Type: TableLeaf, Key: key, Payload: make([]byte, 20)}); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
		inserted = append(inserted, key)
	}

	root, err := tree.readNode(tree.Root)
	if err != nil {
		t.Fatalf("readNode(root): %v", err)
	}
	if !root.Type.IsInternal() {
		t.Fatalf("expected root to have split")
	}

	seen := make(map[uint32]bool)
	var collect func(pageNo uint32) error
	collect = func(pageNo uint32) error {
		n, err := tree.readNode(pageNo)
		if err != nil {
			return err
		}
		defer tree.releaseNode(n)
		var prevKey uint32
		havePrev := false
		for i := 0; i < int(n.NCells); i++ {
			c, err := n.cellAt(i)
			if err != nil {
				return err
			}
			if havePrev && c.Key <= prevKey {
				t.Fatalf("node %d not sorted: %d then %d", pageNo, prevKey, c.Key)
			}
			prevKey, havePrev = c.Key, true
			if n.Type.IsInternal() {
				if err := collect(c.ChildPage); err != nil {
					return err
				}
				continue
			}
			if seen[c.Key] {
				t.Fatalf("key %d appears in more than one leaf after split", c.Key)
			}
			seen[c.Key] = true
		}
		if n.Type.IsInternal() && n.RightPage != 0 {
			if err := collect(n.RightPage); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(tree.Root); err != nil {
		t.Fatalf("collect: %v", err)
	}
	tree.releaseNode(root)

	if len(seen) != len(inserted) {
		t.Fatalf("post-split key set has %d members, want %d", len(seen), len(inserted))
	}
	for _, k := range inserted {
		if !seen[k] {
			t.Fatalf("key %d missing after split", k)
		}
	}
}

// TestInvariantDuplicateLeavesTreeByteIdentical covers spec invariant 7:
// a rejected duplicate insert leaves the root page byte-identical.
func TestInvariantDuplicateLeavesTreeByteIdentical(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Insert(&Cell{Type: TableLeaf, Key: 1, Payload: []byte("a")}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	before, err := tree.Pager.ReadPage(tree.Root)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	snapshot := append([]byte(nil), before.Data...)

	if err := tree.Insert(&Cell{Type: TableLeaf, Key: 1, Payload: []byte("z")}); !dberr.Is(err, dberr.EDUPLICATE) {
		t.Fatalf("duplicate Insert: got %v, want EDUPLICATE", err)
	}

	after, err := tree.Pager.ReadPage(tree.Root)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i := range snapshot {
		if snapshot[i] != after.Data[i] {
			t.Fatalf("root page byte %d changed after rejected duplicate insert", i)
		}
	}
}
