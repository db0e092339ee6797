package btree

import (
	"testing"

	"minidb/pager"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	p := pager.NewMemory()
	tree, err := Open(p, pager.DefaultPageSize)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tree
}

func TestInitEmptyNodeHeaderFields(t *testing.T) {
	p := pager.NewMemory()
	p.SetPageSize(pager.DefaultPageSize)
	pageNo, err := p.AllocPage()
	if err != nil {
		t.Fatalf("AllocPage: %v", err)
	}
	view, err := p.ReadPage(pageNo)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}

	n := initEmptyNode(view, TableLeaf)
	if n.NCells != 0 {
		t.Errorf("NCells = %d, want 0", n.NCells)
	}
	if n.CellsOffset != uint16(pager.DefaultPageSize) {
		t.Errorf("CellsOffset = %d, want %d", n.CellsOffset, pager.DefaultPageSize)
	}
	// Page 1 carries the file header, so the node header starts at byte 100.
	if n.FreeOffset != uint16(pager.HeaderSize+8) {
		t.Errorf("FreeOffset = %d, want %d", n.FreeOffset, pager.HeaderSize+8)
	}

	reloaded, err := loadNode(view)
	if err != nil {
		t.Fatalf("loadNode: %v", err)
	}
	if reloaded.Type != TableLeaf || reloaded.NCells != 0 {
		t.Errorf("reloaded node mismatch: %+v", reloaded)
	}
}

func TestOffsetArrayGrowsUpwardCellsGrowDownward(t *testing.T) {
	tree := newTestTree(t)
	root, err := tree.readNode(tree.Root)
	if err != nil {
		t.Fatalf("readNode: %v", err)
	}

	cells := []*Cell{
		{Type: TableLeaf, Key: 5, Payload: []byte("five")},
		{Type: TableLeaf, Key: 3, Payload: []byte("three")},
		{Type: TableLeaf, Key: 9, Payload: []byte("nine")},
	}
	for i, c := range cells {
		if err := root.insertCellAt(i, c); err != nil {
			t.Fatalf("insertCellAt(%d): %v", i, err)
		}
	}

	if int(root.NCells) != len(cells) {
		t.Fatalf("NCells = %d, want %d", root.NCells, len(cells))
	}
	// cells_offset should have decreased by the cumulative cell size, and
	// free_offset increased by 2 bytes per cell (one offset-array entry).
	if root.CellsOffset >= uint16(tree.Pager.PageSize()) {
		t.Errorf("CellsOffset did not move down from the end of the page")
	}
	if root.FreeOffset != uint16(pager.HeaderSize+8+2*len(cells)) {
		t.Errorf("FreeOffset = %d, want %d", root.FreeOffset, pager.HeaderSize+8+2*len(cells))
	}

	for i := 0; i < int(root.NCells)-1; i++ {
		a, _ := root.cellOffset(i)
		b, _ := root.cellOffset(i + 1)
		if a == b {
			t.Errorf("duplicate cell offsets at %d and %d", i, i+1)
		}
	}
}
