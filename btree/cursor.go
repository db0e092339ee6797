package btree

import "minidb/dberr"

// entry is one level of a Cursor's root-to-current path: the node loaded
// at that depth and which cell index the cursor is pointing at there.
// There are no parent back-pointers anywhere in this package — the path
// slice is the only record of how a node was reached, exactly as the
// cursor this is grounded on keeps a parallel nodes/cells array indexed
// by depth instead of linking nodes to their parents.
type entry struct {
	node *Node
	cell int
}

// Cursor walks the B-tree rooted at a Tree's root page, cell by cell.
// Table cursors stop on every leaf cell; index cursors additionally stop
// on INDEX_INTERNAL cells (in key order during Next/Prev, or when a seek
// key matches one exactly), since those carry a usable primary key
// themselves.
type Cursor struct {
	tree *Tree
	path []entry
}

// NewCursor opens a cursor over tree, positioned at no particular cell
// until Rewind or one of the Seek family is called.
func NewCursor(tree *Tree) (*Cursor, error) {
	root, err := tree.readNode(tree.Root)
	if err != nil {
		return nil, err
	}
	return &Cursor{tree: tree, path: []entry{{node: root, cell: 0}}}, nil
}

// IsEmpty reports whether the cursor's tree currently has no cells at all,
// checked by reading its root page fresh rather than relying on whatever
// the cursor's path happens to be pointing at.
func (c *Cursor) IsEmpty() (bool, error) {
	root, err := c.tree.readNode(c.tree.Root)
	if err != nil {
		return false, err
	}
	empty := root.NCells == 0
	if err := c.tree.releaseNode(root); err != nil {
		return false, err
	}
	return empty, nil
}

// Close releases every node view the cursor is currently holding.
func (c *Cursor) Close() error {
	for _, e := range c.path {
		if err := c.tree.releaseNode(e.node); err != nil {
			return err
		}
	}
	c.path = nil
	return nil
}

func (c *Cursor) current() *entry {
	return &c.path[len(c.path)-1]
}

func (c *Cursor) currentIsLeaf() bool {
	return !c.current().node.Type.IsInternal()
}

// Cell returns the cell the cursor currently points at.
func (c *Cursor) Cell() (*Cell, error) {
	e := c.current()
	return e.node.cellAt(e.cell)
}

// goToRoot collapses the path back to just the root, releasing every
// deeper node, without changing which cell the root entry points at.
func (c *Cursor) goToRoot() {
	for len(c.path) > 1 {
		c.goToParent()
	}
}

// goToParent releases the current node and pops back up one level.
func (c *Cursor) goToParent() {
	last := len(c.path) - 1
	c.tree.releaseNode(c.path[last].node)
	c.path = c.path[:last]
}

// goDownCurrentCell descends into the child pointed at by the current
// cell (or the right_page, if the cursor is past the last cell),
// pushing a new path entry positioned at that child's first cell.
func (c *Cursor) goDownCurrentCell() error {
	e := c.current()
	var nextPage uint32
	if e.cell == int(e.node.NCells) {
		nextPage = e.node.RightPage
	} else {
		cell, err := e.node.cellAt(e.cell)
		if err != nil {
			return err
		}
		nextPage = cell.ChildPage
	}
	child, err := c.tree.readNode(nextPage)
	if err != nil {
		return err
	}
	c.path = append(c.path, entry{node: child, cell: 0})
	return nil
}

// Rewind positions the cursor at the first cell of the tree.
func (c *Cursor) Rewind() error {
	c.goToRoot()
	c.current().cell = 0
	for !c.currentIsLeaf() {
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
	}
	return nil
}

// Next advances the cursor to the next cell in key order. It returns
// dberr.ENONEXT if the cursor was already on the last cell.
func (c *Cursor) Next() error {
	e := c.current()
	if e.node.Type == TableInternal {
		panic("btree.Cursor.Next: cursor is on a TABLE_INTERNAL node")
	}

	if e.cell+1 < int(e.node.NCells) {
		e.cell++
		if e.node.Type == IndexInternal {
			for !c.currentIsLeaf() {
				if err := c.goDownCurrentCell(); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if c.currentIsLeaf() {
		if len(c.path) == 1 {
			return dberr.New(dberr.ENONEXT, "btree.Cursor.Next", nil)
		}
		allRight := true
		for i := 0; i < len(c.path)-1; i++ {
			if c.path[i].cell != int(c.path[i].node.NCells) {
				allRight = false
				break
			}
		}
		if allRight {
			return dberr.New(dberr.ENONEXT, "btree.Cursor.Next", nil)
		}

		for {
			if len(c.path) == 1 {
				return dberr.New(dberr.ENONEXT, "btree.Cursor.Next", nil)
			}
			c.goToParent()
			if c.current().cell < int(c.current().node.NCells) {
				break
			}
		}

		if c.current().node.Type == IndexInternal {
			return nil
		}

		c.current().cell++
		for !c.currentIsLeaf() {
			if err := c.goDownCurrentCell(); err != nil {
				return err
			}
		}
		return nil
	}

	// Not a leaf and no easy next cell: must be INDEX_INTERNAL, follow
	// the right_page and descend to the leftmost leaf under it.
	c.current().cell = int(c.current().node.NCells)
	for !c.currentIsLeaf() {
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
	}
	return nil
}

// Prev moves the cursor to the previous cell in key order. It returns
// dberr.ENOPREV if the cursor was already on the first cell.
func (c *Cursor) Prev() error {
	e := c.current()
	if e.node.Type == TableInternal {
		panic("btree.Cursor.Prev: cursor is on a TABLE_INTERNAL node")
	}

	// On an INDEX_INTERNAL cell the predecessor is the rightmost entry of
	// that cell's child subtree.
	if e.node.Type == IndexInternal {
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
		for !c.currentIsLeaf() {
			c.current().cell = int(c.current().node.NCells)
			if err := c.goDownCurrentCell(); err != nil {
				return err
			}
		}
		c.current().cell = int(c.current().node.NCells) - 1
		return nil
	}

	if e.cell-1 >= 0 {
		e.cell--
		return nil
	}

	if len(c.path) == 1 {
		return dberr.New(dberr.ENOPREV, "btree.Cursor.Prev", nil)
	}
	allLeft := true
	for i := 0; i < len(c.path)-1; i++ {
		if c.path[i].cell > 0 {
			allLeft = false
			break
		}
	}
	if allLeft {
		return dberr.New(dberr.ENOPREV, "btree.Cursor.Prev", nil)
	}

	for {
		c.goToParent()
		if c.current().cell != 0 {
			break
		}
	}

	if c.current().node.Type == IndexInternal {
		c.current().cell--
		return nil
	}

	c.current().cell--
	for !c.currentIsLeaf() {
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
		c.current().cell = int(c.current().node.NCells)
	}
	c.current().cell = int(c.current().node.NCells) - 1
	return nil
}

// findCellIndex returns the index of the first cell in n with key <=
// its own key, and that cell (or nil if n has no such cell).
func findCellIndex(n *Node, key uint32) (int, *Cell, error) {
	for i := 0; i < int(n.NCells); i++ {
		cell, err := n.cellAt(i)
		if err != nil {
			return 0, nil, err
		}
		if key <= cell.Key {
			return i, cell, nil
		}
	}
	return int(n.NCells), nil, nil
}

// seekPartial descends from the root following key, stopping either at
// an exact INDEX_INTERNAL match or at a leaf, and returns the index and
// cell the cursor ends up pointing at (cell is nil if the leaf has no
// cell at that index, i.e. the index equals the leaf's cell count).
func (c *Cursor) seekPartial(key uint32) (int, *Cell, error) {
	c.goToRoot()

	for !c.currentIsLeaf() {
		n := c.current().node
		i, cell, err := findCellIndex(n, key)
		if err != nil {
			return 0, nil, err
		}
		c.current().cell = i
		if n.Type == IndexInternal && cell != nil && cell.Key == key {
			return i, cell, nil
		}
		if err := c.goDownCurrentCell(); err != nil {
			return 0, nil, err
		}
	}

	n := c.current().node
	i, cell, err := findCellIndex(n, key)
	if err != nil {
		return 0, nil, err
	}
	c.current().cell = i
	return i, cell, nil
}

// Seek positions the cursor exactly on the cell with key, or returns
// dberr.EKEYNOTFOUND if no such cell exists.
func (c *Cursor) Seek(key uint32) error {
	i, cell, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	if i == int(c.current().node.NCells) || cell.Key != key {
		return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.Seek", nil)
	}
	return nil
}

// SeekGe positions the cursor on the first cell with key >= the sought
// key.
func (c *Cursor) SeekGe(key uint32) error {
	i, cell, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	n := c.current().node
	if i == int(n.NCells) {
		if n.Type == TableLeaf {
			return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekGe", nil)
		}
		if err := c.Next(); err != nil {
			return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekGe", err)
		}
		return nil
	}
	switch n.Type {
	case TableLeaf, IndexInternal:
		return nil
	case IndexLeaf:
		if key > cell.Key {
			if err := c.Next(); err != nil {
				return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekGe", err)
			}
		}
		return nil
	}
	return nil
}

// SeekGt positions the cursor on the first cell with key strictly
// greater than the sought key.
func (c *Cursor) SeekGt(key uint32) error {
	i, cell, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	n := c.current().node
	if i == int(n.NCells) {
		if err := c.Next(); err != nil {
			return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekGt", err)
		}
		return nil
	}
	if key == cell.Key {
		if err := c.Next(); err != nil {
			return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekGt", err)
		}
	}
	return nil
}

// SeekLe positions the cursor on the last cell with key <= the sought
// key: the true mirror of SeekGe, walking backwards via Prev instead of
// forwards via Next.
func (c *Cursor) SeekLe(key uint32) error {
	i, cell, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	n := c.current().node
	if i == int(n.NCells) {
		// key is greater than everything at this leaf; the cursor is
		// positioned past the leaf's end, so the leaf's last cell (if
		// any) is the answer.
		if i == 0 {
			return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekLe", nil)
		}
		c.current().cell = i - 1
		return nil
	}
	if cell.Key == key {
		return nil
	}
	if err := c.Prev(); err != nil {
		return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekLe", err)
	}
	return nil
}

// SeekLt positions the cursor on the last cell with key strictly less
// than the sought key: the true mirror of SeekGt.
func (c *Cursor) SeekLt(key uint32) error {
	i, _, err := c.seekPartial(key)
	if err != nil {
		return err
	}
	if i == 0 || !c.currentIsLeaf() {
		if err := c.Prev(); err != nil {
			return dberr.New(dberr.EKEYNOTFOUND, "btree.Cursor.SeekLt", err)
		}
		return nil
	}
	c.current().cell = i - 1
	return nil
}
