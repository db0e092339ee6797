package btree

import "minidb/dberr"

// Find looks up key in the B-tree rooted at t.Root. For a table B-tree it
// returns the TABLE_LEAF payload; for an index B-tree it returns the
// 4-byte big-endian primary key associated with key, matching the
// convention every caller of Find relies on (dbm's IdxPKey, for one).
// It returns dberr.ENOTFOUND if no cell with that key exists.
func (t *Tree) Find(key uint32) ([]byte, error) {
	npage := t.Root
	for {
		n, err := t.readNode(npage)
		if err != nil {
			return nil, err
		}

		if !n.Type.IsInternal() {
			return t.findInLeaf(n, key)
		}

		i, childPage, exactIndexMatch, err := findChildIndex(n, key)
		if err != nil {
			t.releaseNode(n)
			return nil, err
		}
		if exactIndexMatch {
			c, err := n.cellAt(i)
			t.releaseNode(n)
			if err != nil {
				return nil, err
			}
			out := make([]byte, 4)
			putKey(out, c.KeyPk)
			return out, nil
		}
		t.releaseNode(n)
		npage = childPage
	}
}

// findChildIndex scans n's cells for the first one whose key is >= key,
// returning its index, the child page to descend into if no exact index
// match is found, and whether n is an INDEX_INTERNAL node with an exact
// key match (in which case the caller should read KeyPk directly instead
// of descending further).
func findChildIndex(n *Node, key uint32) (i int, childPage uint32, exactIndexMatch bool, err error) {
	var c *Cell
	for i = 0; i < int(n.NCells); i++ {
		c, err = n.cellAt(i)
		if err != nil {
			return 0, 0, false, err
		}
		if key <= c.Key {
			break
		}
	}
	if i == int(n.NCells) {
		return i, n.RightPage, false, nil
	}
	if n.Type == IndexInternal && key == c.Key {
		return i, 0, true, nil
	}
	return i, c.ChildPage, false, nil
}

func (t *Tree) findInLeaf(n *Node, key uint32) ([]byte, error) {
	defer t.releaseNode(n)
	for i := 0; i < int(n.NCells); i++ {
		c, err := n.cellAt(i)
		if err != nil {
			return nil, err
		}
		if key < c.Key {
			return nil, dberr.New(dberr.ENOTFOUND, "btree.Find", nil)
		}
		if key == c.Key {
			switch n.Type {
			case IndexLeaf:
				out := make([]byte, 4)
				putKey(out, c.KeyPk)
				return out, nil
			case TableLeaf:
				return c.Payload, nil
			}
		}
	}
	return nil, dberr.New(dberr.ENOTFOUND, "btree.Find", nil)
}

func putKey(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

// Insert adds c to the B-tree rooted at t.Root, splitting the root first
// if it is already full. Returns dberr.EDUPLICATE if a leaf cell with
// c.Key already exists.
func (t *Tree) Insert(c *Cell) error {
	root, err := t.readNode(t.Root)
	if err != nil {
		return err
	}
	full := nodeIsFull(root, c)
	if err := t.releaseNode(root); err != nil {
		return err
	}

	if full {
		if _, err := t.split(0, t.Root, 0); err != nil {
			return err
		}
	}

	return t.insertNonFull(t.Root, c)
}

// insertNonFull inserts c into the subtree rooted at npage, which must
// not yet be full. Internal nodes recurse into the appropriate child
// after first splitting it if necessary.
func (t *Tree) insertNonFull(npage uint32, c *Cell) error {
	n, err := t.readNode(npage)
	if err != nil {
		return err
	}
	defer t.releaseNode(n)

	var matched *Cell
	i := 0
	for ; i < int(n.NCells); i++ {
		cur, err := n.cellAt(i)
		if err != nil {
			return err
		}
		if c.Key <= cur.Key {
			matched = cur
			break
		}
	}

	if !n.Type.IsInternal() {
		if matched != nil && matched.Key == c.Key {
			return dberr.New(dberr.EDUPLICATE, "btree.Insert", nil)
		}
		if err := n.insertCellAt(i, c); err != nil {
			return err
		}
		return t.writeNode(n)
	}

	var childPage uint32
	if i == int(n.NCells) {
		childPage = n.RightPage
	} else {
		childPage = matched.ChildPage
	}

	child, err := t.readNode(childPage)
	if err != nil {
		return err
	}
	childFull := nodeIsFull(child, c)
	if err := t.releaseNode(child); err != nil {
		return err
	}

	if childFull {
		if _, err := t.split(npage, childPage, i); err != nil {
			return err
		}
		return t.insertNonFull(npage, c)
	}
	return t.insertNonFull(childPage, c)
}

// split splits the full node at npageChild, which is a child of
// npageParent at parent cell index parentNcell (npageParent == 0 means
// npageChild is the tree root). It returns the page number of the new
// node holding the pre-median half of the original cells.
func (t *Tree) split(npageParent, npageChild uint32, parentNcell int) (uint32, error) {
	isRoot := npageParent == 0

	child, err := t.readNode(npageChild)
	if err != nil {
		return 0, err
	}
	defer t.releaseNode(child)

	child2, err := t.newNode(child.Type)
	if err != nil {
		return 0, err
	}
	defer t.releaseNode(child2)

	isTableLeaf := child.Type == TableLeaf
	medianIdx := int(child.NCells) / 2
	upTo := medianIdx - 1
	if isTableLeaf {
		upTo = medianIdx
	}
	for i := 0; i <= upTo; i++ {
		c, err := child.cellAt(i)
		if err != nil {
			return 0, err
		}
		if err := child2.insertCellAt(i, c); err != nil {
			return 0, err
		}
	}

	median, err := child.cellAt(medianIdx)
	if err != nil {
		return 0, err
	}
	if child2.Type == IndexInternal || child2.Type == TableInternal {
		child2.RightPage = median.ChildPage
	}
	if err := t.writeNode(child2); err != nil {
		return 0, err
	}

	var npageChild1 uint32
	var child1 *Node
	if isRoot {
		child1, err = t.newNode(child.Type)
		if err != nil {
			return 0, err
		}
		npageChild1 = child1.PageNo
	} else {
		child1, err = t.reinitNode(npageChild, child.Type)
		if err != nil {
			return 0, err
		}
		npageChild1 = npageChild
	}
	defer t.releaseNode(child1)

	j := 0
	for i := medianIdx + 1; i < int(child.NCells); i++ {
		c, err := child.cellAt(i)
		if err != nil {
			return 0, err
		}
		if err := child1.insertCellAt(j, c); err != nil {
			return 0, err
		}
		j++
	}
	if child1.Type.IsInternal() {
		child1.RightPage = child.RightPage
	}
	if err := t.writeNode(child1); err != nil {
		return 0, err
	}

	var parent *Node
	if isRoot {
		parentType := TableInternal
		if child.Type == IndexInternal || child.Type == IndexLeaf {
			parentType = IndexInternal
		}
		parent, err = t.reinitNode(npageChild, parentType)
		if err != nil {
			return 0, err
		}
		defer t.releaseNode(parent)
	} else {
		parent, err = t.readNode(npageParent)
		if err != nil {
			return 0, err
		}
		defer t.releaseNode(parent)
	}

	parentMedian := &Cell{Key: median.Key}
	switch median.Type {
	case IndexInternal:
		*parentMedian = *median
		parentMedian.ChildPage = child2.PageNo
	case TableInternal:
		*parentMedian = *median
		parentMedian.ChildPage = child2.PageNo
	case IndexLeaf:
		parentMedian.Type = IndexInternal
		parentMedian.ChildPage = child2.PageNo
		parentMedian.KeyPk = median.KeyPk
	case TableLeaf:
		parentMedian.Type = TableInternal
		parentMedian.ChildPage = child2.PageNo
	}

	if err := parent.insertCellAt(parentNcell, parentMedian); err != nil {
		return 0, err
	}
	if isRoot {
		parent.RightPage = npageChild1
	}
	if err := t.writeNode(parent); err != nil {
		return 0, err
	}

	return child2.PageNo, nil
}
