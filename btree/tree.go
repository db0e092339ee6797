package btree

import "minidb/pager"

// Rooted wraps an already-open Pager as a Tree rooted at an arbitrary page
// number, for tables/indexes other than the one at page 1. The caller is
// responsible for root having been created by NewRoot (or already holding
// a valid node) before using the returned Tree.
func Rooted(p pager.Pager, root uint32) *Tree {
	return &Tree{Pager: p, Root: root}
}

// NewRoot allocates and initializes a fresh, empty root page of typ on p,
// returning its page number. Used by CreateTable/CreateIndex, which need a
// new B-tree without going through Open's page-1 file-header bootstrap.
func NewRoot(p pager.Pager, typ NodeType) (uint32, error) {
	t := &Tree{Pager: p}
	n, err := t.newNode(typ)
	if err != nil {
		return 0, err
	}
	if err := t.releaseNode(n); err != nil {
		return 0, err
	}
	return n.PageNo, nil
}

// readNode loads the node stored at pageNo, together with the PageView
// backing it. Callers must release the view (via releaseNode) once done.
func (t *Tree) readNode(pageNo uint32) (*Node, error) {
	view, err := t.Pager.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	return loadNode(view)
}

// releaseNode hands a node's underlying page view back to the pager.
func (t *Tree) releaseNode(n *Node) error {
	return t.Pager.ReleasePage(n.view)
}

// writeNode persists n's header and any cell data already written
// in-place into its page back to the pager.
func (t *Tree) writeNode(n *Node) error {
	n.writeHeader()
	return t.Pager.WritePage(n.view)
}

// newNode allocates a fresh page, initializes it as an empty node of typ,
// and persists it.
func (t *Tree) newNode(typ NodeType) (*Node, error) {
	pageNo, err := t.Pager.AllocPage()
	if err != nil {
		return nil, err
	}
	view, err := t.Pager.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	n := initEmptyNode(view, typ)
	if err := t.writeNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// reinitNode wipes npage in place, turning it into an empty node of typ
// without allocating a new page number. Used when a non-root split
// reuses the child's existing page for the post-median half.
func (t *Tree) reinitNode(pageNo uint32, typ NodeType) (*Node, error) {
	view, err := t.Pager.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	n := initEmptyNode(view, typ)
	if err := t.writeNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// nodeIsFull reports whether inserting c into n would require a split.
func nodeIsFull(n *Node, c *Cell) bool {
	return !nodeCanFit(n, c)
}
