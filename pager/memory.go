package pager

import (
	"sync"

	"minidb/dberr"
)

// Memory is a map-backed Pager used by tests and by in-memory databases.
// It mirrors the locking and closed-pager bookkeeping of the teacher's
// InMemoryPager, generalized to a variable page size and the 100-byte
// file header contract.
type Memory struct {
	mu       sync.RWMutex
	pages    map[uint32][]byte
	nextPage uint32
	pageSize int
	closed   bool
}

// NewMemory returns an empty Memory pager with no page size set yet; the
// caller (btree.Open) sets it via SetPageSize once the header has been
// read or initialized.
func NewMemory() *Memory {
	return &Memory{
		pages:    make(map[uint32][]byte),
		nextPage: 1,
	}
}

func (p *Memory) ReadHeader(out []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	page, ok := p.pages[1]
	if !ok {
		return dberr.New(dberr.ENOTFOUND, "pager.Memory.ReadHeader", nil)
	}
	copy(out, page[:HeaderSize])
	return nil
}

func (p *Memory) SetPageSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageSize = size
}

func (p *Memory) PageSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pageSize
}

func (p *Memory) AllocPage() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, dberr.New(dberr.EIO, "pager.Memory.AllocPage", nil)
	}
	id := p.nextPage
	p.nextPage++
	p.pages[id] = make([]byte, p.pageSize)
	return id, nil
}

func (p *Memory) ReadPage(pageNo uint32) (*PageView, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, dberr.New(dberr.EIO, "pager.Memory.ReadPage", nil)
	}
	data, ok := p.pages[pageNo]
	if !ok {
		return nil, dberr.New(dberr.EPAGENO, "pager.Memory.ReadPage", nil)
	}
	out := make([]byte, p.pageSize)
	copy(out, data)
	return &PageView{PageNo: pageNo, Data: out}, nil
}

func (p *Memory) WritePage(view *PageView) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return dberr.New(dberr.EIO, "pager.Memory.WritePage", nil)
	}
	if len(view.Data) != p.pageSize {
		return dberr.New(dberr.EIO, "pager.Memory.WritePage", nil)
	}
	dest := make([]byte, p.pageSize)
	copy(dest, view.Data)
	p.pages[view.PageNo] = dest
	return nil
}

func (p *Memory) ReleasePage(view *PageView) error {
	return nil
}

func (p *Memory) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = nil
	p.closed = true
	return nil
}
