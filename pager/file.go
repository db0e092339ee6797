package pager

import (
	"io"
	"os"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"minidb/dberr"
)

// File is a disk-backed Pager, grounded on the teacher's OnDiskPager but
// fronted by a ristretto read-through cache: ReadPage first checks the
// cache before touching the file, and WritePage updates both. Unlike the
// teacher's buffer pool, File does no pinning — the btree cursor's path
// stack is the sole owner of any in-flight node, so the cache here only
// needs to save redundant disk reads, not track reference counts.
type File struct {
	mu       sync.Mutex
	file     *os.File
	pageSize int
	nextPage uint32
	cache    *ristretto.Cache[uint32, []byte]
}

// NewFile opens (creating if necessary) the database file at path and
// wraps it with a ristretto cache sized for cacheCost bytes of pages.
func NewFile(path string, cacheCost int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, dberr.New(dberr.EIO, "pager.NewFile", err)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint32, []byte]{
		NumCounters: cacheCost / 100 * 10,
		MaxCost:     cacheCost,
		BufferItems: 64,
	})
	if err != nil {
		f.Close()
		return nil, dberr.New(dberr.ENOMEM, "pager.NewFile", err)
	}

	if _, err := f.Stat(); err != nil {
		f.Close()
		return nil, dberr.New(dberr.EIO, "pager.NewFile", err)
	}

	return &File{
		file:  f,
		cache: cache,
	}, nil
}

func (p *File) ReadHeader(out []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	stat, err := p.file.Stat()
	if err != nil {
		return dberr.New(dberr.EIO, "pager.File.ReadHeader", err)
	}
	if stat.Size() == 0 {
		return dberr.New(dberr.ENOTFOUND, "pager.File.ReadHeader", nil)
	}
	if _, err := p.file.ReadAt(out, 0); err != nil && err != io.EOF {
		return dberr.New(dberr.EIO, "pager.File.ReadHeader", err)
	}
	return nil
}

func (p *File) SetPageSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageSize = size
	stat, err := p.file.Stat()
	if err != nil {
		return
	}
	numPages := uint32(stat.Size()) / uint32(size)
	p.nextPage = numPages + 1
}

func (p *File) PageSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageSize
}

func (p *File) pageOffset(pageNo uint32) int64 {
	return int64(pageNo-1) * int64(p.pageSize)
}

func (p *File) AllocPage() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextPage
	p.nextPage++
	empty := make([]byte, p.pageSize)
	if _, err := p.file.WriteAt(empty, p.pageOffset(id)); err != nil {
		return 0, dberr.New(dberr.EIO, "pager.File.AllocPage", err)
	}
	return id, nil
}

func (p *File) ReadPage(pageNo uint32) (*PageView, error) {
	if cached, ok := p.cache.Get(pageNo); ok {
		out := make([]byte, len(cached))
		copy(out, cached)
		return &PageView{PageNo: pageNo, Data: out}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	page := make([]byte, p.pageSize)
	n, err := p.file.ReadAt(page, p.pageOffset(pageNo))
	if err != nil && err != io.EOF {
		return nil, dberr.New(dberr.EIO, "pager.File.ReadPage", err)
	}
	if n == 0 && err == io.EOF {
		return nil, dberr.New(dberr.EPAGENO, "pager.File.ReadPage", nil)
	}

	cached := make([]byte, p.pageSize)
	copy(cached, page)
	p.cache.Set(pageNo, cached, int64(p.pageSize))

	return &PageView{PageNo: pageNo, Data: page}, nil
}

func (p *File) WritePage(view *PageView) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(view.Data) != p.pageSize {
		return dberr.New(dberr.EIO, "pager.File.WritePage", nil)
	}
	if _, err := p.file.WriteAt(view.Data, p.pageOffset(view.PageNo)); err != nil {
		return dberr.New(dberr.EIO, "pager.File.WritePage", err)
	}
	cached := make([]byte, p.pageSize)
	copy(cached, view.Data)
	p.cache.Set(view.PageNo, cached, int64(p.pageSize))
	return nil
}

func (p *File) ReleasePage(view *PageView) error {
	return nil
}

func (p *File) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Close()
	if err := p.file.Sync(); err != nil {
		p.file.Close()
		return dberr.New(dberr.EIO, "pager.File.Close", err)
	}
	err := p.file.Close()
	if err != nil {
		return dberr.New(dberr.EIO, "pager.File.Close", err)
	}
	return nil
}
