package storage

import (
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dsnet/golib/memfile"
	"github.com/pkg/errors"
)

var _ File = (*MemFile)(nil)

// memFileSeq numbers MemFiles so that two files created with the same name
// never share a key.
var memFileSeq atomic.Uint64

// MemFile is a File held entirely in memory. Its content is lost on Close.
type MemFile struct {
	name     string
	key      string
	pageSize int

	mu     sync.Mutex
	db     *memfile.File
	alloc  *pageAllocator
	closed bool
}

func NewMemFile(name string, pageSize int) (*MemFile, error) {
	if !ValidPageSize(pageSize) {
		return nil, errors.Wrapf(ErrInvalidPageSize, "%d", pageSize)
	}
	return &MemFile{
		name:     name,
		key:      "mem:" + name + "." + strconv.FormatUint(memFileSeq.Add(1), 10),
		pageSize: pageSize,
		db:       memfile.New(make([]byte, 0)),
		alloc:    newPageAllocator(0),
	}, nil
}

// Key is "mem:<name>.<n>", unique per MemFile.
func (f *MemFile) Key() string   { return f.key }
func (f *MemFile) PageSize() int { return f.pageSize }

func (f *MemFile) offset(id PageID) int64 {
	return int64(id) * int64(f.pageSize)
}

func (f *MemFile) ReadPage(id PageID, dst []byte) error {
	if err := checkLen(dst, f.pageSize); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFileClosed
	}
	if !f.alloc.live(id) {
		return errors.Wrapf(ErrPageNotFound, "read page %d of %s", id, f.Key())
	}

	n, err := f.db.ReadAt(dst, f.offset(id))
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "storage: read page %d of %s", id, f.Key())
	}
	clear(dst[n:])
	return nil
}

func (f *MemFile) WritePage(id PageID, src []byte) error {
	if err := checkLen(src, f.pageSize); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFileClosed
	}
	if !f.alloc.live(id) {
		return errors.Wrapf(ErrPageNotFound, "write page %d of %s", id, f.Key())
	}

	if _, err := f.db.WriteAt(src, f.offset(id)); err != nil {
		return errors.Wrapf(err, "storage: write page %d of %s", id, f.Key())
	}
	return nil
}

func (f *MemFile) AllocatePage() (PageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return InvalidPageID, ErrFileClosed
	}

	id, _ := f.alloc.allocate()
	if _, err := f.db.WriteAt(make([]byte, f.pageSize), f.offset(id)); err != nil {
		_ = f.alloc.dispose(id)
		return InvalidPageID, errors.Wrapf(err, "storage: zero page %d of %s", id, f.Key())
	}
	return id, nil
}

func (f *MemFile) DisposePage(id PageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFileClosed
	}
	return f.alloc.dispose(id)
}

// Size returns the number of bytes backing the file.
func (f *MemFile) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.db.Bytes()))
}

func (f *MemFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.db = memfile.New(nil)
	return nil
}
