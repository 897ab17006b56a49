package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

const freeListSuffix = ".free"

var _ File = (*DiskFile)(nil)

// DiskFile stores pages in segment files under a directory.
// Segments are named: Base, Base.1, Base.2, ... each holding at most
// SegmentSize bytes. Disposed page ids are kept in Base.free across opens.
type DiskFile struct {
	fs       afero.Fs
	dir      string
	base     string
	pageSize int

	mu     sync.Mutex
	segs   map[int32]afero.File
	alloc  *pageAllocator
	closed bool
}

// OpenDiskFile opens (creating if needed) the paged file dir/base on fs.
func OpenDiskFile(fs afero.Fs, dir, base string, pageSize int) (*DiskFile, error) {
	if !ValidPageSize(pageSize) {
		return nil, errors.Wrapf(ErrInvalidPageSize, "%d", pageSize)
	}
	if err := fs.MkdirAll(dir, FileMode0755); err != nil {
		return nil, errors.Wrapf(err, "storage: create dir %s", dir)
	}

	f := &DiskFile{
		fs:       fs,
		dir:      dir,
		base:     base,
		pageSize: pageSize,
		segs:     make(map[int32]afero.File),
	}

	next, err := f.countPages()
	if err != nil {
		return nil, err
	}
	f.alloc = newPageAllocator(next)

	if err := f.loadFreeList(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *DiskFile) Key() string   { return filepath.Join(f.dir, f.base) }
func (f *DiskFile) PageSize() int { return f.pageSize }

func (f *DiskFile) pagesPerSegment() int {
	// 1 GiB / 8 KiB = 131072 pages per segment
	return SegmentSize / f.pageSize
}

func (f *DiskFile) locate(id PageID) (segNo int32, offset int64) {
	pps := PageID(f.pagesPerSegment())
	segNo = int32(id / pps)
	offset = int64(id%pps) * int64(f.pageSize)
	return segNo, offset
}

func (f *DiskFile) segment(segNo int32) (afero.File, error) {
	if seg, ok := f.segs[segNo]; ok {
		return seg, nil
	}
	path := filepath.Join(f.dir, SegFileName(f.base, segNo))
	// RDWR | CREATE (no truncate)
	seg, err := f.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: open segment %s", path)
	}
	f.segs[segNo] = seg
	return seg, nil
}

// countPages derives the next page id from the segment sizes on disk.
func (f *DiskFile) countPages() (PageID, error) {
	segs, err := listSegments(f.fs, f.dir, f.base)
	if err != nil {
		return 0, err
	}

	var next PageID
	for _, segNo := range segs {
		info, err := f.fs.Stat(filepath.Join(f.dir, SegFileName(f.base, segNo)))
		if err != nil {
			return 0, errors.Wrapf(err, "storage: stat segment %d", segNo)
		}
		pages := PageID(info.Size() / int64(f.pageSize))
		if pages == 0 {
			continue
		}
		end := PageID(segNo)*PageID(f.pagesPerSegment()) + pages
		if end > next {
			next = end
		}
	}
	return next, nil
}

func (f *DiskFile) freeListPath() string {
	return filepath.Join(f.dir, f.base+freeListSuffix)
}

func (f *DiskFile) loadFreeList() error {
	data, err := afero.ReadFile(f.fs, f.freeListPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "storage: read free list")
	}
	return f.alloc.readFrom(bytes.NewReader(data))
}

// ReadPage reads exactly one page into dst.
// If the segment is shorter than the page, the remainder is zero-filled:
// allocated pages that were never written read back as zeros.
func (f *DiskFile) ReadPage(id PageID, dst []byte) error {
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

	segNo, off := f.locate(id)
	seg, err := f.segment(segNo)
	if err != nil {
		return err
	}

	n, err := seg.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "storage: read page %d of %s", id, f.Key())
	}
	clear(dst[n:])
	return nil
}

// WritePage writes exactly one page from src at the location of id.
func (f *DiskFile) WritePage(id PageID, src []byte) error {
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
	return f.writeAt(id, src)
}

func (f *DiskFile) writeAt(id PageID, src []byte) error {
	segNo, off := f.locate(id)
	seg, err := f.segment(segNo)
	if err != nil {
		return err
	}

	n, err := seg.WriteAt(src, off)
	if err != nil {
		return errors.Wrapf(err, "storage: write page %d of %s", id, f.Key())
	}
	if n != len(src) {
		return io.ErrShortWrite
	}
	return nil
}

// AllocatePage zeroes and returns a page, reusing disposed ids first.
func (f *DiskFile) AllocatePage() (PageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return InvalidPageID, ErrFileClosed
	}

	id, _ := f.alloc.allocate()
	if err := f.writeAt(id, make([]byte, f.pageSize)); err != nil {
		// hand the id back; the next allocation retries it
		_ = f.alloc.dispose(id)
		return InvalidPageID, err
	}
	return id, nil
}

func (f *DiskFile) DisposePage(id PageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFileClosed
	}
	return f.alloc.dispose(id)
}

// NumPages returns the number of page ids ever handed out, disposed included.
func (f *DiskFile) NumPages() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.alloc.next)
}

// Close persists the free list and closes all open segments.
func (f *DiskFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var buf bytes.Buffer
	err := f.alloc.writeTo(&buf)
	if err == nil {
		err = afero.WriteFile(f.fs, f.freeListPath(), buf.Bytes(), FileMode0644)
	}

	for segNo, seg := range f.segs {
		if cerr := seg.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrapf(cerr, "storage: close segment %d", segNo))
		}
	}
	f.segs = nil
	return err
}

// Remove deletes every segment and the free list. The file must be closed.
func (f *DiskFile) Remove() error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if !closed {
		return errors.New("storage: remove of an open file")
	}

	if err := RemoveAllSegments(f.fs, f.dir, f.base); err != nil {
		return err
	}
	if err := f.fs.Remove(f.freeListPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
