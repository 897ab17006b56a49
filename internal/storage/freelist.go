package storage

import (
	"encoding/binary"
	"io"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// pageAllocator hands out page ids for a file: disposed ids first, then
// the next id past the end of the file. Not safe for concurrent use.
type pageAllocator struct {
	next  PageID
	freed mapset.Set[PageID]
}

func newPageAllocator(next PageID) *pageAllocator {
	return &pageAllocator{
		next:  next,
		freed: mapset.NewThreadUnsafeSet[PageID](),
	}
}

// allocate returns a page id and whether it extends the file.
func (a *pageAllocator) allocate() (PageID, bool) {
	if id, ok := a.freed.Pop(); ok {
		return id, false
	}
	id := a.next
	a.next++
	return id, true
}

func (a *pageAllocator) dispose(id PageID) error {
	if !a.live(id) {
		return errors.Wrapf(ErrPageNotFound, "dispose page %d", id)
	}
	a.freed.Add(id)
	return nil
}

// live reports whether id is allocated and not disposed.
func (a *pageAllocator) live(id PageID) bool {
	return id < a.next && !a.freed.Contains(id)
}

// writeTo stores the free list as little-endian uint32s in ascending order.
func (a *pageAllocator) writeTo(w io.Writer) error {
	ids := a.freed.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(id))
	}
	_, err := w.Write(buf)
	return err
}

// readFrom loads a free list written by writeTo. Ids at or beyond next are
// dropped: the file was truncated behind our back.
func (a *pageAllocator) readFrom(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(data)%4 != 0 {
		return errors.Wrapf(ErrCorruptFreeList, "length %d", len(data))
	}
	for off := 0; off < len(data); off += 4 {
		id := PageID(binary.LittleEndian.Uint32(data[off:]))
		if id < a.next {
			a.freed.Add(id)
		}
	}
	return nil
}
