package bufferpool

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

type indexEntry struct {
	tag   PageTag
	frame FrameID
}

// pageIndex maps PageTag -> FrameID with separate chaining. The bucket
// count is fixed at construction, sized a little over the frame count so
// chains stay short when every frame is valid.
type pageIndex struct {
	buckets [][]indexEntry
	size    int
}

func newPageIndex(frames int) *pageIndex {
	n := int(float64(frames)*1.2) | 1
	return &pageIndex{buckets: make([][]indexEntry, n)}
}

func (ix *pageIndex) hash(tag PageTag) int {
	var id [4]byte
	binary.LittleEndian.PutUint32(id[:], uint32(tag.PageID))

	h := murmur3.New32()
	_, _ = h.Write([]byte(tag.FileKey))
	_, _ = h.Write(id[:])
	return int(h.Sum32() % uint32(len(ix.buckets)))
}

// insert fails with ErrBadBuffer if tag is already indexed.
func (ix *pageIndex) insert(tag PageTag, frame FrameID) error {
	b := ix.hash(tag)
	for _, e := range ix.buckets[b] {
		if e.tag == tag {
			return ErrBadBuffer
		}
	}
	ix.buckets[b] = append(ix.buckets[b], indexEntry{tag: tag, frame: frame})
	ix.size++
	return nil
}

func (ix *pageIndex) lookup(tag PageTag) (FrameID, bool) {
	for _, e := range ix.buckets[ix.hash(tag)] {
		if e.tag == tag {
			return e.frame, true
		}
	}
	return InvalidFrameID, false
}

func (ix *pageIndex) remove(tag PageTag) error {
	b := ix.hash(tag)
	chain := ix.buckets[b]
	for i, e := range chain {
		if e.tag == tag {
			chain[i] = chain[len(chain)-1]
			ix.buckets[b] = chain[:len(chain)-1]
			ix.size--
			return nil
		}
	}
	return errIndexMiss
}

func (ix *pageIndex) len() int { return ix.size }

func (ix *pageIndex) reset() {
	clear(ix.buckets)
	ix.size = 0
}
