package bufferpool

import (
	"fmt"

	"github.com/tuannm99/novabuf/internal/storage"
)

// PageTag uniquely identifies a page across all files in the pool.
type PageTag struct {
	FileKey string
	PageID  storage.PageID
}

func tagOf(file storage.File, pageID storage.PageID) PageTag {
	return PageTag{FileKey: file.Key(), PageID: pageID}
}

func (t PageTag) String() string {
	return fmt.Sprintf("%s#%s", t.FileKey, t.PageID)
}

// descriptor is the metadata of one frame. file and pageID are only
// meaningful while valid is set.
type descriptor struct {
	file     storage.File
	pageID   storage.PageID
	valid    bool
	dirty    bool
	refBit   bool
	pinCount int32

	// gen changes every time the frame is emptied, so a PageRef can tell
	// whether its frame still holds the page it was handed out for.
	gen uint64
}

// set claims the frame for (file, pageID), pinned once.
func (d *descriptor) set(file storage.File, pageID storage.PageID) {
	d.file = file
	d.pageID = pageID
	d.valid = true
	d.dirty = false
	d.refBit = true
	d.pinCount = 1
}

// clear returns the frame to the empty state.
func (d *descriptor) clear() {
	d.file = nil
	d.pageID = storage.InvalidPageID
	d.valid = false
	d.dirty = false
	d.refBit = false
	d.pinCount = 0
	d.gen++
}

func (d *descriptor) tag() PageTag {
	return tagOf(d.file, d.pageID)
}

// owns reports whether the frame names file, valid or not.
func (d *descriptor) owns(file storage.File) bool {
	return d.file != nil && d.file.Key() == file.Key()
}

func newDescriptors(n int) []descriptor {
	descs := make([]descriptor, n)
	for i := range descs {
		descs[i].clear()
	}
	return descs
}
