package bufferpool

import "github.com/tuannm99/novabuf/internal/storage"

// PageRef is a pinned page handed out by ReadPage or AllocPage. Data
// aliases the frame and is only valid until Release. A PageRef is not
// safe for concurrent use.
//
// A PageRef whose frame was emptied behind its back (DisposePage, Close)
// is stale: Data returns nil and Release does nothing, even if the same
// page id has been cached again since.
type PageRef struct {
	mgr    *Manager
	file   storage.File
	pageID storage.PageID
	frame  FrameID
	gen    uint64
	data   []byte
}

func (r *PageRef) PageID() storage.PageID { return r.pageID }
func (r *PageRef) File() storage.File     { return r.file }

// Data returns the page bytes, or nil once released or stale.
func (r *PageRef) Data() []byte {
	if r.data == nil || !r.mgr.refLive(r) {
		return nil
	}
	return r.data
}

// Release unpins the page once, marking it dirty if dirty is set.
func (r *PageRef) Release(dirty bool) error {
	if r.data == nil {
		return ErrRefReleased
	}
	r.data = nil
	return r.mgr.releaseRef(r, dirty)
}
