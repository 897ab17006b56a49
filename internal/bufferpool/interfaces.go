package bufferpool

import "github.com/tuannm99/novabuf/internal/storage"

type BufferManager interface {
	ReadPage(file storage.File, pageID storage.PageID) (*PageRef, error)
	UnpinPage(file storage.File, pageID storage.PageID, dirty bool) error
	AllocPage(file storage.File) (storage.PageID, *PageRef, error)
	DisposePage(file storage.File, pageID storage.PageID) error
	FlushFile(file storage.File) error
	FlushAll() error
	Close() error
}

// PageStore is the page access surface of a single file.
type PageStore interface {
	ReadPage(pageID storage.PageID) (*PageRef, error)
	Unpin(pageID storage.PageID, dirty bool) error
	AllocPage() (storage.PageID, *PageRef, error)
	DisposePage(pageID storage.PageID) error
	Flush() error
}
