package storage

import (
	"fmt"
	"math"
)

// PageID is a page number scoped to a single File.
type PageID uint32

const InvalidPageID PageID = math.MaxUint32

func (id PageID) String() string {
	if id == InvalidPageID {
		return "invalid"
	}
	return fmt.Sprintf("%d", id)
}

// File is the page-granular file abstraction the buffer pool caches.
// All pages of a File have the same size, PageSize().
type File interface {
	// Key identifies the file; two handles with the same key are the same file.
	Key() string
	PageSize() int

	// ReadPage fills dst with the content of page id.
	// It fails with ErrPageNotFound if id was never allocated or has been disposed.
	ReadPage(id PageID, dst []byte) error
	// WritePage overwrites the on-disk content of page id.
	WritePage(id PageID, src []byte) error
	// AllocatePage returns the id of a zeroed page, reusing disposed ids first.
	AllocatePage() (PageID, error)
	// DisposePage gives id back to the file. Later reads of id fail.
	DisposePage(id PageID) error

	Close() error
}

func checkLen(buf []byte, pageSize int) error {
	if len(buf) != pageSize {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongSize, len(buf), pageSize)
	}
	return nil
}
