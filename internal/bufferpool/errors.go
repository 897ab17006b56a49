package bufferpool

import (
	"errors"
	"fmt"
)

var (
	ErrPoolExhausted    = errors.New("bufferpool: no free frame available (all pinned)")
	ErrPageNotPinned    = errors.New("bufferpool: page is not pinned")
	ErrPagePinned       = errors.New("bufferpool: page is pinned")
	ErrBadBuffer        = errors.New("bufferpool: frame descriptor and page index disagree")
	ErrPageSizeMismatch = errors.New("bufferpool: file page size differs from frame size")
	ErrRefReleased      = errors.New("bufferpool: page reference already released")
	ErrClosed           = errors.New("bufferpool: manager is closed")

	// errIndexMiss never leaves the package.
	errIndexMiss = errors.New("bufferpool: page not in index")
)

// Error attaches the operation and page to a buffer pool error.
type Error struct {
	Op  string
	Tag PageTag
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Tag, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, tag PageTag, err error) error {
	return &Error{Op: op, Tag: tag, Err: err}
}
