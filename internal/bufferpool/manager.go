package bufferpool

import (
	"errors"
	"log/slog"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/multierr"

	"github.com/tuannm99/novabuf/internal/storage"
	"github.com/tuannm99/novabuf/pkg/clockx"
)

// DefaultCapacity is the frame count used when a non-positive pool size is given.
const DefaultCapacity = 128

var _ BufferManager = (*Manager)(nil)

// Manager caches pages of any number of files in a fixed set of frames and
// replaces them with the clock algorithm.
//
// Every operation runs under one exclusive lock, so the lookup, victim
// selection, index update and descriptor update of a request are atomic.
// File I/O happens under that lock.
type Manager struct {
	mu deadlock.Mutex

	pageSize int
	frames   *framePool
	descs    []descriptor // index is FrameID
	index    *pageIndex
	clock    *clockx.Clock

	stats  Stats
	closed bool
}

// NewManager returns a Manager with poolSize frames of storage.PageSize bytes.
func NewManager(poolSize int) *Manager {
	return NewManagerWithPageSize(poolSize, storage.PageSize)
}

// NewManagerWithPageSize returns a Manager with poolSize frames of pageSize
// bytes. Only files whose PageSize equals pageSize can be cached.
func NewManagerWithPageSize(poolSize, pageSize int) *Manager {
	if poolSize <= 0 {
		poolSize = DefaultCapacity
	}
	if pageSize <= 0 {
		pageSize = storage.PageSize
	}
	return &Manager{
		pageSize: pageSize,
		frames:   newFramePool(poolSize, pageSize),
		descs:    newDescriptors(poolSize),
		index:    newPageIndex(poolSize),
		clock:    clockx.New(poolSize),
	}
}

// SetDeadlockDetection turns lock-order and timeout checking of the
// manager lock on or off process-wide.
func SetDeadlockDetection(enabled bool) {
	deadlock.Opts.Disable = !enabled
}

// PoolSize returns the number of frames.
func (m *Manager) PoolSize() int { return len(m.descs) }

// PageSize returns the frame size in bytes.
func (m *Manager) PageSize() int { return m.pageSize }

func (m *Manager) check(op string, file storage.File, pageID storage.PageID) error {
	if m.closed {
		return ErrClosed
	}
	if file.PageSize() != m.pageSize {
		return newError(op, tagOf(file, pageID), ErrPageSizeMismatch)
	}
	return nil
}

// wrapAlloc attaches op context to pool exhaustion; file errors raised
// while writing back a victim pass through unchanged.
func wrapAlloc(op string, tag PageTag, err error) error {
	if errors.Is(err, ErrPoolExhausted) {
		return newError(op, tag, err)
	}
	return err
}

// ReadPage returns page pageID of file pinned once. The caller must
// release the pin with UnpinPage or PageRef.Release.
func (m *Manager) ReadPage(file storage.File, pageID storage.PageID) (*PageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("read", file, pageID); err != nil {
		return nil, err
	}
	tag := tagOf(file, pageID)

	// 1) HIT
	if id, ok := m.index.lookup(tag); ok {
		d := &m.descs[id]
		d.refBit = true
		d.pinCount++
		m.stats.Hits++
		return m.newRef(id, file, pageID), nil
	}

	// 2) MISS
	m.stats.Misses++
	id, err := m.allocBuf()
	if err != nil {
		return nil, wrapAlloc("read", tag, err)
	}

	// The frame is empty here; a failed read leaves it that way.
	if err := file.ReadPage(pageID, m.frames.slot(id)); err != nil {
		return nil, err
	}
	m.stats.Reads++

	if err := m.index.insert(tag, id); err != nil {
		return nil, newError("read", tag, err)
	}
	m.descs[id].set(file, pageID)

	return m.newRef(id, file, pageID), nil
}

// UnpinPage drops one pin of (file, pageID) and marks it dirty if dirty is
// set. The dirty flag is never cleared here. Unpinning a page that is not
// cached is a no-op.
func (m *Manager) UnpinPage(file storage.File, pageID storage.PageID, dirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tag := tagOf(file, pageID)
	id, ok := m.index.lookup(tag)
	if !ok {
		return nil
	}

	d := &m.descs[id]
	if d.pinCount == 0 {
		return newError("unpin", tag, ErrPageNotPinned)
	}
	d.pinCount--
	if dirty {
		d.dirty = true
	}
	return nil
}

// AllocPage allocates a new page in file and returns its id with the
// zeroed page pinned once.
func (m *Manager) AllocPage(file storage.File) (storage.PageID, *PageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("alloc", file, storage.InvalidPageID); err != nil {
		return storage.InvalidPageID, nil, err
	}

	pageID, err := file.AllocatePage()
	if err != nil {
		return storage.InvalidPageID, nil, err
	}
	tag := tagOf(file, pageID)

	id, err := m.allocBuf()
	if err != nil {
		// give the page back so a full pool does not leak file space
		if derr := file.DisposePage(pageID); derr != nil {
			slog.Warn("bufferpool: dispose page after failed alloc", "page", tag, "err", derr)
		}
		return storage.InvalidPageID, nil, wrapAlloc("alloc", tag, err)
	}

	m.frames.zero(id)
	if err := m.index.insert(tag, id); err != nil {
		return storage.InvalidPageID, nil, newError("alloc", tag, err)
	}
	m.descs[id].set(file, pageID)

	return pageID, m.newRef(id, file, pageID), nil
}

// DisposePage drops (file, pageID) from the pool, pinned or not, without
// writing it back, then deallocates it in file.
func (m *Manager) DisposePage(file storage.File, pageID storage.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("dispose", file, pageID); err != nil {
		return err
	}

	tag := tagOf(file, pageID)
	if id, ok := m.index.lookup(tag); ok {
		d := &m.descs[id]
		if d.pinCount != 0 {
			slog.Debug("bufferpool: dispose pinned page", "page", tag, "pins", d.pinCount)
		}
		if err := m.index.remove(tag); err != nil {
			return newError("dispose", tag, ErrBadBuffer)
		}
		d.clear()
	}

	return file.DisposePage(pageID)
}

// FlushFile writes back every dirty page of file and drops all its pages
// from the pool. Nothing changes if one of them is pinned.
func (m *Manager) FlushFile(file storage.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	// First pass: validate without touching anything.
	var owned []FrameID
	for i := range m.descs {
		d := &m.descs[i]
		if !d.owns(file) {
			continue
		}
		tag := d.tag()
		if !d.valid {
			return newError("flush", tag, ErrBadBuffer)
		}
		if d.pinCount != 0 {
			return newError("flush", tag, ErrPagePinned)
		}
		if id, ok := m.index.lookup(tag); !ok || id != FrameID(i) {
			return newError("flush", tag, ErrBadBuffer)
		}
		owned = append(owned, FrameID(i))
	}

	// Second pass: write back + evict.
	for _, id := range owned {
		d := &m.descs[id]
		tag := d.tag()
		if d.dirty {
			if err := file.WritePage(d.pageID, m.frames.slot(id)); err != nil {
				return err
			}
			d.dirty = false
			m.stats.Writes++
		}
		if err := m.index.remove(tag); err != nil {
			return newError("flush", tag, ErrBadBuffer)
		}
		d.clear()
	}

	slog.Debug("bufferpool: flushed file", "file", file.Key(), "frames", len(owned))
	return nil
}

// FlushAll writes back every dirty page. Pages stay cached.
func (m *Manager) FlushAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for i := range m.descs {
		d := &m.descs[i]
		if !d.valid || !d.dirty {
			continue
		}
		if err := d.file.WritePage(d.pageID, m.frames.slot(FrameID(i))); err != nil {
			return err
		}
		d.dirty = false
		m.stats.Writes++
	}
	return nil
}

// Close writes back every dirty page, pinned or not, and empties the pool.
// Write errors are collected; the pool is emptied regardless.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	for i := range m.descs {
		d := &m.descs[i]
		if d.valid && d.dirty {
			if werr := d.file.WritePage(d.pageID, m.frames.slot(FrameID(i))); werr != nil {
				err = multierr.Append(err, newError("close", d.tag(), werr))
			} else {
				m.stats.Writes++
			}
		}
		d.clear()
	}
	m.index.reset()

	slog.Info("bufferpool: closed",
		"frames", len(m.descs),
		"hits", m.stats.Hits,
		"misses", m.stats.Misses,
		"writes", m.stats.Writes,
		"evictions", m.stats.Evictions,
	)
	return err
}

func (m *Manager) newRef(id FrameID, file storage.File, pageID storage.PageID) *PageRef {
	return &PageRef{
		mgr:    m,
		file:   file,
		pageID: pageID,
		frame:  id,
		gen:    m.descs[id].gen,
		data:   m.frames.slot(id),
	}
}

// refLiveLocked reports whether r's frame still holds the page r was made
// for. Caller must hold m.mu.
func (m *Manager) refLiveLocked(r *PageRef) bool {
	d := &m.descs[r.frame]
	return d.valid && d.gen == r.gen
}

func (m *Manager) refLive(r *PageRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refLiveLocked(r)
}

// releaseRef drops the pin held by r. A stale ref releases nothing.
func (m *Manager) releaseRef(r *PageRef, dirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.refLiveLocked(r) {
		return nil
	}
	d := &m.descs[r.frame]
	if d.pinCount == 0 {
		return newError("unpin", d.tag(), ErrPageNotPinned)
	}
	d.pinCount--
	if dirty {
		d.dirty = true
	}
	return nil
}
