package bufferpool

import "log/slog"

// allocBuf picks a frame with the clock and returns it empty. A valid
// victim is written back first if dirty and dropped from the index.
// Caller must hold m.mu.
func (m *Manager) allocBuf() (FrameID, error) {
	slot, ok := m.clock.Sweep(func(i int) bool {
		d := &m.descs[i]
		switch {
		case !d.valid:
			return true
		case d.refBit:
			// second chance
			d.refBit = false
			return false
		case d.pinCount != 0:
			return false
		default:
			return true
		}
	})
	if !ok {
		return InvalidFrameID, ErrPoolExhausted
	}

	id := FrameID(slot)
	if m.descs[id].valid {
		if err := m.evict(id); err != nil {
			return InvalidFrameID, err
		}
	}
	m.descs[id].clear()
	return id, nil
}

// evict writes back frame id if dirty and removes it from the index.
// On a write error the frame stays cached, valid and dirty.
func (m *Manager) evict(id FrameID) error {
	d := &m.descs[id]
	tag := d.tag()

	if d.dirty {
		if err := d.file.WritePage(d.pageID, m.frames.slot(id)); err != nil {
			return err
		}
		d.dirty = false
		m.stats.Writes++
	}

	if err := m.index.remove(tag); err != nil {
		return newError("evict", tag, ErrBadBuffer)
	}
	m.stats.Evictions++

	slog.Debug("bufferpool: evict", "frame", id, "page", tag)
	return nil
}
