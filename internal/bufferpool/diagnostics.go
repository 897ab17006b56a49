package bufferpool

import (
	"fmt"
	"io"

	"github.com/tuannm99/novabuf/internal/storage"
)

// FrameInfo is a snapshot of one frame descriptor.
type FrameInfo struct {
	Frame    FrameID
	FileKey  string // empty when the frame is unused
	PageID   storage.PageID
	PinCount int32
	Dirty    bool
	Valid    bool
	RefBit   bool
}

func (f FrameInfo) String() string {
	file := f.FileKey
	if file == "" {
		file = "NULL"
	}
	return fmt.Sprintf("FrameNo:%d file:%s pageNo:%s pinCnt:%d dirty:%t valid:%t refbit:%t",
		f.Frame, file, f.PageID, f.PinCount, f.Dirty, f.Valid, f.RefBit)
}

// Frames returns every frame descriptor in frame order.
func (m *Manager) Frames() []FrameInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]FrameInfo, len(m.descs))
	for i := range m.descs {
		d := &m.descs[i]
		info := FrameInfo{
			Frame:    FrameID(i),
			PageID:   d.pageID,
			PinCount: d.pinCount,
			Dirty:    d.dirty,
			Valid:    d.valid,
			RefBit:   d.refBit,
		}
		if d.file != nil {
			info.FileKey = d.file.Key()
		}
		out[i] = info
	}
	return out
}

func (m *Manager) ValidFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for i := range m.descs {
		if m.descs[i].valid {
			n++
		}
	}
	return n
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Fprintf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

// PrintSelf writes one line per frame followed by the valid frame count.
func (m *Manager) PrintSelf(w io.Writer) error {
	frames := m.Frames()
	ew := &errWriter{w: w}

	valid := 0
	for _, f := range frames {
		ew.Fprintf("%s\n", f)
		if f.Valid {
			valid++
		}
	}
	ew.Fprintf("Total Number of Valid Frames:%d\n", valid)
	return ew.err
}
