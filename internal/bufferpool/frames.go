package bufferpool

// FrameID addresses a frame in [0, poolSize).
type FrameID int

const InvalidFrameID FrameID = -1

// framePool is the cached page bytes: one allocation sliced into
// fixed-size frames.
type framePool struct {
	buf      []byte
	pageSize int
}

func newFramePool(frames, pageSize int) *framePool {
	return &framePool{
		buf:      make([]byte, frames*pageSize),
		pageSize: pageSize,
	}
}

// slot returns the bytes of frame id. The slice aliases the pool; its
// capacity is clipped so appends cannot spill into the next frame.
func (p *framePool) slot(id FrameID) []byte {
	off := int(id) * p.pageSize
	return p.buf[off : off+p.pageSize : off+p.pageSize]
}

func (p *framePool) zero(id FrameID) {
	clear(p.slot(id))
}
