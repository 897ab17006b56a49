package bufferpool

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novabuf/internal/storage"
)

const testPageSize = 512

var errBoom = errors.New("boom")

// recordingFile counts page writes and disposals and can be told to fail
// writes.
type recordingFile struct {
	*storage.MemFile

	mu        sync.Mutex
	writes    map[storage.PageID]int
	disposes  map[storage.PageID]int
	failWrite error
	failPage  map[storage.PageID]error
}

func newRecordingFile(t *testing.T, name string) *recordingFile {
	t.Helper()
	mf, err := storage.NewMemFile(name, testPageSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mf.Close() })
	return &recordingFile{
		MemFile:  mf,
		writes:   map[storage.PageID]int{},
		disposes: map[storage.PageID]int{},
		failPage: map[storage.PageID]error{},
	}
}

func (f *recordingFile) WritePage(id storage.PageID, src []byte) error {
	f.mu.Lock()
	fail := f.failWrite
	if err, ok := f.failPage[id]; ok {
		fail = err
	}
	f.mu.Unlock()
	if fail != nil {
		return fail
	}

	if err := f.MemFile.WritePage(id, src); err != nil {
		return err
	}
	f.mu.Lock()
	f.writes[id]++
	f.mu.Unlock()
	return nil
}

func (f *recordingFile) DisposePage(id storage.PageID) error {
	f.mu.Lock()
	f.disposes[id]++
	f.mu.Unlock()
	return f.MemFile.DisposePage(id)
}

func (f *recordingFile) setFailWrite(err error) {
	f.mu.Lock()
	f.failWrite = err
	f.mu.Unlock()
}

func (f *recordingFile) failWriteOf(id storage.PageID, err error) {
	f.mu.Lock()
	f.failPage[id] = err
	f.mu.Unlock()
}

func (f *recordingFile) totalWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.writes {
		n += c
	}
	return n
}

func newTestManager(t *testing.T, frames int) (*Manager, *recordingFile) {
	t.Helper()
	m := NewManagerWithPageSize(frames, testPageSize)
	return m, newRecordingFile(t, "t")
}

// allocPages allocates n pages directly in the file, bypassing the pool.
func allocPages(t *testing.T, f storage.File, n int) []storage.PageID {
	t.Helper()
	ids := make([]storage.PageID, n)
	for i := range ids {
		id, err := f.AllocatePage()
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func fill(b byte) []byte {
	buf := make([]byte, testPageSize)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

// requireConsistent checks that descriptors and index agree.
func requireConsistent(t *testing.T, m *Manager) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	valid := 0
	for i := range m.descs {
		d := &m.descs[i]
		require.GreaterOrEqual(t, d.pinCount, int32(0), "frame %d", i)
		if !d.valid {
			require.False(t, d.dirty, "invalid frame %d is dirty", i)
			require.Nil(t, d.file, "invalid frame %d names a file", i)
			continue
		}
		valid++
		id, ok := m.index.lookup(d.tag())
		require.True(t, ok, "frame %d not indexed", i)
		require.Equal(t, FrameID(i), id)
	}
	require.Equal(t, valid, m.index.len())
}

func pinCountOf(t *testing.T, m *Manager, f storage.File, id storage.PageID) int32 {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	fid, ok := m.index.lookup(tagOf(f, id))
	require.True(t, ok)
	return m.descs[fid].pinCount
}

func isCached(m *Manager, f storage.File, id storage.PageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index.lookup(tagOf(f, id))
	return ok
}
