package bufferpool

import "github.com/tuannm99/novabuf/internal/storage"

var _ PageStore = (*FileView)(nil)

// FileView binds a Manager to one file so callers that only ever touch a
// single file don't have to pass it around.
type FileView struct {
	m    *Manager
	file storage.File
}

func (v *FileView) File() storage.File { return v.file }

func (v *FileView) ReadPage(pageID storage.PageID) (*PageRef, error) {
	return v.m.ReadPage(v.file, pageID)
}

func (v *FileView) Unpin(pageID storage.PageID, dirty bool) error {
	return v.m.UnpinPage(v.file, pageID, dirty)
}

func (v *FileView) AllocPage() (storage.PageID, *PageRef, error) {
	return v.m.AllocPage(v.file)
}

func (v *FileView) DisposePage(pageID storage.PageID) error {
	return v.m.DisposePage(v.file, pageID)
}

// Flush flushes and evicts pages of THIS file only.
func (v *FileView) Flush() error {
	return v.m.FlushFile(v.file)
}

// View returns a file-scoped PageStore backed by the shared Manager.
func (m *Manager) View(file storage.File) *FileView {
	return &FileView{m: m, file: file}
}
