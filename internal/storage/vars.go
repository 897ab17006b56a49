package storage

import (
	"github.com/pkg/errors"
)

const (
	OneKB = 1 << 10 // 1,024

	SegmentSize = 1 << 30 // 1 GiB
	PageSize    = 1 << 13 // 8 KiB

	// MinPageSize is the granularity page sizes must be a multiple of.
	MinPageSize = 512
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

type StorageMode int

const (
	Disk   StorageMode = iota + 1 // segmented files on a filesystem
	Memory                        // memfile, lost on close
)

func (s StorageMode) String() string {
	switch s {
	case Disk:
		return "disk"
	case Memory:
		return "memory"
	default:
		return "unknown"
	}
}

func GetStorageMode(s string) (StorageMode, error) {
	switch s {
	case "disk":
		return Disk, nil
	case "memory":
		return Memory, nil
	default:
		return 0, errors.Errorf("storage: invalid storage mode: %s", s)
	}
}

var (
	ErrPageNotFound    = errors.New("storage: page not found")
	ErrWrongSize       = errors.New("storage: buffer size != page size")
	ErrInvalidPageSize = errors.New("storage: invalid page size")
	ErrFileClosed      = errors.New("storage: file is closed")
	ErrCorruptFreeList = errors.New("storage: corrupt free list")
)

// ValidPageSize reports whether n can be used as a page size.
func ValidPageSize(n int) bool {
	return n >= MinPageSize && n%MinPageSize == 0 && n <= SegmentSize
}
