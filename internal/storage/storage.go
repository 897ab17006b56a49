package storage

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Open opens the paged file name in the given mode. workdir is only used
// by Disk.
func Open(mode StorageMode, workdir, name string, pageSize int) (File, error) {
	switch mode {
	case Disk:
		f, err := OpenDiskFile(afero.NewOsFs(), workdir, name, pageSize)
		if err != nil {
			return nil, errors.Wrapf(err, "storage: open disk file %s", name)
		}
		return f, nil
	case Memory:
		return NewMemFile(name, pageSize)
	default:
		return nil, errors.Errorf("storage: unsupported storage mode %s", mode)
	}
}
