package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// SegFileName returns segment file name:
//   - seg 0: base
//   - seg N>0: base.N
func SegFileName(base string, segNo int32) string {
	if segNo <= 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, segNo)
}

// listSegments scans dir and returns all segment numbers for base, sorted.
// It matches: base and base.<int>.
func listSegments(fs afero.Fs, dir, base string) ([]int32, error) {
	ents, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	segs := make([]int32, 0)
	prefix := base + "."

	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == base {
			segs = append(segs, 0)
			continue
		}
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		suf := strings.TrimPrefix(name, prefix)
		n64, err := strconv.ParseInt(suf, 10, 32)
		if err != nil || n64 <= 0 {
			continue
		}
		segs = append(segs, int32(n64))
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i] < segs[j] })
	return segs, nil
}

// RemoveAllSegments removes base, base.1, base.2, ... (robust: scan dir).
func RemoveAllSegments(fs afero.Fs, dir, base string) error {
	segs, err := listSegments(fs, dir, base)
	if err != nil {
		return err
	}
	for _, segNo := range segs {
		path := filepath.Join(dir, SegFileName(base, segNo))
		if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
