package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohmanhakim/cfcli/pkg/fileutil"
)

// FileBackend keeps one JSON file per key under a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) Dir() string {
	return f.dir
}

func (f *FileBackend) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (f *FileBackend) Put(key string, value []byte) error {
	if err := fileutil.WriteFileAtomic(f.path(key), value, 0644); err != nil {
		return err
	}
	return nil
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, fileName(key)+".json")
}

// fileName keeps [A-Za-z0-9._-] and maps everything else to '_'.
func fileName(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '_'
		}
	}, key)
}
