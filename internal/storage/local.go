package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// LocalLister reads directories through the filesystem, which covers the
// EOS FUSE mount on lxplus and on the schedds.
type LocalLister struct{}

// NewLocalLister creates a LocalLister
func NewLocalLister() *LocalLister {
	return &LocalLister{}
}

// List implements Lister. Entries are joined onto dir as written, so a
// trailing slash in dir does not produce a double slash.
func (l *LocalLister) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ListError{Backend: "local", Dir: dir, Err: ErrDirNotFound}
		}
		return nil, &ListError{Backend: "local", Dir: dir, Err: err}
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

var _ Lister = (*LocalLister)(nil)
