package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalSource opens files from the local filesystem. Absolute names are used
// as is, relative names are tried against each search directory in order.
type LocalSource struct {
	dirs []string
}

func NewLocalSource(dirs []string) *LocalSource {
	return &LocalSource{dirs: dirs}
}

func (l *LocalSource) Open(_ context.Context, name string) (*Media, error) {
	if filepath.IsAbs(name) {
		return openLocal(name)
	}
	for _, dir := range l.dirs {
		m, err := openLocal(filepath.Join(dir, name))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return m, err
	}
	return nil, ErrNotFound
}

func (l *LocalSource) String() string {
	return "local(" + strings.Join(l.dirs, ",") + ")"
}

func openLocal(path string) (*Media, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return &Media{File: f, Size: info.Size(), Name: path}, nil
}
